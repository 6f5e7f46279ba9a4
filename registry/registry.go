package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kevinaugment/calcengine/calc"
)

// Algorithm is a pure computation function: it derives a result from an
// already-validated input map and must have no observable side effects
// beyond its return value.
type Algorithm func(ctx context.Context, inputs calc.InputMap) (*calc.Result, error)

// ErrNotRegistered is returned by Execute for an unknown calculator ID.
var ErrNotRegistered = errors.New("registry: algorithm is not registered")

// Registry manages calculator algorithms.
type Registry struct {
	mu         sync.RWMutex
	algorithms map[string]Algorithm
}

// NewRegistry creates a new algorithm registry.
func NewRegistry() *Registry {
	return &Registry{algorithms: make(map[string]Algorithm)}
}

// Register adds an algorithm under the given ID. Registration is idempotent
// per ID: re-registering replaces the previous algorithm.
func (r *Registry) Register(id string, fn Algorithm) error {
	if strings.TrimSpace(id) == "" || fn == nil {
		return errors.New("registry: invalid algorithm registration")
	}
	id = strings.TrimSpace(id)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.algorithms[id] = fn
	return nil
}

// Has reports whether an algorithm is registered for the ID.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.algorithms[id]
	return ok
}

// Execute runs the algorithm registered for the ID.
func (r *Registry) Execute(ctx context.Context, id string, inputs calc.InputMap) (*calc.Result, error) {
	r.mu.RLock()
	fn, ok := r.algorithms[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotRegistered, id)
	}

	return fn(ctx, inputs)
}

// List returns registered calculator IDs in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.algorithms))
	for id := range r.algorithms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
