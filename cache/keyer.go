package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/kevinaugment/calcengine/calc"
)

// maxCanonicalDepth bounds canonicalization recursion so cyclic input
// structures fail fast instead of overflowing the stack.
const maxCanonicalDepth = 32

// Keyer generates deterministic cache keys from calculation parameters.
//
// Contract:
// - Determinism: the same calculator, inputs, and context must produce the
//   same key regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	// Key generates a cache key from calculator ID, inputs, and optional
	// call context. Context may be nil.
	Key(calculatorID string, inputs calc.InputMap, context map[string]any) (string, error)
}

// DefaultKeyer generates SHA-256 based cache keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
// Format: calc:<calculatorID>:<hash>
// where hash is the first 16 hex characters of SHA-256 over the canonical
// JSON of the inputs and, when present, the call context.
func (k *DefaultKeyer) Key(calculatorID string, inputs calc.InputMap, context map[string]any) (string, error) {
	canonical, err := canonicalize(map[string]any(inputs), 0)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize inputs for %q: %w", calculatorID, err)
	}

	h := sha256.New()
	h.Write(canonical)

	if len(context) > 0 {
		ctxCanonical, err := canonicalize(context, 0)
		if err != nil {
			return "", fmt.Errorf("cache: failed to canonicalize context for %q: %w", calculatorID, err)
		}
		// Separator byte keeps (inputs, context) boundaries unambiguous.
		h.Write([]byte{0})
		h.Write(ctxCanonical)
	}

	sum := h.Sum(nil)
	return fmt.Sprintf("calc:%s:%s", calculatorID, hex.EncodeToString(sum[:8])), nil
}

// canonicalize produces a deterministic JSON representation of the value.
// Maps are sorted by key at every nesting level; array element order is
// preserved since it is semantically meaningful.
func canonicalize(v any, depth int) ([]byte, error) {
	if depth > maxCanonicalDepth {
		return nil, ErrTooDeep
	}
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val, depth)
	case calc.InputMap:
		return canonicalizeMap(map[string]any(val), depth)
	case []any:
		return canonicalizeSlice(val, depth)
	default:
		// For other types, use standard JSON encoding. Functions, channels,
		// and similar values are a caller error and fail fast here.
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotSerializable, err)
		}
		return b, nil
	}
}

func canonicalizeMap(m map[string]any, depth int) ([]byte, error) {
	// Sort keys
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Build ordered JSON object
	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotSerializable, err)
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k], depth+1)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any, depth int) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v, depth+1)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
