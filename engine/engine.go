package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kevinaugment/calcengine/calc"
	"github.com/kevinaugment/calcengine/cache"
	"github.com/kevinaugment/calcengine/observe"
	"github.com/kevinaugment/calcengine/perf"
	"github.com/kevinaugment/calcengine/registry"
)

// Engine coordinates validation, caching, dispatch, and performance
// recording for calculator execution.
//
// Contract:
// - Concurrency: safe for concurrent use; concurrent misses for the same
//   cache key compute at most once.
// - Ownership: returned results are shared with the cache and must not be
//   mutated by callers.
// - Errors: cache failures are never surfaced; the engine degrades to an
//   uncached computation for the affected call.
type Engine struct {
	mu          sync.RWMutex
	descriptors map[string]calc.Descriptor
	closed      bool

	store    cache.Store
	keyer    cache.Keyer
	registry *registry.Registry
	builtins map[string]registry.Algorithm
	monitor  *perf.Monitor

	policy  cache.Policy
	timeout time.Duration

	tracer  observe.Tracer
	metrics observe.Metrics
	logger  observe.Logger

	// observer is set only when the engine created it from config and
	// therefore owns its shutdown.
	observer          observe.Observer
	telemetryInjected bool

	flight singleflight.Group
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore injects a cache store. The engine takes ownership and closes it.
func WithStore(s cache.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithKeyer injects a cache key codec.
func WithKeyer(k cache.Keyer) Option {
	return func(e *Engine) { e.keyer = k }
}

// WithRegistry injects an algorithm registry.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithMonitor injects a performance monitor.
func WithMonitor(m *perf.Monitor) Option {
	return func(e *Engine) { e.monitor = m }
}

// WithObserver wires telemetry from an externally managed Observer. The
// caller remains responsible for shutting it down.
func WithObserver(obs observe.Observer) Option {
	return func(e *Engine) { e.applyObserver(obs) }
}

// New creates an Engine from the config, applying options. Components not
// injected via options are constructed from the config.
func New(ctx context.Context, cfg Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		descriptors: make(map[string]calc.Descriptor),
		builtins:    registry.Builtins(),
		policy:      cfg.Cache,
		timeout:     cfg.ComputeTimeout,
		tracer:      observe.NewNoopTracer(),
		metrics:     observe.NewNoopMetrics(),
		logger:      observe.NewNoopLogger(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.store == nil {
		e.store = cache.NewMemoryStore(cfg.Cache)
	}
	if e.keyer == nil {
		e.keyer = cache.NewDefaultKeyer()
	}
	if e.registry == nil {
		e.registry = registry.NewRegistry()
	}
	if e.monitor == nil {
		e.monitor = perf.NewMonitor()
	}

	if cfg.Observability.ServiceName != "" && !e.telemetryInjected {
		obs, err := observe.NewObserver(ctx, cfg.Observability)
		if err != nil {
			e.store.Close()
			return nil, err
		}
		e.observer = obs
		e.applyObserver(obs)
	}

	return e, nil
}

func (e *Engine) applyObserver(obs observe.Observer) {
	if obs == nil {
		return
	}
	e.tracer = observe.NewTracer(obs.Tracer())
	if m, err := observe.NewMetrics(obs.Meter()); err == nil {
		e.metrics = m
	}
	e.logger = obs.Logger()
	e.telemetryInjected = true
}

// RegisterCalculator registers a calculator descriptor. Re-registering an ID
// replaces the previous descriptor.
func (e *Engine) RegisterCalculator(desc calc.Descriptor) error {
	if err := calc.CheckDescriptor(desc); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	e.descriptors[desc.ID] = desc
	return nil
}

// RegisterAlgorithm registers a computation function for a calculator ID.
// Re-registering replaces the previous algorithm.
func (e *Engine) RegisterAlgorithm(id string, fn registry.Algorithm) error {
	return e.registry.Register(id, fn)
}

// Descriptor returns the registered descriptor for an ID.
func (e *Engine) Descriptor(id string) (calc.Descriptor, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	desc, ok := e.descriptors[id]
	return desc, ok
}

// Calculators returns registered calculator IDs in sorted order.
func (e *Engine) Calculators() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := make([]string, 0, len(e.descriptors))
	for id := range e.descriptors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Calculate runs the calculator for the given inputs, serving from cache
// when a non-expired entry exists. The optional callContext distinguishes
// otherwise identical inputs computed under different external conditions
// (pricing tier, locale) and participates in the cache key.
//
// Failure modes: *NotFoundError for an unknown ID, *calc.ValidationError
// carrying every violated constraint, *ComputationError when the algorithm
// fails, times out, or does not exist.
func (e *Engine) Calculate(ctx context.Context, calculatorID string, inputs calc.InputMap, callContext map[string]any) (result *calc.Result, err error) {
	e.mu.RLock()
	desc, ok := e.descriptors[calculatorID]
	closed := e.closed
	e.mu.RUnlock()

	if closed {
		return nil, ErrClosed
	}
	if !ok {
		return nil, &NotFoundError{CalculatorID: calculatorID}
	}

	meta := observe.CalcMeta{ID: desc.ID, Name: desc.Name, Category: desc.Category}
	ctx, span := e.tracer.StartSpan(ctx, meta)
	defer func() { e.tracer.EndSpan(span, err) }()

	start := time.Now()

	key, keyErr := e.keyer.Key(calculatorID, inputs, callContext)
	if keyErr != nil {
		// The cache must never be a correctness dependency: a key that
		// cannot be derived degrades this call to an uncached computation.
		e.logger.Warn(ctx, "cache key derivation failed",
			observe.Field{Key: "calc.id", Value: calculatorID},
			observe.Field{Key: "error", Value: keyErr.Error()},
		)
		result, err = e.compute(ctx, desc, inputs, meta)
		return result, err
	}

	if cached, ok := e.store.Get(ctx, key); ok {
		e.monitor.Record(calculatorID, time.Since(start), len(inputs), true, nil)
		e.metrics.RecordCalculation(ctx, meta, time.Since(start), true, nil)
		return cached, nil
	}

	// Collapse concurrent misses for the same key into one computation.
	v, flightErr, shared := e.flight.Do(key, func() (any, error) {
		// A late arrival may find the leader's result already cached.
		if cached, ok := e.store.Get(ctx, key); ok {
			return cached, nil
		}

		computed, err := e.compute(ctx, desc, inputs, meta)
		if err != nil {
			return nil, err
		}

		ttl := e.policy.EffectiveTTL(desc.ResultTTL)
		if err := e.store.Set(ctx, key, computed, ttl); err != nil {
			e.logger.Warn(ctx, "cache write failed",
				observe.Field{Key: "calc.id", Value: calculatorID},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
		return computed, nil
	})
	if flightErr != nil {
		err = flightErr
		return nil, err
	}

	if shared {
		// Followers of a coalesced flight are effectively cache hits.
		e.monitor.Record(calculatorID, time.Since(start), len(inputs), true, nil)
	}

	result = v.(*calc.Result)
	return result, nil
}

// Invalidate removes every cached result for a calculator and returns how
// many entries were dropped.
func (e *Engine) Invalidate(calculatorID string) int {
	return e.store.ClearPrefix("calc:" + calculatorID + ":")
}

// CacheStats returns a snapshot of cache counters.
func (e *Engine) CacheStats() cache.Stats {
	return e.store.Stats()
}

// StatsFor returns aggregate performance statistics for one calculator.
func (e *Engine) StatsFor(calculatorID string) perf.CalcStats {
	return e.monitor.StatsFor(calculatorID)
}

// SystemStats returns aggregate performance statistics across calculators.
func (e *Engine) SystemStats() perf.SystemStats {
	return e.monitor.SystemStats()
}

// Close stops the cache sweep and, when the engine owns its Observer, flushes
// telemetry. Idempotent; Calculate fails with ErrClosed afterwards.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.store.Close()
	if e.observer != nil {
		return e.observer.Shutdown(ctx)
	}
	return nil
}

// compute validates, dispatches, measures, and stamps metadata. It is the
// cache-miss path of Calculate.
func (e *Engine) compute(ctx context.Context, desc calc.Descriptor, inputs calc.InputMap, meta observe.CalcMeta) (*calc.Result, error) {
	if issues := calc.Validate(desc, inputs); len(issues) > 0 {
		return nil, &calc.ValidationError{CalculatorID: desc.ID, Issues: issues}
	}

	fn := e.algorithm(desc.ID)
	if fn == nil {
		return nil, &ComputationError{CalculatorID: desc.ID, Err: ErrNotImplemented}
	}

	start := time.Now()
	result, err := e.run(ctx, fn, inputs)
	duration := time.Since(start)

	e.monitor.Record(desc.ID, duration, len(inputs), false, err)
	e.metrics.RecordCalculation(ctx, meta, duration, false, err)

	logger := e.logger.WithCalculator(meta)
	if err != nil {
		logger.Error(ctx, "calculation failed",
			observe.Field{Key: "duration_ms", Value: float64(duration) / float64(time.Millisecond)},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return nil, &ComputationError{CalculatorID: desc.ID, Duration: duration, Err: err}
	}
	if result == nil {
		return nil, &ComputationError{CalculatorID: desc.ID, Duration: duration, Err: errors.New("engine: algorithm returned no result")}
	}

	logger.Debug(ctx, "calculation completed",
		observe.Field{Key: "duration_ms", Value: float64(duration) / float64(time.Millisecond)},
	)

	result.Meta = calc.Metadata{
		DurationMs: float64(duration) / float64(time.Millisecond),
		Accuracy:   calc.ClassifyAccuracy(duration),
		ComputedAt: time.Now().UTC(),
	}
	return result, nil
}

// algorithm resolves the computation function for an ID: registered
// algorithms first, then the built-in fallback set.
func (e *Engine) algorithm(id string) registry.Algorithm {
	if e.registry.Has(id) {
		return func(ctx context.Context, inputs calc.InputMap) (*calc.Result, error) {
			return e.registry.Execute(ctx, id, inputs)
		}
	}
	if fn, ok := e.builtins[id]; ok {
		return fn
	}
	return nil
}

// run executes the algorithm, applying the per-call timeout. The algorithm
// runs in its own goroutine so an unresponsive body cannot block the caller
// past the deadline.
func (e *Engine) run(ctx context.Context, fn registry.Algorithm, inputs calc.InputMap) (*calc.Result, error) {
	if e.timeout <= 0 {
		return fn(ctx, inputs)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		result *calc.Result
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		r, err := fn(ctx, inputs)
		done <- outcome{result: r, err: err}
	}()

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}
