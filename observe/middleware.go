package observe

import (
	"context"
	"time"

	"github.com/kevinaugment/calcengine/calc"
)

// ComputeFunc is the signature for calculator computation functions.
// This is the standard function signature that Middleware wraps.
type ComputeFunc func(ctx context.Context, meta CalcMeta, inputs calc.InputMap) (*calc.Result, error)

// Middleware wraps calculator execution with observability (tracing,
// metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ComputeFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from wrapped function are recorded and propagated unchanged.
//   - Ownership: Inputs and results are passed through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps a ComputeFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn ComputeFunc) ComputeFunc {
	return func(ctx context.Context, meta CalcMeta, inputs calc.InputMap) (*calc.Result, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)

		start := time.Now()
		result, err := fn(ctx, meta, inputs)
		duration := time.Since(start)

		// End span (records error status if err != nil)
		m.tracer.EndSpan(span, err)

		m.metrics.RecordCalculation(ctx, meta, duration, false, err)

		calcLogger := m.logger.WithCalculator(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration) / float64(time.Millisecond)},
			{Key: "input_count", Value: len(inputs)},
		}

		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			calcLogger.Error(ctx, "calculation failed", fields...)
		} else {
			calcLogger.Info(ctx, "calculation completed", fields...)
		}

		return result, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
// This is a convenience function for common use cases.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
