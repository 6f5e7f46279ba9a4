package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records execution metrics for calculators.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCalculation records one calculation with duration, cache
	// outcome, and error status.
	RecordCalculation(ctx context.Context, meta CalcMeta, duration time.Duration, cacheHit bool, err error)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	cacheHits    metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a new Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"calc.exec.total",
		metric.WithDescription("Total number of calculations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"calc.exec.errors",
		metric.WithDescription("Total number of failed calculations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"calc.cache.hits",
		metric.WithDescription("Total number of calculations served from cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"calc.exec.duration_ms",
		metric.WithDescription("Calculation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		cacheHits:    cacheHits,
		durationHist: durationHist,
	}, nil
}

// RecordCalculation records metrics for one calculation.
func (m *metricsImpl) RecordCalculation(ctx context.Context, meta CalcMeta, duration time.Duration, cacheHit bool, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("calc.id", meta.ID),
	}
	if meta.Category != "" {
		attrs = append(attrs, attribute.String("calc.category", meta.Category))
	}

	opt := metric.WithAttributes(attrs...)

	// Always increment total counter
	m.totalCount.Add(ctx, 1, opt)

	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	if cacheHit {
		m.cacheHits.Add(ctx, 1, opt)
	}

	durationMs := float64(duration) / float64(time.Millisecond)
	m.durationHist.Record(ctx, durationMs, opt)
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordCalculation(ctx context.Context, meta CalcMeta, duration time.Duration, cacheHit bool, err error) {
}

// NewNoopMetrics returns a Metrics that discards everything.
func NewNoopMetrics() Metrics {
	return &noopMetrics{}
}
