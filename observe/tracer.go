package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// CalcMeta contains metadata about a calculator for telemetry purposes.
type CalcMeta struct {
	ID       string // Calculator ID (required)
	Name     string // Human-readable name (optional)
	Category string // Calculator category, e.g. "cost" or "process" (optional)
	Version  string // Calculator config version (optional)
}

// SpanName returns the deterministic span name for this calculator.
// Format: calc.exec.<id>
func (m CalcMeta) SpanName() string {
	return "calc.exec." + m.ID
}

// Validate checks that the metadata carries the required calculator ID.
func (m CalcMeta) Validate() error {
	if m.ID == "" {
		return ErrMissingCalculatorID
	}
	return nil
}

// Tracer wraps OpenTelemetry tracing with calculator-specific span
// management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: StartSpan must honor cancellation/deadlines and return ctx.Err() when canceled.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for calculator execution.
	StartSpan(ctx context.Context, meta CalcMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a new Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with calculator metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta CalcMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("calc.id", meta.ID),
		attribute.Bool("calc.error", false), // Will be updated in EndSpan if error
	}

	if meta.Name != "" {
		attrs = append(attrs, attribute.String("calc.name", meta.Name))
	}
	if meta.Category != "" {
		attrs = append(attrs, attribute.String("calc.category", meta.Category))
	}
	if meta.Version != "" {
		attrs = append(attrs, attribute.String("calc.version", meta.Version))
	}

	ctx, span := t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	return ctx, span
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("calc.error", true))
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// noopTracer is a tracer that does nothing.
type noopTracer struct {
	noop trace.Tracer
}

// NewNoopTracer creates a no-op tracer.
func NewNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta CalcMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
