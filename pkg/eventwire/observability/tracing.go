package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer is the eventwire tracer instance.
// Uses the global OTel tracer provider.
var tracer = otel.Tracer("eventwire")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartFireSpan starts a span covering one whole fan-out.
	StartFireSpan(ctx context.Context, kind string, subscribers int) (context.Context, trace.Span)

	// StartDeliverySpan starts a span for one listener notification.
	// It should be a child of the fire span.
	StartDeliverySpan(ctx context.Context, kind, listener string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartFireSpan starts a span covering one whole fan-out.
func (m *otelSpanManager) StartFireSpan(ctx context.Context, kind string, subscribers int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "eventwire.fire",
		trace.WithAttributes(
			attribute.String("event.kind", kind),
			attribute.Int("event.subscribers", subscribers),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartDeliverySpan starts a span for one listener notification.
func (m *otelSpanManager) StartDeliverySpan(ctx context.Context, kind, listener string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "eventwire.deliver",
		trace.WithAttributes(
			attribute.String("event.kind", kind),
			attribute.String("event.listener", listener),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span.
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
