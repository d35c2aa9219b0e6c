package observability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records eventwire metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordFire records one completed fan-out with its duration and
	// whether validation rejected it.
	RecordFire(ctx context.Context, kind string, duration time.Duration, err error)

	// RecordDelivery records one listener notification and its outcome.
	RecordDelivery(ctx context.Context, kind string, duration time.Duration, err error)

	// RecordPrunedHandle records the removal of a collected weak handle.
	RecordPrunedHandle(ctx context.Context, kind string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	fires         metric.Int64Counter
	fireLatency   metric.Float64Histogram
	deliveries    metric.Int64Counter
	deliveryErrs  metric.Int64Counter
	prunedHandles metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("eventwire")

	fires, err := meter.Int64Counter("eventwire.fires",
		metric.WithDescription("Number of fire calls"),
	)
	if err != nil {
		return nil, err
	}

	fireLatency, err := meter.Float64Histogram("eventwire.fire.latency_ms",
		metric.WithDescription("Fan-out latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := meter.Int64Counter("eventwire.deliveries",
		metric.WithDescription("Number of listener notifications"),
	)
	if err != nil {
		return nil, err
	}

	deliveryErrs, err := meter.Int64Counter("eventwire.delivery.errors",
		metric.WithDescription("Number of failed listener notifications"),
	)
	if err != nil {
		return nil, err
	}

	prunedHandles, err := meter.Int64Counter("eventwire.handles.pruned",
		metric.WithDescription("Number of collected weak handles pruned"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		fires:         fires,
		fireLatency:   fireLatency,
		deliveries:    deliveries,
		deliveryErrs:  deliveryErrs,
		prunedHandles: prunedHandles,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		return NoopMetrics{}
	}
	return m
}

// RecordFire records a fire call.
func (m *otelMetrics) RecordFire(ctx context.Context, kind string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("rejected", err != nil),
	)
	m.fires.Add(ctx, 1, attrs)
	m.fireLatency.Record(ctx, float64(duration.Nanoseconds())/1e6, attrs)
}

// RecordDelivery records a listener notification.
func (m *otelMetrics) RecordDelivery(ctx context.Context, kind string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("kind", kind))
	m.deliveries.Add(ctx, 1, attrs)
	if err != nil {
		m.deliveryErrs.Add(ctx, 1, attrs)
	}
}

// RecordPrunedHandle records a pruned weak handle.
func (m *otelMetrics) RecordPrunedHandle(ctx context.Context, kind string) {
	m.prunedHandles.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
