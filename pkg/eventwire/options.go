package eventwire

import (
	"log/slog"

	"github.com/randalmurphal/eventwire/pkg/eventwire/journal"
	"github.com/randalmurphal/eventwire/pkg/eventwire/observability"
)

// producerConfig holds configuration for a producer.
type producerConfig struct {
	name    string
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	journal journal.Journal
	onError func(*DeliveryError)
}

// defaultProducerConfig returns the default producer configuration:
// no logging, no-op observability, no journal.
func defaultProducerConfig() producerConfig {
	return producerConfig{
		name:    "producer",
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// Option configures a producer.
type Option func(*producerConfig)

// WithName names the producer in logs and remote bindings.
func WithName(name string) Option {
	return func(c *producerConfig) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger enables structured logging of deliveries and pruning.
func WithLogger(logger *slog.Logger) Option {
	return func(c *producerConfig) {
		c.logger = logger
	}
}

// WithMetrics records fire and delivery metrics through the given recorder.
// Use observability.NewMetricsRecorder() for OpenTelemetry metrics.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *producerConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing traces fires and per-listener deliveries through the given
// span manager. Use observability.NewSpanManager() for OpenTelemetry spans.
func WithTracing(s observability.SpanManager) Option {
	return func(c *producerConfig) {
		if s != nil {
			c.spans = s
		}
	}
}

// WithJournal records failed deliveries in a journal for later inspection.
func WithJournal(j journal.Journal) Option {
	return func(c *producerConfig) {
		c.journal = j
	}
}

// WithOnDeliveryError installs a hook called once per failed listener
// delivery. The hook runs on the firing goroutine, after the failing
// listener and before the next one.
func WithOnDeliveryError(fn func(*DeliveryError)) Option {
	return func(c *producerConfig) {
		c.onError = fn
	}
}
