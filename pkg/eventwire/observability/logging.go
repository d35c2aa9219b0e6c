// Package observability provides structured logging, metrics, and tracing
// for eventwire producers and the remote bridge.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import "log/slog"

// EnrichLogger adds producer context to a logger. Returns a new logger with
// producer and kind fields.
func EnrichLogger(logger *slog.Logger, producer, kind string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("producer", producer),
		slog.String("kind", kind),
	)
}

// LogDeliveryError logs a single listener's failed delivery. Delivery
// failures are isolated per listener, so this is a warning, not an error:
// the fire itself carries on.
func LogDeliveryError(logger *slog.Logger, kind, listener string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("listener delivery failed",
		slog.String("kind", kind),
		slog.String("listener", listener),
		slog.String("error", err.Error()),
	)
}

// LogPrunedHandle logs the removal of a collected weak-handle subscription.
func LogPrunedHandle(logger *slog.Logger, kind string) {
	if logger == nil {
		return
	}
	logger.Debug("pruned dead weak handle",
		slog.String("kind", kind),
	)
}

// LogFire logs a completed fan-out.
func LogFire(logger *slog.Logger, kind string, delivered, failed, pruned int) {
	if logger == nil {
		return
	}
	logger.Debug("event fired",
		slog.String("kind", kind),
		slog.Int("delivered", delivered),
		slog.Int("failed", failed),
		slog.Int("pruned", pruned),
	)
}
