package observability

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureLogger returns a debug-level JSON logger writing into buf.
func captureLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// decodeLine decodes the single JSON log line in buf.
func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var data map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	return data
}

func TestEnrichLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := EnrichLogger(captureLogger(&buf), "pump", "pump.pressure")
	require.NotNil(t, logger)

	logger.Info("something happened")
	data := decodeLine(t, &buf)
	assert.Equal(t, "pump", data["producer"])
	assert.Equal(t, "pump.pressure", data["kind"])

	assert.Nil(t, EnrichLogger(nil, "pump", "k"))
}

func TestLogDeliveryError(t *testing.T) {
	var buf bytes.Buffer
	LogDeliveryError(captureLogger(&buf), "pump.pressure", "*main.gauge", errors.New("connection refused"))

	data := decodeLine(t, &buf)
	assert.Equal(t, "WARN", data["level"])
	assert.Equal(t, "listener delivery failed", data["msg"])
	assert.Equal(t, "pump.pressure", data["kind"])
	assert.Equal(t, "*main.gauge", data["listener"])
	assert.Equal(t, "connection refused", data["error"])

	// nil logger is a no-op, not a panic.
	LogDeliveryError(nil, "k", "l", errors.New("ignored"))
}

func TestLogPrunedHandle(t *testing.T) {
	var buf bytes.Buffer
	LogPrunedHandle(captureLogger(&buf), "pump.pressure")

	data := decodeLine(t, &buf)
	assert.Equal(t, "DEBUG", data["level"])
	assert.Equal(t, "pump.pressure", data["kind"])

	LogPrunedHandle(nil, "k")
}

func TestLogFire(t *testing.T) {
	var buf bytes.Buffer
	LogFire(captureLogger(&buf), "pump.pressure", 3, 1, 0)

	data := decodeLine(t, &buf)
	assert.Equal(t, "event fired", data["msg"])
	assert.Equal(t, float64(3), data["delivered"])
	assert.Equal(t, float64(1), data["failed"])
	assert.Equal(t, float64(0), data["pruned"])

	LogFire(nil, "k", 0, 0, 0)
}
