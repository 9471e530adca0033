package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestNew_TagsService(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "web-order-service", "info")

	log.Info("hello", slog.String("order_id", "abc"))

	rec := decodeLine(t, &buf)
	assert.Equal(t, "web-order-service", rec["service"])
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "abc", rec["order_id"])
	assert.NotContains(t, rec, "trace_id")
}

func TestNew_AddsTraceFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "web-order-service", "info").With(slog.String("component", "test"))

	traceID, _ := trace.TraceIDFromHex("ad941a390c5c6d4d0f878eec73bdc478")
	spanID, _ := trace.SpanIDFromHex("84834e2917631e82")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	log.InfoContext(ctx, "traced")

	rec := decodeLine(t, &buf)
	assert.Equal(t, "ad941a390c5c6d4d0f878eec73bdc478", rec["trace_id"])
	assert.Equal(t, "84834e2917631e82", rec["span_id"])
	assert.Equal(t, "test", rec["component"])
}

func TestNew_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "svc", "warn")

	log.Info("dropped")
	assert.Zero(t, buf.Len())

	log.Warn("kept")
	assert.NotZero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}
