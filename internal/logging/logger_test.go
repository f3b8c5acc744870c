package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestNewLoggerWithOptionsRejectsBadLevel(t *testing.T) {
	_, err := NewLoggerWithOptions(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestInfoWithTracingWritesJSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerWithOptions(Options{Output: &buf})
	require.NoError(t, err)

	logger.InfoWithTracing(context.Background(), "hello", map[string]interface{}{"email": "a@example.com"})

	line := decodeLine(t, &buf)
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "a@example.com", line["email"])
	assert.Contains(t, line, "timestamp")
	assert.NotContains(t, line, "trace_id")
}

func TestWithTracingAddsSpanIDs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerWithOptions(Options{Output: &buf})
	require.NoError(t, err)

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	logger.ErrorWithTracing(ctx, "boom", errors.New("storage down"), nil)

	line := decodeLine(t, &buf)
	assert.Equal(t, span.SpanContext().TraceID().String(), line["trace_id"])
	assert.Equal(t, span.SpanContext().SpanID().String(), line["span_id"])
	assert.Equal(t, "storage down", line["error"])
	assert.Equal(t, "error", line["level"])
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLoggerWithOptions(Options{Level: "info", Output: &buf})
	require.NoError(t, err)

	logger.DebugWithTracing(context.Background(), "hidden", nil)
	assert.Empty(t, buf.String())
}
