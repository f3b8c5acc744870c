package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/trace"
)

// TestSpanRecorder keeps exported spans in memory so tests can assert on them.
type TestSpanRecorder struct {
	mu    sync.RWMutex
	spans []trace.ReadOnlySpan
}

func NewTestSpanRecorder() *TestSpanRecorder {
	return &TestSpanRecorder{
		spans: make([]trace.ReadOnlySpan, 0),
	}
}

func (t *TestSpanRecorder) ExportSpans(ctx context.Context, spans []trace.ReadOnlySpan) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.spans = append(t.spans, spans...)
	return nil
}

func (t *TestSpanRecorder) Shutdown(ctx context.Context) error {
	return nil
}

func (t *TestSpanRecorder) GetSpans() []trace.ReadOnlySpan {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make([]trace.ReadOnlySpan, len(t.spans))
	copy(result, t.spans)
	return result
}

func (t *TestSpanRecorder) GetSpansByName(name string) []trace.ReadOnlySpan {
	return t.filter(func(span trace.ReadOnlySpan) bool {
		return span.Name() == name
	})
}

func (t *TestSpanRecorder) GetSpansByOperation(operation string) []trace.ReadOnlySpan {
	return t.filter(func(span trace.ReadOnlySpan) bool {
		for _, attr := range span.Attributes() {
			if attr.Key == "operation" && attr.Value.AsString() == operation {
				return true
			}
		}
		return false
	})
}

func (t *TestSpanRecorder) filter(keep func(trace.ReadOnlySpan) bool) []trace.ReadOnlySpan {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var result []trace.ReadOnlySpan
	for _, span := range t.spans {
		if keep(span) {
			result = append(result, span)
		}
	}
	return result
}

func (t *TestSpanRecorder) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.spans = make([]trace.ReadOnlySpan, 0)
}

func (t *TestSpanRecorder) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.spans)
}

// InitTestTracing installs a synchronous provider feeding recorder, so spans
// are visible as soon as they end.
func InitTestTracing(serviceName, serviceVersion string, recorder *TestSpanRecorder) *trace.TracerProvider {
	tp := trace.NewTracerProvider(
		trace.WithSyncer(recorder),
		trace.WithResource(serviceResource(serviceName, serviceVersion)),
	)
	otel.SetTracerProvider(tp)
	return tp
}
