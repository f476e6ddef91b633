package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/vango-dev/sso/pkg/sso"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/embedded"
)

// =============================================================================
// Test Helpers
// =============================================================================

// recordingTracer is a trace.Tracer that keeps every span it starts.
type recordingTracer struct {
	embedded.Tracer

	mu    sync.Mutex
	spans []*recordingSpan
}

func (r *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	cfg := trace.NewSpanStartConfig(opts...)
	span := &recordingSpan{
		Span:  trace.SpanFromContext(context.Background()),
		name:  name,
		attrs: cfg.Attributes(),
	}
	r.mu.Lock()
	r.spans = append(r.spans, span)
	r.mu.Unlock()
	return trace.ContextWithSpan(ctx, span), span
}

// recordingSpan records what the instrumentation does with a span.
type recordingSpan struct {
	trace.Span

	name   string
	attrs  []attribute.KeyValue
	events []string
	errs   []error
	status codes.Code
	ended  bool
}

func (s *recordingSpan) IsRecording() bool { return !s.ended }

func (s *recordingSpan) End(...trace.SpanEndOption) { s.ended = true }

func (s *recordingSpan) RecordError(err error, _ ...trace.EventOption) {
	s.errs = append(s.errs, err)
}

func (s *recordingSpan) SetStatus(code codes.Code, _ string) { s.status = code }

func (s *recordingSpan) AddEvent(name string, _ ...trace.EventOption) {
	s.events = append(s.events, name)
}

func (s *recordingSpan) attr(key string) string {
	for _, kv := range s.attrs {
		if string(kv.Key) == key {
			return kv.Value.Emit()
		}
	}
	return ""
}

// =============================================================================
// Tests
// =============================================================================

func TestOpenTelemetry_TracesMethods(t *testing.T) {
	tracer := &recordingTracer{}
	var inMethod trace.Span

	store := sso.MustNew(map[string]any{
		"count": 0,
		"save": func(s *sso.Store, ctx context.Context) error {
			inMethod = SpanFromContext(ctx)
			return s.Set("count", 1)
		},
	}, sso.WithName("cart"), sso.WithInstrumentation(OpenTelemetry(
		WithTracer(tracer),
		WithAttributeExtractor(func(context.Context, string, string) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	)))

	if _, err := store.Invoke("save"); err != nil {
		t.Fatalf("Invoke(save): %v", err)
	}

	if len(tracer.spans) != 1 {
		t.Fatalf("spans = %d, want 1", len(tracer.spans))
	}
	span := tracer.spans[0]
	if span.name != "sso cart.save" {
		t.Errorf("span name = %q", span.name)
	}
	if span.attr("sso.store") != "cart" || span.attr("sso.method") != "save" || span.attr("test.attr") != "ok" {
		t.Errorf("attributes = %v", span.attrs)
	}
	if inMethod != span {
		t.Error("method context should carry the method span")
	}
	if !span.ended || span.status != codes.Ok {
		t.Errorf("span ended=%v status=%v, want ended with Ok", span.ended, span.status)
	}
	if len(span.events) != 2 || span.events[0] != "sso.write" || span.events[1] != "sso.notify" {
		t.Errorf("events = %v, want [sso.write sso.notify]", span.events)
	}
}

func TestOpenTelemetry_RecordsErrors(t *testing.T) {
	tracer := &recordingTracer{}
	wantErr := errors.New("boom")
	store := sso.MustNew(map[string]any{
		"fail": func() error { return wantErr },
	}, sso.WithInstrumentation(OpenTelemetry(WithTracer(tracer))))

	if _, err := store.Invoke("fail"); !errors.Is(err, wantErr) {
		t.Fatalf("expected error %v, got %v", wantErr, err)
	}

	span := tracer.spans[0]
	if span.status != codes.Error {
		t.Errorf("status = %v, want Error", span.status)
	}
	if len(span.errs) != 1 || !errors.Is(span.errs[0], wantErr) {
		t.Errorf("recorded errors = %v", span.errs)
	}
}

func TestOpenTelemetry_FilterSkipsTracing(t *testing.T) {
	tracer := &recordingTracer{}
	var inMethod trace.Span
	store := sso.MustNew(map[string]any{
		"tick": func(ctx context.Context) { inMethod = SpanFromContext(ctx) },
	}, sso.WithInstrumentation(OpenTelemetry(
		WithTracer(tracer),
		WithMethodFilter(func(_, method string) bool { return method != "tick" }),
	)))

	if _, err := store.Invoke("tick"); err != nil {
		t.Fatal(err)
	}
	if len(tracer.spans) != 0 {
		t.Errorf("filtered method produced %d spans", len(tracer.spans))
	}
	if inMethod != nil {
		t.Error("expected no span when filter skips tracing")
	}
}

func TestOpenTelemetry_NestedMethodsGetChildSpans(t *testing.T) {
	tracer := &recordingTracer{}
	store := sso.MustNew(map[string]any{
		"v":     0,
		"inner": func(s *sso.Store) error { return s.Set("v", 1) },
		"outer": func(s *sso.Store) error {
			_, err := s.Invoke("inner")
			return err
		},
	}, sso.WithInstrumentation(OpenTelemetry(WithTracer(tracer), WithFieldEvents(true))))

	if _, err := store.Invoke("outer"); err != nil {
		t.Fatal(err)
	}
	if len(tracer.spans) != 2 {
		t.Fatalf("spans = %d, want 2", len(tracer.spans))
	}
	outer, inner := tracer.spans[0], tracer.spans[1]
	if len(inner.events) == 0 || len(outer.events) != 0 {
		t.Errorf("write events should land on the innermost span: outer=%v inner=%v", outer.events, inner.events)
	}
}

func TestSpanFromContext_NoSpan(t *testing.T) {
	if SpanFromContext(context.Background()) != nil {
		t.Fatal("expected nil span when the context carries none")
	}
}
