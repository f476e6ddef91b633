package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vango-dev/sso/pkg/sso"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Default tracer name for store instrumentation.
const defaultTracerName = "sso"

// OTelConfig configures the OpenTelemetry instrumentation.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "sso").
	TracerName string

	// Tracer overrides the tracer resolved from the global provider.
	Tracer trace.Tracer

	// Filter determines which method calls to trace.
	// Return true to trace the call, false to skip.
	// If nil, all calls are traced.
	Filter func(store, method string) bool

	// AttributeExtractor extracts custom attributes from the call context.
	// Called for each traced method call.
	AttributeExtractor func(ctx context.Context, store, method string) []attribute.KeyValue

	// FieldEvents adds a span event to the active span of the method that
	// caused a write. Enabled by default.
	FieldEvents bool
}

// OTelOption configures the OpenTelemetry instrumentation.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithTracer sets the tracer directly.
func WithTracer(tracer trace.Tracer) OTelOption {
	return func(c *OTelConfig) {
		c.Tracer = tracer
	}
}

// WithMethodFilter sets a filter function for method calls.
func WithMethodFilter(filter func(store, method string) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(ctx context.Context, store, method string) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

// WithFieldEvents enables/disables span events for field writes.
func WithFieldEvents(enabled bool) OTelOption {
	return func(c *OTelConfig) {
		c.FieldEvents = enabled
	}
}

// defaultOTelConfig returns the default OpenTelemetry configuration.
func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName:  defaultTracerName,
		Filter:      nil,
		FieldEvents: true,
	}
}

// Tracing is an sso.Instrumentation that traces store method calls.
type Tracing struct {
	config OTelConfig
	tracer trace.Tracer

	// active maps a store name to the span of its innermost running method.
	active spanStack
}

var _ sso.Instrumentation = (*Tracing)(nil)

// OpenTelemetry creates instrumentation that traces every store method call.
//
// The instrumentation:
//   - Creates a span for each method call with the store and method names
//   - Passes the span context to methods that take a context.Context
//   - Records errors and sets span status
//   - Adds "sso.write" and "sso.notify" events to the running method's span
//
// Example:
//
//	store, err := sso.New(fields,
//	    sso.WithInstrumentation(middleware.OpenTelemetry(
//	        middleware.WithTracerName("my-app"),
//	    )),
//	)
//
// The tracer uses the global OpenTelemetry tracer provider unless WithTracer
// is given. Configure it in your main():
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) *Tracing {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}

	tracer := config.Tracer
	if tracer == nil {
		// Resolve tracer from global provider
		tracer = otel.Tracer(config.TracerName)
	}

	return &Tracing{config: config, tracer: tracer}
}

// MethodStarted implements sso.Instrumentation.
func (t *Tracing) MethodStarted(ctx context.Context, store, method string) (context.Context, func(error)) {
	if t.config.Filter != nil && !t.config.Filter(store, method) {
		return ctx, func(error) {}
	}

	attrs := []attribute.KeyValue{
		attribute.String("sso.store", store),
		attribute.String("sso.method", method),
	}
	if t.config.AttributeExtractor != nil {
		attrs = append(attrs, t.config.AttributeExtractor(ctx, store, method)...)
	}

	spanCtx, span := t.tracer.Start(
		ctx,
		formatSpanName(store, method),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
		trace.WithTimestamp(time.Now()),
	)
	t.active.push(store, span)

	return spanCtx, func(err error) {
		t.active.pop(store, span)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// FieldWritten implements sso.Instrumentation.
func (t *Tracing) FieldWritten(store, key string) {
	t.event(store, "sso.write", attribute.String("sso.key", key))
}

// WriteSuppressed implements sso.Instrumentation.
func (t *Tracing) WriteSuppressed(store, key string) {
	t.event(store, "sso.write_suppressed", attribute.String("sso.key", key))
}

// Notified implements sso.Instrumentation.
func (t *Tracing) Notified(store, key string, listeners int, _ time.Duration) {
	t.event(store, "sso.notify",
		attribute.String("sso.key", key),
		attribute.Int("sso.listeners", listeners),
	)
}

// Revoked implements sso.Instrumentation.
func (t *Tracing) Revoked(store string) {
	t.event(store, "sso.revoke")
}

func (t *Tracing) event(store, name string, attrs ...attribute.KeyValue) {
	if !t.config.FieldEvents {
		return
	}
	if span := t.active.top(store); span != nil {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}

// SpanFromContext retrieves the method span from a context passed to a
// store method. Returns nil if the context carries no recording span.
//
// Example:
//
//	"save": func(s *sso.Store, ctx context.Context) error {
//	    if span := middleware.SpanFromContext(ctx); span != nil {
//	        span.SetAttributes(attribute.Int("my.count", 42))
//	    }
//	    return nil
//	},
func SpanFromContext(ctx context.Context) trace.Span {
	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() && !span.IsRecording() {
		return nil
	}
	return span
}

// formatSpanName creates a span name from the store and method.
func formatSpanName(store, method string) string {
	return fmt.Sprintf("sso %s.%s", store, method)
}

// spanStack tracks the running method spans per store. Events are attached
// to the innermost one; with concurrent method calls on one store this is
// whichever started last.
type spanStack struct {
	mu     sync.Mutex
	stacks map[string][]trace.Span
}

func (s *spanStack) push(store string, span trace.Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stacks == nil {
		s.stacks = make(map[string][]trace.Span)
	}
	s.stacks[store] = append(s.stacks[store], span)
}

func (s *spanStack) pop(store string, span trace.Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stack := s.stacks[store]
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == span {
			stack = append(stack[:i:i], stack[i+1:]...)
			break
		}
	}
	if len(stack) == 0 {
		delete(s.stacks, store)
		return
	}
	s.stacks[store] = stack
}

func (s *spanStack) top(store string) trace.Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	stack := s.stacks[store]
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}
