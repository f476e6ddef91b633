package sso

import (
	"context"
	"time"
)

// Instrumentation receives store lifecycle events. Implementations must be
// safe for concurrent use. See the middleware package for Prometheus and
// OpenTelemetry implementations.
type Instrumentation interface {
	// FieldWritten is called after a write changed a field's value.
	FieldWritten(store, key string)

	// WriteSuppressed is called when a write was equal to the current value.
	WriteSuppressed(store, key string)

	// Notified is called after a notification pass reached its listeners.
	Notified(store, key string, listeners int, elapsed time.Duration)

	// MethodStarted is called before a method body runs. The returned
	// function is called with the method's error when it returns.
	MethodStarted(ctx context.Context, store, method string) (context.Context, func(err error))

	// Revoked is called once when the store is revoked.
	Revoked(store string)
}

// NopInstrumentation discards all events.
type NopInstrumentation struct{}

func (NopInstrumentation) FieldWritten(string, string) {}

func (NopInstrumentation) WriteSuppressed(string, string) {}

func (NopInstrumentation) Notified(string, string, int, time.Duration) {}

func (NopInstrumentation) Revoked(string) {}

func (NopInstrumentation) MethodStarted(ctx context.Context, _, _ string) (context.Context, func(error)) {
	return ctx, func(error) {}
}
