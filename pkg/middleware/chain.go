package middleware

import (
	"context"
	"time"

	"github.com/vango-dev/sso/pkg/sso"
)

// Chain combines several instrumentations into one. Events are delivered in
// order; method completion callbacks run in reverse order, so the first
// instrumentation wraps the others.
//
//	sso.WithInstrumentation(middleware.Chain(
//	    middleware.OpenTelemetry(),
//	    middleware.Prometheus(),
//	    middleware.Logging(logger),
//	))
func Chain(instrs ...sso.Instrumentation) sso.Instrumentation {
	list := make(chain, 0, len(instrs))
	for _, in := range instrs {
		if in != nil {
			list = append(list, in)
		}
	}
	if len(list) == 1 {
		return list[0]
	}
	return list
}

type chain []sso.Instrumentation

func (c chain) FieldWritten(store, key string) {
	for _, in := range c {
		in.FieldWritten(store, key)
	}
}

func (c chain) WriteSuppressed(store, key string) {
	for _, in := range c {
		in.WriteSuppressed(store, key)
	}
}

func (c chain) Notified(store, key string, listeners int, elapsed time.Duration) {
	for _, in := range c {
		in.Notified(store, key, listeners, elapsed)
	}
}

func (c chain) MethodStarted(ctx context.Context, store, method string) (context.Context, func(error)) {
	ends := make([]func(error), 0, len(c))
	for _, in := range c {
		var end func(error)
		ctx, end = in.MethodStarted(ctx, store, method)
		ends = append(ends, end)
	}
	return ctx, func(err error) {
		for i := len(ends) - 1; i >= 0; i-- {
			ends[i](err)
		}
	}
}

func (c chain) Revoked(store string) {
	for _, in := range c {
		in.Revoked(store)
	}
}
