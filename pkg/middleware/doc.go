// Package middleware provides production-grade instrumentation for stores.
//
// This package includes:
//   - OpenTelemetry tracing of store method calls
//   - Prometheus metrics for writes, notifications and methods
//   - Structured logging of store events
//
// Each constructor returns an sso.Instrumentation. Install one per store with
// sso.WithInstrumentation, or combine several with Chain.
//
// # OpenTelemetry
//
// Every method call gets a span named "sso <store>.<method>". Methods that
// take a context.Context receive the span context, so database drivers and
// HTTP clients called from the method inherit the trace. Field writes and
// notification passes caused by the method become span events.
//
//	store, _ := sso.New(fields, sso.WithInstrumentation(
//	    middleware.OpenTelemetry(
//	        middleware.WithTracerName("my-app"),
//	        middleware.WithMethodFilter(func(store, method string) bool {
//	            return method != "tick"
//	        }),
//	    ),
//	))
//
// # Prometheus Metrics
//
// The Prometheus instrumentation collects:
//   - sso_writes_total: Field writes that changed a value
//   - sso_writes_suppressed_total: Writes dropped as equal
//   - sso_notify_duration_seconds: Notification pass duration
//   - sso_method_calls_total: Method calls by status
//
//	reg := prometheus.NewRegistry()
//	store, _ := sso.New(fields, sso.WithInstrumentation(
//	    middleware.Prometheus(middleware.WithRegistry(reg)),
//	))
//
// Then expose metrics on a separate port:
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//	go http.ListenAndServe(":9090", nil)
package middleware
