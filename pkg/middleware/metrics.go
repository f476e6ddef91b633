package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vango-dev/sso/pkg/sso"
)

// MetricsConfig configures the Prometheus instrumentation.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "sso").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for notification and method duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer

	// PerKey adds a "key" label to field metrics. Disable it for stores
	// with many or dynamic keys.
	PerKey bool
}

// MetricsOption configures the Prometheus instrumentation.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// WithPerKey enables or disables the "key" label on field metrics.
func WithPerKey(enabled bool) MetricsOption {
	return func(c *MetricsConfig) {
		c.PerKey = enabled
	}
}

// defaultMetricsConfig returns the default metrics configuration.
func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace:   "sso",
		Subsystem:   "",
		ConstLabels: nil,
		Buckets:     prometheus.DefBuckets,
		Registry:    prometheus.DefaultRegisterer,
		PerKey:      true,
	}
}

// Metrics is an sso.Instrumentation that records Prometheus metrics.
type Metrics struct {
	perKey bool

	writesTotal      *prometheus.CounterVec
	writesSuppressed *prometheus.CounterVec
	notifications    *prometheus.CounterVec
	listenersReached *prometheus.CounterVec
	notifyDuration   *prometheus.HistogramVec
	methodCalls      *prometheus.CounterVec
	methodDuration   *prometheus.HistogramVec
	methodErrors     *prometheus.CounterVec
	revocations      *prometheus.CounterVec
}

var _ sso.Instrumentation = (*Metrics)(nil)

// Prometheus creates instrumentation that collects Prometheus metrics for
// stores.
//
// Metrics collected:
//   - sso_writes_total: Counter of field writes that changed a value
//   - sso_writes_suppressed_total: Counter of writes dropped as equal
//   - sso_notifications_total: Counter of notification passes
//   - sso_listeners_notified_total: Counter of listeners reached
//   - sso_notify_duration_seconds: Histogram of notification pass duration
//   - sso_method_calls_total: Counter of method calls by status
//   - sso_method_duration_seconds: Histogram of method duration
//   - sso_method_errors_total: Counter of method errors by error code
//   - sso_revocations_total: Counter of revoked stores
//
// The metrics are registered on the configured registry; registering twice
// on the same registry panics.
//
// Example:
//
//	store, err := sso.New(fields,
//	    sso.WithInstrumentation(middleware.Prometheus(
//	        middleware.WithNamespace("myapp"),
//	    )),
//	)
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
func Prometheus(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	fieldLabels := []string{"store"}
	if config.PerKey {
		fieldLabels = append(fieldLabels, "key")
	}

	return &Metrics{
		perKey: config.PerKey,

		writesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "writes_total",
			Help:        "Total number of field writes that changed a value",
			ConstLabels: config.ConstLabels,
		}, fieldLabels),

		writesSuppressed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "writes_suppressed_total",
			Help:        "Total number of field writes dropped because the value was equal",
			ConstLabels: config.ConstLabels,
		}, fieldLabels),

		notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notifications_total",
			Help:        "Total number of notification passes",
			ConstLabels: config.ConstLabels,
		}, fieldLabels),

		listenersReached: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "listeners_notified_total",
			Help:        "Total number of listeners reached by notification passes",
			ConstLabels: config.ConstLabels,
		}, fieldLabels),

		notifyDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "notify_duration_seconds",
			Help:        "Notification pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"store"}),

		methodCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "method_calls_total",
			Help:        "Total number of store method calls",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "method", "status"}),

		methodDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "method_duration_seconds",
			Help:        "Store method duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"store", "method"}),

		methodErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "method_errors_total",
			Help:        "Total number of store method errors",
			ConstLabels: config.ConstLabels,
		}, []string{"store", "method", "error_type"}),

		revocations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "revocations_total",
			Help:        "Total number of revoked stores",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),
	}
}

func (m *Metrics) fieldLabels(store, key string) []string {
	if m.perKey {
		return []string{store, key}
	}
	return []string{store}
}

// FieldWritten implements sso.Instrumentation.
func (m *Metrics) FieldWritten(store, key string) {
	m.writesTotal.WithLabelValues(m.fieldLabels(store, key)...).Inc()
}

// WriteSuppressed implements sso.Instrumentation.
func (m *Metrics) WriteSuppressed(store, key string) {
	m.writesSuppressed.WithLabelValues(m.fieldLabels(store, key)...).Inc()
}

// Notified implements sso.Instrumentation.
func (m *Metrics) Notified(store, key string, listeners int, elapsed time.Duration) {
	labels := m.fieldLabels(store, key)
	m.notifications.WithLabelValues(labels...).Inc()
	m.listenersReached.WithLabelValues(labels...).Add(float64(listeners))
	m.notifyDuration.WithLabelValues(store).Observe(elapsed.Seconds())
}

// MethodStarted implements sso.Instrumentation.
func (m *Metrics) MethodStarted(ctx context.Context, store, method string) (context.Context, func(error)) {
	start := time.Now()
	return ctx, func(err error) {
		m.methodDuration.WithLabelValues(store, method).Observe(time.Since(start).Seconds())

		status := "success"
		if err != nil {
			status = "error"
			m.methodErrors.WithLabelValues(store, method, categorizeError(err)).Inc()
		}
		m.methodCalls.WithLabelValues(store, method, status).Inc()
	}
}

// Revoked implements sso.Instrumentation.
func (m *Metrics) Revoked(store string) {
	m.revocations.WithLabelValues(store).Inc()
}

// categorizeError returns a low-cardinality label for err: the store error
// code when there is one, "canceled" or "timeout" for context errors, and
// "internal" otherwise.
func categorizeError(err error) string {
	var se *sso.Error
	switch {
	case errors.As(err, &se) && se.Code != "":
		return se.Code
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal"
	}
}
