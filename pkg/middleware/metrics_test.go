package middleware

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/vango-dev/sso/pkg/sso"
)

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func newInstrumentedStore(t *testing.T, instr sso.Instrumentation) *sso.Store {
	t.Helper()
	store, err := sso.New(map[string]any{
		"count": 0,
		"inc": func(s *sso.Store) error {
			return sso.Modify(s, "count", func(n int) int { return n + 1 })
		},
		"fail": func() error { return errors.New("boom") },
		"bad": func(s *sso.Store) error {
			return s.Set("inc", 1)
		},
	}, sso.WithName("s"), sso.WithInstrumentation(instr))
	if err != nil {
		t.Fatalf("sso.New: %v", err)
	}
	return store
}

func TestPrometheus_RecordsStoreEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(WithRegistry(reg))
	store := newInstrumentedStore(t, m)

	ch, err := store.Channel("count")
	if err != nil {
		t.Fatal(err)
	}
	ch.Subscribe(func() {})

	_ = store.Set("count", 1)
	_ = store.Set("count", 1)
	if _, err := store.Invoke("inc"); err != nil {
		t.Fatalf("Invoke(inc): %v", err)
	}
	_, _ = store.Invoke("fail")
	_, _ = store.Invoke("bad")
	_ = store.Revoke()

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"writes_total", m.writesTotal.WithLabelValues("s", "count"), 2},
		{"writes_suppressed_total", m.writesSuppressed.WithLabelValues("s", "count"), 1},
		{"notifications_total", m.notifications.WithLabelValues("s", "count"), 2},
		{"listeners_notified_total", m.listenersReached.WithLabelValues("s", "count"), 2},
		{"method_calls_total(inc,success)", m.methodCalls.WithLabelValues("s", "inc", "success"), 1},
		{"method_calls_total(fail,error)", m.methodCalls.WithLabelValues("s", "fail", "error"), 1},
		{"method_errors_total(fail,internal)", m.methodErrors.WithLabelValues("s", "fail", "internal"), 1},
		{"method_errors_total(bad,S004)", m.methodErrors.WithLabelValues("s", "bad", "S004"), 1},
		{"revocations_total", m.revocations.WithLabelValues("s"), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := testutil.ToFloat64(tt.c); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	if got := metricHistogramCount(t, m.notifyDuration.WithLabelValues("s")); got != 2 {
		t.Errorf("notify_duration_seconds count = %d, want 2", got)
	}
	if got := metricHistogramCount(t, m.methodDuration.WithLabelValues("s", "inc")); got != 1 {
		t.Errorf("method_duration_seconds(inc) count = %d, want 1", got)
	}
}

func TestPrometheus_WithoutPerKey(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := Prometheus(WithRegistry(reg), WithPerKey(false), WithNamespace("app"))
	store := newInstrumentedStore(t, m)

	_ = store.Set("count", 1)
	_ = store.Set("count", 2)

	if got := testutil.ToFloat64(m.writesTotal.WithLabelValues("s")); got != 2 {
		t.Errorf("writes_total = %v, want 2", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "app_writes_total" {
			found = true
			for _, metric := range f.GetMetric() {
				if len(metric.GetLabel()) != 1 {
					t.Errorf("labels = %v, want store only", metric.GetLabel())
				}
			}
		}
	}
	if !found {
		t.Error("app_writes_total not registered")
	}
}

func TestPrometheus_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	_ = Prometheus(WithRegistry(reg))

	defer func() {
		if recover() == nil {
			t.Error("expected second registration on the same registry to panic")
		}
	}()
	_ = Prometheus(WithRegistry(reg))
}

func TestCategorizeError(t *testing.T) {
	store := sso.MustNew(map[string]any{"m": func() {}})
	methodWrite := store.Set("m", 1)

	tests := []struct {
		err  error
		want string
	}{
		{methodWrite, "S004"},
		{fmt.Errorf("save: %w", methodWrite), "S004"},
		{context.Canceled, "canceled"},
		{fmt.Errorf("fetch: %w", context.DeadlineExceeded), "timeout"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := categorizeError(tt.err); got != tt.want {
			t.Errorf("categorizeError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
