package ssotest

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/vango-dev/sso/pkg/sso"
)

// recorderIDs are kept clear of the IDs sso assigns by starting high.
var recorderIDs atomic.Uint64

func init() {
	recorderIDs.Store(1 << 62)
}

// StoreBuilder allows fluent construction of test stores.
type StoreBuilder struct {
	fields   map[string]any
	computed map[string]sso.Computed
	opts     []sso.Option
}

// NewStore creates a new store builder for testing.
//
// Example:
//
//	store := ssotest.NewStore().
//	    WithField("name", "ada").
//	    WithComputed("greeting", func(s *sso.Store) any { ... }).
//	    Build(t)
func NewStore() *StoreBuilder {
	return &StoreBuilder{
		fields:   make(map[string]any),
		computed: make(map[string]sso.Computed),
	}
}

// WithField adds a data field.
func (b *StoreBuilder) WithField(key string, value any) *StoreBuilder {
	b.fields[key] = value
	return b
}

// WithMethod adds a method. fn must be a non-nil func.
func (b *StoreBuilder) WithMethod(key string, fn any) *StoreBuilder {
	b.fields[key] = fn
	return b
}

// WithComputed adds a computed property.
func (b *StoreBuilder) WithComputed(key string, fn sso.Computed) *StoreBuilder {
	b.computed[key] = fn
	return b
}

// WithOption passes an option to sso.New.
func (b *StoreBuilder) WithOption(opt sso.Option) *StoreBuilder {
	b.opts = append(b.opts, opt)
	return b
}

// Build creates the store, failing the test if construction fails.
// The store is revoked when the test ends.
func (b *StoreBuilder) Build(t testing.TB) *sso.Store {
	t.Helper()
	opts := append([]sso.Option{sso.WithComputed(b.computed)}, b.opts...)
	store, err := sso.New(b.fields, opts...)
	if err != nil {
		t.Fatalf("ssotest: building store: %v", err)
	}
	t.Cleanup(func() {
		if !store.Revoked() {
			_ = store.Revoke()
		}
	})
	return store
}

// Recorder is a Listener that counts its notifications.
type Recorder struct {
	id    uint64
	mu    sync.Mutex
	count int
}

// NewRecorder creates a Recorder with a fresh ID.
func NewRecorder() *Recorder {
	return &Recorder{id: recorderIDs.Add(1)}
}

// ID implements sso.Listener.
func (r *Recorder) ID() uint64 { return r.id }

// MarkDirty implements sso.Listener.
func (r *Recorder) MarkDirty() {
	r.mu.Lock()
	r.count++
	r.mu.Unlock()
}

// Count returns the number of notifications received.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Reset sets the count back to zero.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.count = 0
	r.mu.Unlock()
}

// Watch subscribes a new Recorder to key for the duration of the test.
func Watch(t testing.TB, store *sso.Store, key string) *Recorder {
	t.Helper()
	ch, err := store.Channel(key)
	if err != nil {
		t.Fatalf("ssotest: watching %q: %v", key, err)
	}
	rec := NewRecorder()
	t.Cleanup(ch.SubscribeListener(rec))
	return rec
}

// ExpectValue asserts that key currently holds want, using sso.Equal.
//
// Example:
//
//	ssotest.ExpectValue(t, store, "items", []string{"a"})
func ExpectValue(t testing.TB, store *sso.Store, key string, want any) {
	t.Helper()
	got, err := store.Get(key)
	if err != nil {
		t.Errorf("reading %q: %v", key, err)
		return
	}
	if !sso.Equal(got, want) {
		t.Errorf("%q = %#v, want %#v", key, got, want)
	}
}

// ExpectNotified asserts that rec has been notified exactly n times.
func ExpectNotified(t testing.TB, rec *Recorder, n int) {
	t.Helper()
	if got := rec.Count(); got != n {
		t.Errorf("listener notified %d times, want %d", got, n)
	}
}

// ExpectSubscribed asserts that key has exactly n listeners.
func ExpectSubscribed(t testing.TB, store *sso.Store, key string, n int) {
	t.Helper()
	ch, err := store.Channel(key)
	if err != nil {
		t.Errorf("channel %q: %v", key, err)
		return
	}
	if got := ch.Listeners(); got != n {
		t.Errorf("%q has %d listeners, want %d", key, got, n)
	}
}

// ExpectError asserts that err matches target with errors.Is.
//
// Example:
//
//	ssotest.ExpectError(t, store.Set("inc", 1), sso.ErrMethodWrite)
func ExpectError(t testing.TB, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Errorf("error = %v, want %v", err, target)
	}
}
