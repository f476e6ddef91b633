package sso

import (
	"strings"
	"testing"
)

func TestBatcherDefersUntilOutermost(t *testing.T) {
	b := NewBatcher()
	store := MustNew(map[string]any{"first": "", "last": ""}, WithConfig(Config{Next: b.Next}))

	var order []string
	mustChannel(t, store, "first").Subscribe(func() { order = append(order, "first") })
	mustChannel(t, store, "last").Subscribe(func() { order = append(order, "last") })

	b.Batch(func() {
		_ = store.Set("first", "John")
		b.Batch(func() {
			_ = store.Set("last", "Doe")
		})
		if b.Pending() != 2 {
			t.Errorf("Pending() inside batch = %d, want 2", b.Pending())
		}
		if len(order) != 0 {
			t.Errorf("listeners ran inside batch: %v", order)
		}
	})

	if got := strings.Join(order, ","); got != "first,last" {
		t.Errorf("order = %q, want %q", got, "first,last")
	}
	if b.Pending() != 0 {
		t.Errorf("Pending() after batch = %d, want 0", b.Pending())
	}

	_ = store.Set("first", "Jane")
	if len(order) != 3 {
		t.Errorf("write outside batch should notify immediately, got %v", order)
	}
}

func TestBatcherFlushesOnPanic(t *testing.T) {
	b := NewBatcher()
	store := MustNew(map[string]any{"v": 0}, WithConfig(Config{Next: b.Next}))
	calls := 0
	mustChannel(t, store, "v").Subscribe(func() { calls++ })

	func() {
		defer func() { _ = recover() }()
		b.Batch(func() {
			_ = store.Set("v", 1)
			panic("boom")
		})
	}()

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestBatcherSuppressedWritesQueueNothing(t *testing.T) {
	b := NewBatcher()
	store := MustNew(map[string]any{"v": 0}, WithConfig(Config{Next: b.Next}))

	b.Batch(func() {
		_ = store.Set("v", 0)
		if b.Pending() != 0 {
			t.Errorf("equal write queued a pass")
		}
	})
}
