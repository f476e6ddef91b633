package sso

import (
	"sync"
	"testing"
)

func TestListenerSetOrder(t *testing.T) {
	var s listenerSet
	a, b, c := newCounter(), newCounter(), newCounter()
	s.add(a)
	s.add(b)
	s.add(c)
	s.add(b)
	s.add(nil)

	if s.len() != 3 {
		t.Fatalf("len = %d, want 3", s.len())
	}

	s.remove(b)
	subs := s.snapshot()
	if len(subs) != 2 || subs[0].ID() != a.ID() || subs[1].ID() != c.ID() {
		t.Errorf("remove should preserve order, got %v", subs)
	}

	s.clear()
	if s.len() != 0 {
		t.Errorf("len after clear = %d", s.len())
	}
}

func TestListenerFuncDistinctIDs(t *testing.T) {
	fn := func() {}
	if ListenerFunc(fn).ID() == ListenerFunc(fn).ID() {
		t.Error("ListenerFunc should assign a fresh ID per call")
	}
}

func TestTrackIsPerGoroutine(t *testing.T) {
	store := MustNew(map[string]any{"v": 0})
	ch := mustChannel(t, store, "v")
	l := newCounter()

	Track(l, func() {
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Get("v")
		}()
		wg.Wait()
	})
	if ch.Listeners() != 0 {
		t.Errorf("read on another goroutine subscribed %d listeners", ch.Listeners())
	}

	if currentListener() != nil {
		t.Error("Track should restore the previous listener")
	}
}

func TestTrackNested(t *testing.T) {
	outer, inner := newCounter(), newCounter()
	Track(outer, func() {
		Track(inner, func() {
			if currentListener().ID() != inner.ID() {
				t.Error("inner listener not installed")
			}
		})
		if currentListener().ID() != outer.ID() {
			t.Error("outer listener not restored")
		}
	})
}
