package sso

import (
	"sync"
	"sync/atomic"
)

// Listener is anything that can be notified when a field changes.
// Hosting layers implement it for render units; ListenerFunc adapts a plain
// callback.
type Listener interface {
	// MarkDirty notifies the listener that a field it read has changed.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Listener sets deduplicate by ID.
	ID() uint64
}

// idCounter generates listener and store identifiers.
var idCounter uint64

func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}

// funcListener adapts a callback to the Listener interface.
type funcListener struct {
	id uint64
	fn func()
}

func (l *funcListener) MarkDirty() { l.fn() }
func (l *funcListener) ID() uint64 { return l.id }

// ListenerFunc wraps fn in a Listener with a fresh ID.
// Go funcs are not comparable, so every call produces a distinct
// registration; keep the returned Listener to subscribe it idempotently.
func ListenerFunc(fn func()) Listener {
	return &funcListener{id: nextID(), fn: fn}
}

// listenerSet is a set of listeners keyed by ID.
type listenerSet struct {
	// subs are the registered listeners in registration order.
	subs []Listener

	// mu protects subs.
	mu sync.RWMutex
}

// add registers l. Adding a listener whose ID is already present is a no-op.
func (s *listenerSet) add(l Listener) {
	if l == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lid := l.ID()
	for _, existing := range s.subs {
		if existing.ID() == lid {
			return
		}
	}

	s.subs = append(s.subs, l)
}

// remove unregisters l, preserving the order of the remaining listeners.
func (s *listenerSet) remove(l Listener) {
	if l == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lid := l.ID()
	for i, existing := range s.subs {
		if existing.ID() == lid {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// snapshot returns a copy of the current listeners.
// Notification iterates the copy so listeners may (un)subscribe mid-pass.
func (s *listenerSet) snapshot() []Listener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subs := make([]Listener, len(s.subs))
	copy(subs, s.subs)
	return subs
}

func (s *listenerSet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

func (s *listenerSet) clear() {
	s.mu.Lock()
	s.subs = nil
	s.mu.Unlock()
}
