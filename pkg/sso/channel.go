package sso

import (
	"maps"
	"sync"
	"time"
	"unsafe"
)

// Channel is the subscription unit backing one data field of a store.
// It owns the field's listener set; the value itself lives in the store's
// backing record.
type Channel struct {
	key       string
	store     *Store
	listeners listenerSet

	// funcs maps the identity of each callback registered through Subscribe
	// to its listener, so the same func value is held at most once.
	funcs   map[uintptr]*funcListener
	funcsMu sync.Mutex
}

// Key returns the field name.
func (c *Channel) Key() string {
	return c.key
}

// Read returns the field's current value without subscribing.
// After revocation it keeps returning the last value written.
func (c *Channel) Read() any {
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	return c.store.data[c.key]
}

// Subscribe registers onChange and returns a function that unregisters it.
// Registrations are a set: subscribing the same func value again reuses the
// existing entry, and any of the returned functions removes it. A literal
// that captures variables yields a distinct entry each time it is evaluated.
func (c *Channel) Subscribe(onChange func()) (unsubscribe func()) {
	if onChange == nil || c.store.revoked.Load() {
		return func() {}
	}
	id := funcIdentity(onChange)

	c.funcsMu.Lock()
	l, ok := c.funcs[id]
	if !ok {
		l = &funcListener{id: nextID(), fn: onChange}
		if c.funcs == nil {
			c.funcs = make(map[uintptr]*funcListener)
		}
		c.funcs[id] = l
	}
	c.funcsMu.Unlock()

	remove := c.SubscribeListener(l)
	return func() {
		remove()
		c.funcsMu.Lock()
		if c.funcs[id] == l {
			delete(c.funcs, id)
		}
		c.funcsMu.Unlock()
	}
}

// SubscribeListener registers l. Registering a listener with an ID that is
// already present is a no-op, and the returned function removes it either way.
// On a revoked store nothing is registered.
func (c *Channel) SubscribeListener(l Listener) (unsubscribe func()) {
	if c.store.revoked.Load() {
		return func() {}
	}
	c.listeners.add(l)
	if c.store.revoked.Load() {
		// Lost a race with Revoke, which has already cleared the set.
		c.listeners.remove(l)
		return func() {}
	}
	return func() {
		c.listeners.remove(l)
	}
}

// Listeners returns the number of registered listeners.
func (c *Channel) Listeners() int {
	return c.listeners.len()
}

// release drops every registration. Called once on revocation.
func (c *Channel) release() {
	c.listeners.clear()
	c.funcsMu.Lock()
	c.funcs = nil
	c.funcsMu.Unlock()
}

// funcIdentity returns the address of fn's closure record. Two func values
// share it when one was copied from the other, or when both come from the
// same top-level function or the same literal capturing nothing.
func funcIdentity(fn func()) uintptr {
	return uintptr(*(*unsafe.Pointer)(unsafe.Pointer(&fn)))
}

// track reads the value and subscribes the goroutine's current listener.
func (c *Channel) track() any {
	if l := currentListener(); l != nil {
		c.listeners.add(l)
	}
	return c.Read()
}

// write replaces the value unless it is equal to the current one, then hands
// the notification pass to the store's NextFunc.
func (c *Channel) write(v any) {
	s := c.store

	s.mu.Lock()
	if s.equal(v, s.data[c.key]) {
		s.mu.Unlock()
		s.instr.WriteSuppressed(s.name, c.key)
		s.logger.Debug("write suppressed", "key", c.key)
		return
	}
	s.data[c.key] = v
	state := maps.Clone(s.data)
	next := s.cfg.Next
	s.mu.Unlock()

	s.instr.FieldWritten(s.name, c.key)
	s.logger.Debug("field written", "key", c.key)
	next(c.notify, c.key, state)
}

// notify invokes a snapshot of the current listeners. Listeners added during
// the pass are not called until the next one.
func (c *Channel) notify() {
	subs := c.listeners.snapshot()
	start := time.Now()
	for _, l := range subs {
		l.MarkDirty()
	}
	c.store.instr.Notified(c.store.name, c.key, len(subs), time.Since(start))
}
