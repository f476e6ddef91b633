package sso

import "sync"

// Batcher is a NextFunc provider that defers notifications while a batch is
// open. Install it globally or per store, then group writes with Batch:
//
//	b := sso.NewBatcher()
//	store, _ := sso.New(fields, sso.WithConfig(sso.Config{Next: b.Next}))
//
//	b.Batch(func() {
//	    store.Set("first", "John")
//	    store.Set("last", "Doe")
//	})
//	// Listeners run here, once per write, in write order.
//
// Batches can be nested. Notifications only fire when the outermost batch
// completes.
type Batcher struct {
	mu      sync.Mutex
	depth   int
	pending []func()
}

// NewBatcher creates a Batcher with no open batch.
func NewBatcher() *Batcher {
	return &Batcher{}
}

// Next runs iterate immediately, or queues it if a batch is open.
func (b *Batcher) Next(iterate func(), _ string, _ map[string]any) {
	b.mu.Lock()
	if b.depth > 0 {
		b.pending = append(b.pending, iterate)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()

	iterate()
}

// Batch runs fn with notifications deferred, then flushes the queue.
// The queue is flushed even if fn panics.
func (b *Batcher) Batch(fn func()) {
	b.mu.Lock()
	b.depth++
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		b.depth--
		var pending []func()
		if b.depth == 0 {
			pending = b.pending
			b.pending = nil
		}
		b.mu.Unlock()

		for _, iterate := range pending {
			iterate()
		}
	}()

	fn()
}

// Pending returns the number of queued notification passes.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
