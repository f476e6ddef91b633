package sso

import (
	"runtime"
	"sync"
)

// trackingContext holds the observer state for a goroutine.
type trackingContext struct {
	// currentListener is what's currently tracking field reads.
	// nil means reads don't create subscriptions.
	currentListener Listener
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine,
// parsed from the "goroutine <id> " header of the runtime stack.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// currentListener returns the listener tracking reads on this goroutine.
func currentListener() Listener {
	if ctx, ok := trackingContexts.Load(getGoroutineID()); ok {
		return ctx.(*trackingContext).currentListener
	}
	return nil
}

// setCurrentListener installs l for this goroutine and returns the previous
// listener so it can be restored.
func setCurrentListener(l Listener) Listener {
	gid := getGoroutineID()
	var old Listener
	if ctx, ok := trackingContexts.Load(gid); ok {
		old = ctx.(*trackingContext).currentListener
	}
	if l == nil {
		trackingContexts.Delete(gid)
	} else {
		trackingContexts.Store(gid, &trackingContext{currentListener: l})
	}
	return old
}

// Track runs fn with l as the current listener. Every field read through
// Store.Get inside fn (outside method bodies) subscribes l to that field.
//
// This is how a hosting UI layer ties a render pass to the fields it reads:
//
//	sso.Track(component, func() {
//	    count, _ := store.Get("count") // component now re-renders on change
//	    render(count)
//	})
func Track(l Listener, fn func()) {
	old := setCurrentListener(l)
	defer setCurrentListener(old)
	fn()
}

// Untracked runs fn without subscribing the current listener to any reads.
func Untracked(fn func()) {
	old := setCurrentListener(nil)
	defer setCurrentListener(old)
	fn()
}
