// Package sso provides shared store objects: fine-grained reactive state
// containers built from a plain keyed record.
//
// A store partitions its descriptor once, at construction:
//
//   - Fields are the non-callable values. Each field has its own Channel with
//     a listener set, so a write notifies only the consumers of that field.
//   - Methods are the callable values. They run with subscription suppressed
//     and may receive the store as their first argument.
//   - Computed properties (WithComputed) are derived on every read and can
//     never be written.
//
// # Reading and writing
//
//	store := sso.MustNew(map[string]any{"count": 0})
//
//	store.Get("count")                                    // 0
//	store.Set("count", 1)                                 // notifies "count" listeners
//	store.Set("count", 1)                                 // equal value: no notification
//	store.Call("count", func(n int) int { return n + 1 }) // functional update
//	store.Call()                                          // revoke
//
// Writes pass through Equal, a structural equality oracle, and are dropped
// when nothing changed.
//
// # Subscriptions
//
// Hosting layers subscribe in two ways. Track runs a render function with a
// Listener installed, and every field it reads through Get subscribes that
// listener. Store.External returns the explicit (subscribe, getSnapshot) pair
// for a single field.
//
// # Notification hook
//
// Every notification pass goes through Config.Next, which receives the pass
// as a thunk together with the changed key and a copy of the state. The
// default runs the thunk immediately. Configure changes the process-wide
// default for stores created afterwards; Store.Configure and the
// Call(func() ...) form change a single store. Batcher is a ready-made hook
// that defers passes until the end of a batch.
//
// # Concurrency
//
// Stores are safe for concurrent use, but the method reentrancy depth is
// shared by the whole store: while any method body is running, field reads
// from other goroutines also skip subscription.
package sso
