// Package ssotest provides testing helpers for code built on stores.
//
// The ssotest package reduces boilerplate when testing components that read
// and write a store, by providing a fluent store builder, a recording
// listener, and assertions.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    store := ssotest.NewStore().
//	        WithField("count", 0).
//	        WithMethod("inc", func(s *sso.Store) error {
//	            return sso.Modify(s, "count", func(n int) int { return n + 1 })
//	        }).
//	        Build(t)
//
//	    rec := ssotest.Watch(t, store, "count")
//	    store.Invoke("inc")
//
//	    ssotest.ExpectValue(t, store, "count", 1)
//	    ssotest.ExpectNotified(t, rec, 1)
//	}
//
// # Recording Listeners
//
// A Recorder counts notifications. Use it with sso.Track to check which
// fields a render function subscribes to:
//
//	rec := ssotest.NewRecorder()
//	sso.Track(rec, func() { render(store) })
//	ssotest.ExpectSubscribed(t, store, "count", 1)
package ssotest
