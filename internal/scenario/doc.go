// Package scenario runs scripted store scenarios.
//
// A scenario (see internal/config) builds a store from its fields and
// computed expressions, then runs its steps in order, writing one trace line
// per step and per listener notification:
//
//	[3f2a9c1e] profile #1 subscribe count <- view ok
//	[3f2a9c1e]   notify view
//	[3f2a9c1e] profile #2 set count = 2 ok
//	[3f2a9c1e] profile #3 get b = 4 ok
//
// Notifications are traced as they happen, before the line of the step that
// caused them.
//
// Failed expectations are collected in the Result rather than aborting the
// run, so one run reports every mismatch.
package scenario
