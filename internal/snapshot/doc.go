// Package snapshot captures an in-progress study session as a versioned
// JSON blob and restores it after an interruption.
//
// A snapshot is only offered for restoration within its recovery window
// (see Policy). Restoring re-checks every queued id against the item store
// and silently drops ids that no longer exist.
package snapshot
