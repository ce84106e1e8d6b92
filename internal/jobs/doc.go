// Package jobs runs the daily maintenance work of the scheduler on a
// gocron scheduler: at local midnight a stale recovery snapshot is removed
// and the record cache is dropped so the new day's queue is loaded fresh.
package jobs
