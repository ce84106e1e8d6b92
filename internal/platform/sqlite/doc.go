// Package sqlite provides a single-file store.ItemStore and
// store.SnapshotStore for local use, built on sqlx and the cgo-free
// modernc.org/sqlite driver. Timestamps are stored as unix milliseconds.
package sqlite
