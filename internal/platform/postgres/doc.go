// Package postgres provides PostgreSQL implementations of store.ItemStore and
// store.SnapshotStore on top of the pgx database/sql driver, together with
// the embedded goose migrations that create their schema.
package postgres
