// Package cache keeps an in-memory copy of item records in front of a
// store.ItemStore.
//
// RecordCache is a plain mutex-guarded map of record values. CachedItemStore
// decorates an ItemStore with it: reads populate the cache, writes go
// through to the backing store first and update the cache only on success.
package cache
