// Package testutils provides testing helpers shared across packages:
// item record builders and thread-safe in-memory implementations of
// store.ItemStore and store.SnapshotStore.
//
//	items := testutils.NewMemoryItemStore()
//	items.MustInsert(t, testutils.MustCreateItemForTest(t, testutils.WithDifficulty(2)))
package testutils
