package mocks

import (
	"context"

	"github.com/phrazzld/scry-vocab/internal/store"
	"github.com/stretchr/testify/mock"
)

// SnapshotStore is a testify mock of store.SnapshotStore.
type SnapshotStore struct {
	mock.Mock
}

var _ store.SnapshotStore = (*SnapshotStore)(nil)

// Save is a mock implementation of store.SnapshotStore.Save
func (m *SnapshotStore) Save(ctx context.Context, blob []byte) error {
	args := m.Called(ctx, blob)
	return args.Error(0)
}

// Load is a mock implementation of store.SnapshotStore.Load
func (m *SnapshotStore) Load(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	blob, _ := args.Get(0).([]byte)
	return blob, args.Error(1)
}

// Clear is a mock implementation of store.SnapshotStore.Clear
func (m *SnapshotStore) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
