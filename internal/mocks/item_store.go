package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/store"
	"github.com/stretchr/testify/mock"
)

// ItemStore is a testify mock of store.ItemStore.
type ItemStore struct {
	mock.Mock
}

var _ store.ItemStore = (*ItemStore)(nil)

// FetchDue is a mock implementation of store.ItemStore.FetchDue
func (m *ItemStore) FetchDue(ctx context.Context, asOf time.Time, limit int) ([]domain.ItemRecord, error) {
	args := m.Called(ctx, asOf, limit)
	records, _ := args.Get(0).([]domain.ItemRecord)
	return records, args.Error(1)
}

// FetchNew is a mock implementation of store.ItemStore.FetchNew
func (m *ItemStore) FetchNew(ctx context.Context, limit int) ([]domain.ItemRecord, error) {
	args := m.Called(ctx, limit)
	records, _ := args.Get(0).([]domain.ItemRecord)
	return records, args.Error(1)
}

// FetchByID is a mock implementation of store.ItemStore.FetchByID
func (m *ItemStore) FetchByID(ctx context.Context, id uuid.UUID) (domain.ItemRecord, error) {
	args := m.Called(ctx, id)
	record, _ := args.Get(0).(domain.ItemRecord)
	return record, args.Error(1)
}

// Update is a mock implementation of store.ItemStore.Update
func (m *ItemStore) Update(ctx context.Context, record domain.ItemRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

// Insert is a mock implementation of store.ItemStore.Insert
func (m *ItemStore) Insert(ctx context.Context, records []domain.ItemRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

// ResetAll is a mock implementation of store.ItemStore.ResetAll
func (m *ItemStore) ResetAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
