package testutils

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/store"
	"github.com/stretchr/testify/require"
)

// MemoryItemStore is a thread-safe in-memory store.ItemStore.
type MemoryItemStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]domain.ItemRecord
	updates int
}

var _ store.ItemStore = (*MemoryItemStore)(nil)

// NewMemoryItemStore creates an empty store.
func NewMemoryItemStore() *MemoryItemStore {
	return &MemoryItemStore{records: make(map[uuid.UUID]domain.ItemRecord)}
}

// MustInsert inserts records and fails the test on error.
func (s *MemoryItemStore) MustInsert(t *testing.T, records ...domain.ItemRecord) {
	t.Helper()
	require.NoError(t, s.Insert(context.Background(), records))
}

// Get returns the stored record for id, bypassing context handling.
func (s *MemoryItemStore) Get(id uuid.UUID) (domain.ItemRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	return r, ok
}

// Delete removes a record, simulating an external deletion.
func (s *MemoryItemStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
}

// Updates returns how many successful Update calls the store has seen.
func (s *MemoryItemStore) Updates() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates
}

func (s *MemoryItemStore) FetchDue(ctx context.Context, asOf time.Time, limit int) ([]domain.ItemRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	var out []domain.ItemRecord
	for _, r := range s.records {
		if due, ok := r.NextDueAt.Time(); ok && !due.After(asOf) {
			out = append(out, r)
		}
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b domain.ItemRecord) int {
		at, _ := a.NextDueAt.Time()
		bt, _ := b.NextDueAt.Time()
		if c := at.Compare(bt); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return limitRecords(out, limit), nil
}

func (s *MemoryItemStore) FetchNew(ctx context.Context, limit int) ([]domain.ItemRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	var out []domain.ItemRecord
	for _, r := range s.records {
		if r.Status == domain.StatusNew && !r.NextDueAt.IsSet() {
			out = append(out, r)
		}
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b domain.ItemRecord) int {
		if a.Difficulty != b.Difficulty {
			return a.Difficulty - b.Difficulty
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return limitRecords(out, limit), nil
}

func (s *MemoryItemStore) FetchByID(ctx context.Context, id uuid.UUID) (domain.ItemRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ItemRecord{}, err
	}
	r, ok := s.Get(id)
	if !ok {
		return domain.ItemRecord{}, store.ErrItemNotFound
	}
	return r, nil
}

func (s *MemoryItemStore) Update(ctx context.Context, record domain.ItemRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return store.NewStoreError("item", "update", "invalid record", errors.Join(store.ErrInvalidEntity, err))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; !ok {
		return store.ErrItemNotFound
	}
	s.records[record.ID] = record
	s.updates++
	return nil
}

func (s *MemoryItemStore) Insert(ctx context.Context, records []domain.ItemRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if _, ok := s.records[r.ID]; ok {
			return store.ErrItemExists
		}
	}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return nil
}

func (s *MemoryItemStore) ResetAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.records {
		s.records[id] = r.Reset()
	}
	return nil
}

func limitRecords(records []domain.ItemRecord, limit int) []domain.ItemRecord {
	if limit >= 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}

// MemorySnapshotStore is a thread-safe in-memory store.SnapshotStore.
type MemorySnapshotStore struct {
	mu   sync.Mutex
	blob []byte
}

var _ store.SnapshotStore = (*MemorySnapshotStore)(nil)

// NewMemorySnapshotStore creates an empty snapshot store.
func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{}
}

func (s *MemorySnapshotStore) Save(ctx context.Context, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = bytes.Clone(blob)
	return nil
}

func (s *MemorySnapshotStore) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return bytes.Clone(s.blob), nil
}

func (s *MemorySnapshotStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = nil
	return nil
}
