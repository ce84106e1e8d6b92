package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/store"
)

// CachedItemStore decorates a store.ItemStore with a RecordCache.
type CachedItemStore struct {
	next   store.ItemStore
	cache  *RecordCache
	logger *slog.Logger
}

var _ store.ItemStore = (*CachedItemStore)(nil)

// NewCachedItemStore wraps next with cache. A nil logger uses the slog default.
func NewCachedItemStore(next store.ItemStore, cache *RecordCache, logger *slog.Logger) *CachedItemStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedItemStore{
		next:   next,
		cache:  cache,
		logger: logger.With(slog.String("component", "cached_item_store")),
	}
}

// Cache exposes the underlying record cache.
func (s *CachedItemStore) Cache() *RecordCache {
	return s.cache
}

// FetchDue always reads the backing store, which owns due-time ordering,
// and refreshes the cache with the result.
func (s *CachedItemStore) FetchDue(ctx context.Context, asOf time.Time, limit int) ([]domain.ItemRecord, error) {
	records, err := s.next.FetchDue(ctx, asOf, limit)
	if err != nil {
		return nil, err
	}
	s.cache.SetBatch(records)
	return records, nil
}

// FetchNew reads the backing store and refreshes the cache with the result.
func (s *CachedItemStore) FetchNew(ctx context.Context, limit int) ([]domain.ItemRecord, error) {
	records, err := s.next.FetchNew(ctx, limit)
	if err != nil {
		return nil, err
	}
	s.cache.SetBatch(records)
	return records, nil
}

// FetchByID serves from the cache and falls back to the backing store.
// A not-found answer from the store evicts any stale cached copy.
func (s *CachedItemStore) FetchByID(ctx context.Context, id uuid.UUID) (domain.ItemRecord, error) {
	if r, ok := s.cache.Get(id); ok {
		return r, nil
	}

	r, err := s.next.FetchByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			s.cache.Remove(id)
		}
		return domain.ItemRecord{}, err
	}
	s.cache.Set(r)
	return r, nil
}

// Refresh reads id from the backing store, bypassing the cache, and updates
// the cached copy with the result. A not-found answer evicts the cached copy.
func (s *CachedItemStore) Refresh(ctx context.Context, id uuid.UUID) (domain.ItemRecord, error) {
	r, err := s.next.FetchByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			s.cache.Remove(id)
		}
		return domain.ItemRecord{}, err
	}
	s.cache.Set(r)
	return r, nil
}

// Update writes through to the backing store and caches the record once the
// write succeeded.
func (s *CachedItemStore) Update(ctx context.Context, record domain.ItemRecord) error {
	if err := s.next.Update(ctx, record); err != nil {
		if store.IsNotFoundError(err) {
			s.cache.Remove(record.ID)
		}
		return err
	}
	if _, cached := s.cache.Get(record.ID); cached {
		s.logger.DebugContext(ctx, "replacing cached record, last write wins",
			slog.String("item_id", record.ID.String()))
	}
	s.cache.Set(record)
	return nil
}

// Insert writes through to the backing store and caches the inserted records.
func (s *CachedItemStore) Insert(ctx context.Context, records []domain.ItemRecord) error {
	if err := s.next.Insert(ctx, records); err != nil {
		return err
	}
	s.cache.SetBatch(records)
	return nil
}

// ResetAll resets the backing store and drops every cached record.
func (s *CachedItemStore) ResetAll(ctx context.Context) error {
	if err := s.next.ResetAll(ctx); err != nil {
		return err
	}
	s.cache.Clear()
	s.logger.InfoContext(ctx, "record cache cleared after reset")
	return nil
}
