package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/phrazzld/scry-vocab/internal/cache"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/mocks"
	"github.com/phrazzld/scry-vocab/internal/store"
	"github.com/phrazzld/scry-vocab/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCachedItemStoreReadThrough(t *testing.T) {
	ctx := context.Background()
	r := testutils.MustCreateItemForTest(t)

	backing := &mocks.ItemStore{}
	backing.On("FetchByID", mock.Anything, r.ID).Return(r, nil).Once()

	s := cache.NewCachedItemStore(backing, cache.NewRecordCache(), nil)

	got, err := s.FetchByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	// second read is served from the cache
	got, err = s.FetchByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	backing.AssertExpectations(t)
}

func TestCachedItemStoreFetchPopulates(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	due := testutils.MustCreateItemForTest(t, testutils.WithDueAt(now.Add(-time.Hour), 1))
	fresh := testutils.MustCreateItemForTest(t)

	backing := &mocks.ItemStore{}
	backing.On("FetchDue", mock.Anything, now, 50).Return([]domain.ItemRecord{due}, nil)
	backing.On("FetchNew", mock.Anything, 20).Return([]domain.ItemRecord{fresh}, nil)

	c := cache.NewRecordCache()
	s := cache.NewCachedItemStore(backing, c, nil)

	_, err := s.FetchDue(ctx, now, 50)
	require.NoError(t, err)
	_, err = s.FetchNew(ctx, 20)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Len())
	assert.Len(t, c.DueRecords(now), 1)
}

func TestCachedItemStoreWriteThrough(t *testing.T) {
	ctx := context.Background()
	r := testutils.MustCreateItemForTest(t)
	updated := r
	updated.ReviewCount = 1

	backing := &mocks.ItemStore{}
	backing.On("Insert", mock.Anything, []domain.ItemRecord{r}).Return(nil)
	backing.On("Update", mock.Anything, updated).Return(nil)

	c := cache.NewRecordCache()
	s := cache.NewCachedItemStore(backing, c, nil)

	require.NoError(t, s.Insert(ctx, []domain.ItemRecord{r}))
	cached, ok := c.Get(r.ID)
	require.True(t, ok)
	assert.Equal(t, 0, cached.ReviewCount)

	require.NoError(t, s.Update(ctx, updated))
	cached, _ = c.Get(r.ID)
	assert.Equal(t, 1, cached.ReviewCount)

	backing.AssertExpectations(t)
}

func TestCachedItemStoreFailedWriteLeavesCache(t *testing.T) {
	ctx := context.Background()
	r := testutils.MustCreateItemForTest(t)
	updated := r
	updated.ReviewCount = 3

	writeErr := store.NewStoreError("item", "update", "write failed", errors.New("connection reset"))
	backing := &mocks.ItemStore{}
	backing.On("Update", mock.Anything, updated).Return(writeErr)

	c := cache.NewRecordCache()
	c.Set(r)
	s := cache.NewCachedItemStore(backing, c, nil)

	err := s.Update(ctx, updated)
	assert.ErrorIs(t, err, writeErr)

	cached, ok := c.Get(r.ID)
	require.True(t, ok)
	assert.Equal(t, 0, cached.ReviewCount)
}

func TestCachedItemStoreEvictsMissing(t *testing.T) {
	ctx := context.Background()
	r := testutils.MustCreateItemForTest(t)

	backing := &mocks.ItemStore{}
	backing.On("Update", mock.Anything, r).Return(store.ErrItemNotFound)

	c := cache.NewRecordCache()
	c.Set(r)
	s := cache.NewCachedItemStore(backing, c, nil)

	assert.ErrorIs(t, s.Update(ctx, r), store.ErrNotFound)
	_, ok := c.Get(r.ID)
	assert.False(t, ok)
}

func TestCachedItemStoreRefreshBypassesCache(t *testing.T) {
	ctx := context.Background()
	stale := testutils.MustCreateItemForTest(t)
	current := stale
	current.ReviewCount = 3

	backing := &mocks.ItemStore{}
	backing.On("FetchByID", mock.Anything, stale.ID).Return(current, nil).Once()

	c := cache.NewRecordCache()
	c.Set(stale)
	s := cache.NewCachedItemStore(backing, c, nil)

	got, err := s.Refresh(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ReviewCount)

	cached, ok := c.Get(stale.ID)
	require.True(t, ok)
	assert.Equal(t, 3, cached.ReviewCount)
	backing.AssertExpectations(t)
}

func TestCachedItemStoreRefreshEvictsMissing(t *testing.T) {
	ctx := context.Background()
	r := testutils.MustCreateItemForTest(t)

	backing := &mocks.ItemStore{}
	backing.On("FetchByID", mock.Anything, r.ID).Return(domain.ItemRecord{}, store.ErrItemNotFound)

	c := cache.NewRecordCache()
	c.Set(r)
	s := cache.NewCachedItemStore(backing, c, nil)

	_, err := s.Refresh(ctx, r.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, ok := c.Get(r.ID)
	assert.False(t, ok)
}

func TestCachedItemStoreResetAll(t *testing.T) {
	ctx := context.Background()

	backing := &mocks.ItemStore{}
	backing.On("ResetAll", mock.Anything).Return(nil)

	c := cache.NewRecordCache()
	c.Set(testutils.MustCreateItemForTest(t))
	s := cache.NewCachedItemStore(backing, c, nil)

	require.NoError(t, s.ResetAll(ctx))
	assert.Zero(t, c.Len())
	assert.Same(t, c, s.Cache())
}
