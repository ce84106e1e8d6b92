package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/scry-vocab/internal/cache"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCacheBasics(t *testing.T) {
	t.Parallel()

	c := cache.NewRecordCache()
	a := testutils.MustCreateItemForTest(t)
	b := testutils.MustCreateItemForTest(t)

	_, ok := c.Get(a.ID)
	assert.False(t, ok)

	c.Set(a)
	c.SetBatch([]domain.ItemRecord{b})
	assert.Equal(t, 2, c.Len())

	got, ok := c.Get(a.ID)
	require.True(t, ok)
	assert.Equal(t, a, got)

	c.Remove(a.ID)
	_, ok = c.Get(a.ID)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Zero(t, c.Len())
	assert.Empty(t, c.All())
}

func TestRecordCacheCopiesValues(t *testing.T) {
	t.Parallel()

	c := cache.NewRecordCache()
	q := domain.QualityCorrectDifficult
	r := testutils.MustCreateItemForTest(t)
	r.LastQuality = &q
	c.Set(r)

	// mutating the caller's copy leaves the cache untouched
	*r.LastQuality = domain.QualityBlackout
	r.Term = "changed"

	got, _ := c.Get(r.ID)
	assert.Equal(t, domain.QualityCorrectDifficult, *got.LastQuality)
	assert.NotEqual(t, "changed", got.Term)

	*got.LastQuality = domain.QualityPerfect
	again, _ := c.Get(r.ID)
	assert.Equal(t, domain.QualityCorrectDifficult, *again.LastQuality)
}

func TestRecordCacheDueRecords(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	c := cache.NewRecordCache()

	late := testutils.MustCreateItemForTest(t, testutils.WithDueAt(now.Add(-time.Hour), 2))
	early := testutils.MustCreateItemForTest(t, testutils.WithDueAt(now.Add(-48*time.Hour), 2))
	exact := testutils.MustCreateItemForTest(t, testutils.WithDueAt(now, 2))
	future := testutils.MustCreateItemForTest(t, testutils.WithDueAt(now.Add(time.Minute), 2))
	fresh := testutils.MustCreateItemForTest(t)

	c.SetBatch([]domain.ItemRecord{late, early, exact, future, fresh})

	due := c.DueRecords(now)
	require.Len(t, due, 3)
	assert.Equal(t, early.ID, due[0].ID)
	assert.Equal(t, late.ID, due[1].ID)
	assert.Equal(t, exact.ID, due[2].ID)
}

func TestRecordCacheConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := cache.NewRecordCache()
	now := time.Now()
	records := make([]domain.ItemRecord, 50)
	for i := range records {
		records[i] = testutils.MustCreateItemForTest(t, testutils.WithDueAt(now.Add(-time.Minute), 1))
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i, r := range records {
				switch (i + w) % 4 {
				case 0:
					c.Set(r)
				case 1:
					c.Get(r.ID)
				case 2:
					c.DueRecords(now)
				default:
					c.All()
				}
			}
		}(w)
	}
	wg.Wait()

	c.SetBatch(records)
	assert.Equal(t, len(records), c.Len())
	assert.Len(t, c.DueRecords(now), len(records))
}
