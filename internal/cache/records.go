package cache

import (
	"bytes"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
)

// RecordCache holds item records keyed by id. Every operation takes the same
// mutex, and records are values, so callers never share state with the cache.
type RecordCache struct {
	mu      sync.Mutex
	records map[uuid.UUID]domain.ItemRecord
}

// NewRecordCache creates an empty cache.
func NewRecordCache() *RecordCache {
	return &RecordCache{records: make(map[uuid.UUID]domain.ItemRecord)}
}

// Get returns the cached record for id.
func (c *RecordCache) Get(id uuid.UUID) (domain.ItemRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.records[id]
	return cloneRecord(r), ok
}

// Set stores or replaces one record.
func (c *RecordCache) Set(r domain.ItemRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[r.ID] = cloneRecord(r)
}

// SetBatch stores or replaces several records under a single lock.
func (c *RecordCache) SetBatch(records []domain.ItemRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range records {
		c.records[r.ID] = cloneRecord(r)
	}
}

// Remove evicts the record for id, if any.
func (c *RecordCache) Remove(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, id)
}

// Clear evicts every record.
func (c *RecordCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.records)
}

// Len returns the number of cached records.
func (c *RecordCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// All returns a copy of every cached record ordered by id.
func (c *RecordCache) All() []domain.ItemRecord {
	c.mu.Lock()
	out := make([]domain.ItemRecord, 0, len(c.records))
	for _, r := range c.records {
		out = append(out, cloneRecord(r))
	}
	c.mu.Unlock()

	slices.SortFunc(out, func(a, b domain.ItemRecord) int {
		return compareIDs(a.ID, b.ID)
	})
	return out
}

// DueRecords returns the cached records that are scheduled and due at now,
// ordered by ascending due time.
func (c *RecordCache) DueRecords(now time.Time) []domain.ItemRecord {
	c.mu.Lock()
	var out []domain.ItemRecord
	for _, r := range c.records {
		due, ok := r.NextDueAt.Time()
		if ok && !due.After(now) {
			out = append(out, cloneRecord(r))
		}
	}
	c.mu.Unlock()

	slices.SortFunc(out, func(a, b domain.ItemRecord) int {
		at, _ := a.NextDueAt.Time()
		bt, _ := b.NextDueAt.Time()
		if c := at.Compare(bt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return out
}

func compareIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}

// cloneRecord detaches the only pointer field of a record.
func cloneRecord(r domain.ItemRecord) domain.ItemRecord {
	if r.LastQuality != nil {
		q := *r.LastQuality
		r.LastQuality = &q
	}
	return r
}
