package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
)

// ItemStore defines the interface for item record persistence.
//
// Records are plain values: implementations copy them in and out and never
// hand out shared state. Concurrent updates of the same record are
// last-write-wins.
type ItemStore interface {
	// FetchDue returns up to limit scheduled records whose next due time is
	// not after asOf, ordered by ascending due time. Records that were never
	// scheduled are not returned; they are fetched by FetchNew.
	FetchDue(ctx context.Context, asOf time.Time, limit int) ([]domain.ItemRecord, error)

	// FetchNew returns up to limit never-scheduled records with StatusNew,
	// ordered by ascending difficulty then id.
	FetchNew(ctx context.Context, limit int) ([]domain.ItemRecord, error)

	// FetchByID retrieves a record by its id.
	// Returns ErrItemNotFound if the record does not exist.
	FetchByID(ctx context.Context, id uuid.UUID) (domain.ItemRecord, error)

	// Update replaces the learning state of an existing record.
	// Returns ErrItemNotFound if the record does not exist and
	// ErrInvalidEntity if it fails validation.
	Update(ctx context.Context, record domain.ItemRecord) error

	// Insert adds records to the store atomically: either every record is
	// stored or none is. Returns ErrDuplicate if an id already exists.
	Insert(ctx context.Context, records []domain.ItemRecord) error

	// ResetAll returns every record to its canonical new state, keeping ids
	// and content.
	ResetAll(ctx context.Context) error
}

// SnapshotStore persists the single progress snapshot of an interrupted
// study session as an opaque blob.
type SnapshotStore interface {
	// Save replaces the stored snapshot.
	Save(ctx context.Context, blob []byte) error

	// Load returns the stored snapshot, or nil and no error when there is none.
	Load(ctx context.Context) ([]byte, error)

	// Clear removes the stored snapshot. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
