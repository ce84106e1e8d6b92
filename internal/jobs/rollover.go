package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scry-vocab/internal/cache"
	"github.com/phrazzld/scry-vocab/internal/snapshot"
	"github.com/phrazzld/scry-vocab/internal/store"
)

// Rollover performs the day-boundary maintenance.
type Rollover struct {
	snapshots store.SnapshotStore
	cache     *cache.RecordCache
	policy    snapshot.Policy
	now       func() time.Time
	logger    *slog.Logger
}

// RolloverResult reports what a run did.
type RolloverResult struct {
	SnapshotCleared bool
	CacheEvicted    int
}

// NewRollover creates the rollover job. recordCache may be nil when the item
// store is not cached.
func NewRollover(
	snapshots store.SnapshotStore,
	recordCache *cache.RecordCache,
	policy snapshot.Policy,
	logger *slog.Logger,
) *Rollover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Rollover{
		snapshots: snapshots,
		cache:     recordCache,
		policy:    policy,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "rollover_job")),
	}
}

// Run clears an expired or unreadable snapshot and empties the record cache.
// A snapshot that is still within its recovery window is kept.
func (r *Rollover) Run(ctx context.Context) (RolloverResult, error) {
	var result RolloverResult

	if r.cache != nil {
		result.CacheEvicted = r.cache.Len()
		r.cache.Clear()
	}

	blob, err := r.snapshots.Load(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if blob == nil {
		return result, nil
	}

	snap, err := snapshot.Decode(blob)
	if err != nil {
		r.logger.Warn("discarding unreadable snapshot", slog.String("error", err.Error()))
	} else if !r.policy.Expired(snap.TakenAt, r.now()) {
		return result, nil
	}

	if err := r.snapshots.Clear(ctx); err != nil {
		return result, fmt.Errorf("failed to clear snapshot: %w", err)
	}
	result.SnapshotCleared = true
	return result, nil
}
