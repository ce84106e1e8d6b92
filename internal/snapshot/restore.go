package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/domain/queue"
	"github.com/phrazzld/scry-vocab/internal/store"
)

// Fetcher looks up item records by id. store.ItemStore satisfies it.
type Fetcher interface {
	FetchByID(ctx context.Context, id uuid.UUID) (domain.ItemRecord, error)
}

// Restore decodes blob and rebuilds its session at now.
//
// It returns ErrInvalidSnapshot for undecodable blobs and ErrRecoveryExpired
// when the policy window has passed. Ids the fetcher reports as not found
// are dropped with the order of the rest preserved; the cursor moves back by
// the number of dropped ids that preceded it, so it keeps pointing at the
// same item. Any other fetch error is returned as is.
func Restore(ctx context.Context, blob []byte, policy Policy, fetcher Fetcher, now time.Time) (queue.Session, error) {
	snap, err := Decode(blob)
	if err != nil {
		return queue.Session{}, err
	}
	if policy.Expired(snap.TakenAt, now) {
		return queue.Session{}, fmt.Errorf("%w: taken at %s, expired at %s",
			ErrRecoveryExpired,
			snap.TakenAt.Format(time.RFC3339),
			policy.ExpiresAt(snap.TakenAt).Format(time.RFC3339))
	}

	session := snap.Session()
	kept := make(queue.Queue, 0, len(session.Queue))
	cursor := session.Cursor
	for i, id := range session.Queue {
		if _, err := fetcher.FetchByID(ctx, id); err != nil {
			if store.IsNotFoundError(err) {
				if i < session.Cursor {
					cursor--
				}
				continue
			}
			return queue.Session{}, fmt.Errorf("failed to rehydrate snapshot item %s: %w", id, err)
		}
		kept = append(kept, id)
	}

	session.Queue = kept
	session.Cursor = cursor
	return session, nil
}
