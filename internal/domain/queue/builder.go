// Package queue builds the ordered list of items for a day's study session
// and tracks a session's progress through it.
package queue

import (
	"bytes"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
)

// Queue is an ordered, immutable-once-built sequence of item ids.
type Queue []uuid.UUID

// Caps bounds how many items of each kind enter a day's queue.
type Caps struct {
	NewItems int
	Reviews  int
}

// Build selects and orders due and new items for one session.
//
// Up to caps.Reviews due items are taken in ascending due order (never
// scheduled items first), ties broken by difficulty then id. Up to
// caps.NewItems records with StatusNew are taken in ascending difficulty,
// ties broken by id. Due items precede new items; an id appearing in both
// inputs is only queued once. An empty result means there is nothing to
// study and is not an error.
func Build(due, fresh []domain.ItemRecord, caps Caps) Queue {
	reviews := slices.Clone(due)
	slices.SortStableFunc(reviews, compareDue)
	reviews = truncate(reviews, caps.Reviews)

	newItems := make([]domain.ItemRecord, 0, len(fresh))
	for _, r := range fresh {
		if r.Status == domain.StatusNew {
			newItems = append(newItems, r)
		}
	}
	slices.SortStableFunc(newItems, compareNew)

	q := make(Queue, 0, len(reviews)+min(len(newItems), max(caps.NewItems, 0)))
	seen := make(map[uuid.UUID]struct{}, cap(q))
	for _, r := range reviews {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		q = append(q, r.ID)
	}

	added := 0
	for _, r := range newItems {
		if added >= caps.NewItems {
			break
		}
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}
		q = append(q, r.ID)
		added++
	}

	return q
}

func truncate(records []domain.ItemRecord, limit int) []domain.ItemRecord {
	if limit < 0 {
		limit = 0
	}
	if len(records) > limit {
		return records[:limit]
	}
	return records
}

func compareDue(a, b domain.ItemRecord) int {
	if c := compareDueAt(a.NextDueAt, b.NextDueAt); c != 0 {
		return c
	}
	return compareNew(a, b)
}

// compareDueAt orders unset timestamps before any set time.
func compareDueAt(a, b domain.Timestamp) int {
	at, aSet := a.Time()
	bt, bSet := b.Time()
	switch {
	case !aSet && !bSet:
		return 0
	case !aSet:
		return -1
	case !bSet:
		return 1
	default:
		return at.Compare(bt)
	}
}

func compareNew(a, b domain.ItemRecord) int {
	if a.Difficulty != b.Difficulty {
		if a.Difficulty < b.Difficulty {
			return -1
		}
		return 1
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}

// IsDue reports whether the record is due at asOf: it was never scheduled
// or its scheduled time is not in the future.
func IsDue(r domain.ItemRecord, asOf time.Time) bool {
	due, ok := r.NextDueAt.Time()
	return !ok || !due.After(asOf)
}
