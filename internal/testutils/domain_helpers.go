package testutils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/stretchr/testify/require"
)

// ItemOption customises a record built by MustCreateItemForTest.
type ItemOption func(*domain.ItemRecord)

// WithTerm sets the term and meaning.
func WithTerm(term, meaning string) ItemOption {
	return func(r *domain.ItemRecord) {
		r.Term = term
		r.Meaning = meaning
	}
}

// WithDifficulty sets the difficulty rank.
func WithDifficulty(d int) ItemOption {
	return func(r *domain.ItemRecord) { r.Difficulty = d }
}

// WithID forces the record id.
func WithID(id uuid.UUID) ItemOption {
	return func(r *domain.ItemRecord) { r.ID = id }
}

// WithDueAt makes the record a scheduled review due at the given time, as if
// it had been answered correctly reviewCount times.
func WithDueAt(due time.Time, reviewCount int) ItemOption {
	return func(r *domain.ItemRecord) {
		q := domain.QualityCorrectDifficult
		r.ReviewCount = reviewCount
		r.IntervalDays = 1
		r.CorrectCount = reviewCount
		r.Streak = reviewCount
		r.LastQuality = &q
		r.LastReviewedAt = domain.At(due.Add(-24 * time.Hour))
		r.NextDueAt = domain.At(due)
		r.Status = domain.StatusLearning
	}
}

// MustCreateItemForTest builds a valid new record with a random term.
func MustCreateItemForTest(t *testing.T, opts ...ItemOption) domain.ItemRecord {
	t.Helper()

	r, err := domain.NewItemRecord("term-"+uuid.NewString()[:8], "meaning", 0)
	require.NoError(t, err, "failed to create test item")
	for _, opt := range opts {
		opt(&r)
	}
	require.NoError(t, r.Validate(), "test item options produced an invalid record")
	return r
}
