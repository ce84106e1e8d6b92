package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Defaults and bounds for item learning state.
const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
	MaxIntervalDays   = 365
)

// Validation errors for ItemRecord
var (
	ErrEmptyItemID       = fmt.Errorf("%w: item ID cannot be empty", ErrInvalidID)
	ErrEmptyTerm         = fmt.Errorf("%w: item term cannot be empty", ErrValidation)
	ErrInvalidEaseFactor = fmt.Errorf("%w: ease factor must be at least 1.3", ErrValidation)
	ErrInvalidInterval   = fmt.Errorf("%w: interval must be between 0 and 365 days", ErrValidation)
	ErrNegativeCounter   = fmt.Errorf("%w: counters cannot be negative", ErrValidation)
)

// ItemRecord is the memory state of one vocabulary item for the learner.
// It is a plain value: the scheduler never persists it implicitly, callers
// hand mutated copies to a repository.
type ItemRecord struct {
	ID         uuid.UUID `json:"id"`
	Term       string    `json:"term"`
	Meaning    string    `json:"meaning"`
	Difficulty int       `json:"difficulty"` // lower ranks are introduced first

	EaseFactor     float64   `json:"ease_factor"`
	IntervalDays   int       `json:"interval_days"`
	ReviewCount    int       `json:"review_count"`
	LastReviewedAt Timestamp `json:"last_reviewed_at"`
	NextDueAt      Timestamp `json:"next_due_at"`
	LastQuality    *Quality  `json:"last_quality,omitempty"`
	Status         Status    `json:"status"`

	CorrectCount   int `json:"correct_count"`
	IncorrectCount int `json:"incorrect_count"`
	Streak         int `json:"streak"`
}

// NewItemRecord creates a record with a fresh ID and creation defaults.
func NewItemRecord(term, meaning string, difficulty int) (ItemRecord, error) {
	r := ItemRecord{
		ID:         uuid.New(),
		Term:       strings.TrimSpace(term),
		Meaning:    strings.TrimSpace(meaning),
		Difficulty: difficulty,
	}.Reset()

	if err := r.Validate(); err != nil {
		return ItemRecord{}, err
	}
	return r, nil
}

// Reset returns the canonical new record for the same item: identity and
// content are kept, all learning state goes back to creation defaults.
func (r ItemRecord) Reset() ItemRecord {
	return ItemRecord{
		ID:         r.ID,
		Term:       r.Term,
		Meaning:    r.Meaning,
		Difficulty: r.Difficulty,
		EaseFactor: DefaultEaseFactor,
		Status:     StatusNew,
	}
}

// IsNew reports whether the item has never had a graduated review.
func (r ItemRecord) IsNew() bool {
	return r.ReviewCount == 0
}

// Validate checks the record invariants.
func (r ItemRecord) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyItemID
	}
	if r.Term == "" {
		return ErrEmptyTerm
	}
	if r.EaseFactor < MinEaseFactor {
		return ErrInvalidEaseFactor
	}
	if r.IntervalDays < 0 || r.IntervalDays > MaxIntervalDays {
		return ErrInvalidInterval
	}
	if r.ReviewCount < 0 || r.CorrectCount < 0 || r.IncorrectCount < 0 || r.Streak < 0 {
		return ErrNegativeCounter
	}
	if !r.Status.Valid() {
		return ErrInvalidStatus
	}
	if r.LastQuality != nil && !r.LastQuality.Valid() {
		return ErrInvalidQuality
	}
	return nil
}
