package queue

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
)

// ErrInvalidCursor is returned when a session cursor lies outside its queue.
var ErrInvalidCursor = fmt.Errorf("%w: cursor outside queue", domain.ErrValidation)

// ErrSessionComplete is returned when advancing a session that has no
// current item.
var ErrSessionComplete = errors.New("session complete")

// Session is the progress of one study session through its queue. The queue
// never changes once the session is built; only the cursor and the counts
// move.
type Session struct {
	Queue          Queue
	Cursor         int
	CorrectCount   int
	IncorrectCount int
	StartedAt      time.Time
}

// Progress is a read-only summary of a session.
type Progress struct {
	Total     int `json:"total"`
	Position  int `json:"position"`
	Remaining int `json:"remaining"`
	Correct   int `json:"correct"`
	Incorrect int `json:"incorrect"`
}

// NewSession starts a session over q at its first item.
func NewSession(q Queue, startedAt time.Time) Session {
	return Session{
		Queue:     q,
		StartedAt: startedAt.UTC(),
	}
}

// Validate checks 0 <= Cursor <= len(Queue) and non-negative counts.
func (s Session) Validate() error {
	if s.Cursor < 0 || s.Cursor > len(s.Queue) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidCursor, s.Cursor, len(s.Queue))
	}
	if s.CorrectCount < 0 || s.IncorrectCount < 0 {
		return domain.ErrNegativeCounter
	}
	return nil
}

// Complete reports whether every queued item has been answered or skipped.
func (s Session) Complete() bool {
	return s.Cursor >= len(s.Queue)
}

// Current returns the item at the cursor.
func (s Session) Current() (uuid.UUID, bool) {
	if s.Complete() || s.Cursor < 0 {
		return uuid.Nil, false
	}
	return s.Queue[s.Cursor], true
}

// Answer records one answer for the current item and advances the cursor.
func (s Session) Answer(correct bool) (Session, error) {
	if s.Complete() {
		return s, ErrSessionComplete
	}
	if correct {
		s.CorrectCount++
	} else {
		s.IncorrectCount++
	}
	s.Cursor++
	return s, nil
}

// Skip advances past the current item without counting it.
func (s Session) Skip() (Session, error) {
	if s.Complete() {
		return s, ErrSessionComplete
	}
	s.Cursor++
	return s, nil
}

// Progress summarises the session.
func (s Session) Progress() Progress {
	return Progress{
		Total:     len(s.Queue),
		Position:  s.Cursor,
		Remaining: max(len(s.Queue)-s.Cursor, 0),
		Correct:   s.CorrectCount,
		Incorrect: s.IncorrectCount,
	}
}
