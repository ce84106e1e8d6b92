package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain/queue"
)

// FormatVersion is the version written by Encode. Decode rejects any other.
const FormatVersion = 1

var (
	// ErrInvalidSnapshot is returned for blobs that cannot be decoded or that
	// violate the session invariants.
	ErrInvalidSnapshot = errors.New("invalid snapshot")

	// ErrRecoveryExpired is returned when a snapshot is past its recovery
	// window. It is a normal outcome: callers discard the snapshot and start
	// a fresh session.
	ErrRecoveryExpired = errors.New("recovery snapshot expired")
)

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	Version        int         `json:"version"`
	ItemIDs        []uuid.UUID `json:"item_ids"`
	Cursor         int         `json:"cursor"`
	CorrectCount   int         `json:"correct_count"`
	IncorrectCount int         `json:"incorrect_count"`
	StartedAt      time.Time   `json:"started_at"`
	TakenAt        time.Time   `json:"taken_at"`
}

// Capture copies the session state at now.
func Capture(s queue.Session, now time.Time) Snapshot {
	ids := make([]uuid.UUID, len(s.Queue))
	copy(ids, s.Queue)
	return Snapshot{
		Version:        FormatVersion,
		ItemIDs:        ids,
		Cursor:         s.Cursor,
		CorrectCount:   s.CorrectCount,
		IncorrectCount: s.IncorrectCount,
		StartedAt:      s.StartedAt.UTC(),
		TakenAt:        now.UTC(),
	}
}

// Session rebuilds the captured session verbatim.
func (s Snapshot) Session() queue.Session {
	q := make(queue.Queue, len(s.ItemIDs))
	copy(q, s.ItemIDs)
	return queue.Session{
		Queue:          q,
		Cursor:         s.Cursor,
		CorrectCount:   s.CorrectCount,
		IncorrectCount: s.IncorrectCount,
		StartedAt:      s.StartedAt,
	}
}

// Validate checks the version and the session invariants.
func (s Snapshot) Validate() error {
	if s.Version != FormatVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidSnapshot, s.Version)
	}
	if s.TakenAt.IsZero() {
		return fmt.Errorf("%w: missing capture time", ErrInvalidSnapshot)
	}
	if err := s.Session().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return nil
}

// Encode serializes a snapshot.
func Encode(s Snapshot) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	blob, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return blob, nil
}

// Decode parses and validates a blob written by Encode.
func Decode(blob []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(blob, &s); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}
