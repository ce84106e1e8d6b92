package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/domain/queue"
)

// Kind names a session lifecycle event.
type Kind string

// Session lifecycle events.
const (
	KindSessionStarted   Kind = "session.started"
	KindSessionResumed   Kind = "session.resumed"
	KindItemAnswered     Kind = "session.item_answered"
	KindItemSkipped      Kind = "session.item_skipped"
	KindSessionSuspended Kind = "session.suspended"
	KindSessionCompleted Kind = "session.completed"
	KindSessionFinished  Kind = "session.finished"
	KindLoadFailed       Kind = "session.load_failed"
)

// Event is one lifecycle notification.
type Event struct {
	ID         uuid.UUID       `json:"id"`
	Kind       Kind            `json:"kind"`
	Generation uint64          `json:"generation"`
	ItemID     uuid.UUID       `json:"item_id,omitempty"`
	Quality    *domain.Quality `json:"quality,omitempty"`
	Progress   queue.Progress  `json:"progress"`
	Error      string          `json:"error,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// New creates an event of the given kind with a fresh id.
func New(kind Kind, generation uint64, progress queue.Progress, at time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Kind:       kind,
		Generation: generation,
		Progress:   progress,
		OccurredAt: at.UTC(),
	}
}

// Handler processes events.
type Handler interface {
	HandleEvent(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Emitter publishes events.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Discard is an Emitter that drops every event.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Emit(context.Context, Event) error { return nil }
