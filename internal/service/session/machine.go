package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/domain/queue"
	"github.com/phrazzld/scry-vocab/internal/domain/srs"
	"github.com/phrazzld/scry-vocab/internal/events"
	"github.com/phrazzld/scry-vocab/internal/snapshot"
	"github.com/phrazzld/scry-vocab/internal/store"
	"golang.org/x/sync/errgroup"
)

// Config holds the daily goals and the recovery policy of a machine.
type Config struct {
	Caps   queue.Caps
	Policy snapshot.Policy
}

// Outcome describes the effect of one answer.
type Outcome struct {
	Record   domain.ItemRecord `json:"record"`
	Result   srs.Result        `json:"result"`
	Progress queue.Progress    `json:"progress"`
	State    State             `json:"state"`
}

// Status is a read-only view of the machine.
type Status struct {
	State      State          `json:"state"`
	Generation uint64         `json:"generation"`
	Progress   queue.Progress `json:"progress"`
	Error      string         `json:"error,omitempty"`
}

// Option customises a Machine.
type Option func(*Machine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// Machine drives one learner's study session.
//
// The machine mutex guards state and is never held across I/O. Every Start,
// Resume and Finish bumps the generation; a load that completes under an
// older generation is discarded with ErrSuperseded. Answer, Skip and Suspend
// are serialized with each other so answers apply strictly in cursor order.
type Machine struct {
	items     store.ItemStore
	lookup    snapshot.Fetcher
	snapshots store.SnapshotStore
	srs       srs.Service
	emitter   events.Emitter
	cfg       Config
	now       func() time.Time
	logger    *slog.Logger

	stepMu sync.Mutex
	// snapMu orders snapshot writes against generation changes.
	snapMu sync.Mutex

	mu         sync.Mutex
	state      State
	generation uint64
	session    queue.Session
	lastErr    error
}

// NewMachine wires a machine. A nil emitter drops events and a nil logger
// uses the slog default.
func NewMachine(
	items store.ItemStore,
	snapshots store.SnapshotStore,
	srsService srs.Service,
	emitter events.Emitter,
	cfg Config,
	logger *slog.Logger,
	opts ...Option,
) *Machine {
	if emitter == nil {
		emitter = events.Discard
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &Machine{
		items:     items,
		lookup:    freshLookup{items: items},
		snapshots: snapshots,
		srs:       srsService,
		emitter:   emitter,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "session_machine")),
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Progress returns the progress of the current session. It is zero when no
// session was built.
func (m *Machine) Progress() queue.Progress {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Progress()
}

// Status returns state, generation, progress and the last load error together.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{
		State:      m.state,
		Generation: m.generation,
		Progress:   m.session.Progress(),
	}
	if m.state == StateError && m.lastErr != nil {
		st.Error = m.lastErr.Error()
	}
	return st
}

// Current returns the record of the item at the cursor.
// Returns ErrNotStudying outside the Studying state.
func (m *Machine) Current(ctx context.Context) (domain.ItemRecord, error) {
	m.mu.Lock()
	id, ok := m.currentLocked()
	m.mu.Unlock()
	if !ok {
		return domain.ItemRecord{}, ErrNotStudying
	}

	record, err := m.items.FetchByID(ctx, id)
	if err != nil {
		return domain.ItemRecord{}, newServiceError("current", "failed to fetch current item", err)
	}
	return record, nil
}

func (m *Machine) currentLocked() (uuid.UUID, bool) {
	if m.state != StateStudying {
		return uuid.Nil, false
	}
	return m.session.Current()
}

// Start builds a fresh session from the item store, replacing any session in
// progress. An empty queue leaves the machine Idle and is not an error.
func (m *Machine) Start(ctx context.Context) error {
	gen := m.beginLoad()
	now := m.now()

	session, err := m.loadFresh(ctx, now)
	return m.completeLoad(ctx, gen, session, err, events.KindSessionStarted)
}

// Resume restores the session saved in the snapshot store. When there is no
// snapshot, or it is expired, invalid or has nothing left to study, the
// snapshot is cleared and a fresh session is built instead. The boolean
// reports whether a saved session was restored.
func (m *Machine) Resume(ctx context.Context) (bool, error) {
	gen := m.beginLoad()
	now := m.now()
	log := m.logger.With(slog.Uint64("generation", gen))

	session, restored, err := m.restore(ctx, gen, now, log)
	if err == nil && !restored {
		session, err = m.loadFresh(ctx, now)
	}

	kind := events.KindSessionStarted
	if restored {
		kind = events.KindSessionResumed
	}
	if err := m.completeLoad(ctx, gen, session, err, kind); err != nil {
		return false, err
	}
	return restored, nil
}

func (m *Machine) restore(ctx context.Context, gen uint64, now time.Time, log *slog.Logger) (queue.Session, bool, error) {
	blob, err := m.snapshots.Load(ctx)
	if err != nil {
		return queue.Session{}, false, newServiceError("resume", "failed to load snapshot", err)
	}
	if blob == nil {
		log.DebugContext(ctx, "no recovery snapshot, starting fresh")
		return queue.Session{}, false, nil
	}

	session, err := snapshot.Restore(ctx, blob, m.cfg.Policy, m.lookup, now)
	switch {
	case errors.Is(err, snapshot.ErrRecoveryExpired), errors.Is(err, snapshot.ErrInvalidSnapshot):
		log.InfoContext(ctx, "discarding recovery snapshot", slog.String("reason", err.Error()))
		m.clearSnapshot(ctx, gen)
		return queue.Session{}, false, nil
	case err != nil:
		return queue.Session{}, false, newServiceError("resume", "failed to restore snapshot", err)
	case session.Complete():
		log.InfoContext(ctx, "recovery snapshot has nothing left to study")
		m.clearSnapshot(ctx, gen)
		return queue.Session{}, false, nil
	}
	return session, true, nil
}

// beginLoad invalidates in-flight loads and enters Loading.
func (m *Machine) beginLoad() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.state = StateLoading
	m.lastErr = nil
	return m.generation
}

// loadFresh fetches due and new items concurrently and builds the queue.
func (m *Machine) loadFresh(ctx context.Context, now time.Time) (queue.Session, error) {
	var due, fresh []domain.ItemRecord

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		due, err = m.items.FetchDue(gctx, now, m.cfg.Caps.Reviews)
		return err
	})
	g.Go(func() error {
		var err error
		fresh, err = m.items.FetchNew(gctx, m.cfg.Caps.NewItems)
		return err
	})
	if err := g.Wait(); err != nil {
		return queue.Session{}, newServiceError("start", "failed to load study queue", err)
	}

	return queue.NewSession(queue.Build(due, fresh, m.cfg.Caps), now), nil
}

// completeLoad installs a loaded session unless a newer request took over.
func (m *Machine) completeLoad(ctx context.Context, gen uint64, session queue.Session, loadErr error, kind events.Kind) error {
	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		m.logger.DebugContext(ctx, "discarding stale load", slog.Uint64("generation", gen))
		return ErrSuperseded
	}

	if loadErr != nil {
		m.state = StateError
		m.lastErr = loadErr
		m.session = queue.Session{}
		m.mu.Unlock()

		m.logger.ErrorContext(ctx, "session load failed",
			slog.Uint64("generation", gen),
			slog.String("error", loadErr.Error()))
		ev := events.New(events.KindLoadFailed, gen, queue.Progress{}, m.now())
		ev.Error = loadErr.Error()
		m.emit(ctx, ev)
		return loadErr
	}

	m.session = session
	if session.Complete() {
		m.state = StateIdle
	} else {
		m.state = StateStudying
	}
	progress := session.Progress()
	m.mu.Unlock()

	if session.Complete() {
		m.logger.InfoContext(ctx, "nothing to study", slog.Uint64("generation", gen))
		m.clearSnapshot(ctx, gen)
		return nil
	}

	m.logger.InfoContext(ctx, "session ready",
		slog.Uint64("generation", gen),
		slog.String("kind", string(kind)),
		slog.Int("total", progress.Total),
		slog.Int("position", progress.Position))
	m.saveSnapshot(ctx, gen, session)
	m.emit(ctx, events.New(kind, gen, progress, m.now()))
	return nil
}

// Answer grades the current item, persists its record, advances the cursor
// and snapshots the session. An invalid quality is rejected before anything
// is read or written.
func (m *Machine) Answer(ctx context.Context, q domain.Quality) (Outcome, error) {
	if !q.Valid() {
		return Outcome{}, fmt.Errorf("%w: got %d", domain.ErrInvalidQuality, int(q))
	}

	m.stepMu.Lock()
	defer m.stepMu.Unlock()

	m.mu.Lock()
	id, ok := m.currentLocked()
	gen := m.generation
	m.mu.Unlock()
	if !ok {
		return Outcome{}, ErrNotStudying
	}

	now := m.now()
	record, err := m.lookup.FetchByID(ctx, id)
	if err != nil {
		if store.IsNotFoundError(err) {
			return m.dropMissing(ctx, gen, id)
		}
		return Outcome{}, m.fail(ctx, gen, newServiceError("answer", "failed to fetch item", err))
	}

	updated, result, err := m.srs.ApplyAnswer(record, q, now)
	if err != nil {
		return Outcome{}, err
	}
	if err := m.items.Update(ctx, updated); err != nil {
		if store.IsNotFoundError(err) {
			return m.dropMissing(ctx, gen, id)
		}
		return Outcome{}, m.fail(ctx, gen, newServiceError("answer", "failed to save item", err))
	}

	session, state, err := m.advance(gen, func(s queue.Session) (queue.Session, error) {
		return s.Answer(q.IsCorrect())
	})
	if err != nil {
		return Outcome{}, err
	}

	m.afterStep(ctx, gen, session, state)
	ev := events.New(events.KindItemAnswered, gen, session.Progress(), now)
	ev.ItemID = id
	ev.Quality = &q
	m.emit(ctx, ev)
	if state == StateComplete {
		m.emit(ctx, events.New(events.KindSessionCompleted, gen, session.Progress(), now))
	}

	return Outcome{Record: updated, Result: result, Progress: session.Progress(), State: state}, nil
}

// Skip advances past the current item without touching its record.
func (m *Machine) Skip(ctx context.Context) (queue.Progress, error) {
	m.stepMu.Lock()
	defer m.stepMu.Unlock()

	m.mu.Lock()
	id, ok := m.currentLocked()
	gen := m.generation
	m.mu.Unlock()
	if !ok {
		return queue.Progress{}, ErrNotStudying
	}

	session, state, err := m.advance(gen, queue.Session.Skip)
	if err != nil {
		return queue.Progress{}, err
	}

	now := m.now()
	m.afterStep(ctx, gen, session, state)
	ev := events.New(events.KindItemSkipped, gen, session.Progress(), now)
	ev.ItemID = id
	m.emit(ctx, ev)
	if state == StateComplete {
		m.emit(ctx, events.New(events.KindSessionCompleted, gen, session.Progress(), now))
	}
	return session.Progress(), nil
}

// Suspend snapshots the session on an external suspension signal.
func (m *Machine) Suspend(ctx context.Context) error {
	m.stepMu.Lock()
	defer m.stepMu.Unlock()

	m.mu.Lock()
	if m.state != StateStudying {
		m.mu.Unlock()
		return ErrNotStudying
	}
	session := m.session
	gen := m.generation
	m.mu.Unlock()

	if err := m.persist(ctx, gen, session); err != nil {
		if errors.Is(err, ErrSuperseded) {
			return err
		}
		return newServiceError("suspend", "failed to save snapshot", err)
	}
	m.emit(ctx, events.New(events.KindSessionSuspended, gen, session.Progress(), m.now()))
	return nil
}

// Finish ends the session explicitly: the snapshot is cleared, in-flight
// loads are invalidated and the machine returns to Idle.
func (m *Machine) Finish(ctx context.Context) error {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	progress := m.session.Progress()
	m.state = StateIdle
	m.session = queue.Session{}
	m.lastErr = nil
	m.mu.Unlock()

	// Steps still in flight hold the old generation, so none of their saves
	// can land after this clear.
	if err := m.writeSnapshot(gen, func() error { return m.snapshots.Clear(ctx) }); err != nil {
		if errors.Is(err, ErrSuperseded) {
			return nil
		}
		return newServiceError("finish", "failed to clear snapshot", err)
	}
	m.emit(ctx, events.New(events.KindSessionFinished, gen, progress, m.now()))
	return nil
}

// advance applies step to the session if gen is still current.
func (m *Machine) advance(gen uint64, step func(queue.Session) (queue.Session, error)) (queue.Session, State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation || m.state != StateStudying {
		return queue.Session{}, m.state, ErrSuperseded
	}
	next, err := step(m.session)
	if err != nil {
		return queue.Session{}, m.state, err
	}
	m.session = next
	if next.Complete() {
		m.state = StateComplete
	}
	return next, m.state, nil
}

// afterStep persists or clears the snapshot after the cursor moved.
func (m *Machine) afterStep(ctx context.Context, gen uint64, session queue.Session, state State) {
	if state == StateComplete {
		m.logger.InfoContext(ctx, "session complete",
			slog.Uint64("generation", gen),
			slog.Int("correct", session.CorrectCount),
			slog.Int("incorrect", session.IncorrectCount))
		m.clearSnapshot(ctx, gen)
		return
	}
	m.saveSnapshot(ctx, gen, session)
}

// dropMissing skips an item that disappeared from the store mid-session.
func (m *Machine) dropMissing(ctx context.Context, gen uint64, id uuid.UUID) (Outcome, error) {
	m.logger.WarnContext(ctx, "current item vanished, skipping it", slog.String("item_id", id.String()))
	session, state, err := m.advance(gen, queue.Session.Skip)
	if err != nil {
		return Outcome{}, err
	}
	m.afterStep(ctx, gen, session, state)
	return Outcome{Progress: session.Progress(), State: state}, ErrItemMissing
}

// fail moves the machine to Error when gen is still current. The saved
// snapshot is kept so Resume can pick the session up again.
func (m *Machine) fail(ctx context.Context, gen uint64, err error) error {
	m.mu.Lock()
	if gen == m.generation {
		m.state = StateError
		m.lastErr = err
	}
	m.mu.Unlock()
	m.logger.ErrorContext(ctx, "session step failed",
		slog.Uint64("generation", gen),
		slog.String("error", err.Error()))
	return err
}

// writeSnapshot runs write while no other snapshot write is in progress,
// provided gen is still the current generation.
func (m *Machine) writeSnapshot(gen uint64, write func() error) error {
	m.snapMu.Lock()
	defer m.snapMu.Unlock()

	m.mu.Lock()
	current := gen == m.generation
	m.mu.Unlock()
	if !current {
		return ErrSuperseded
	}
	return write()
}

func (m *Machine) persist(ctx context.Context, gen uint64, session queue.Session) error {
	blob, err := snapshot.Encode(snapshot.Capture(session, m.now()))
	if err != nil {
		return err
	}
	return m.writeSnapshot(gen, func() error { return m.snapshots.Save(ctx, blob) })
}

// saveSnapshot persists the session. A failure is logged only: the item
// store already holds every applied answer.
func (m *Machine) saveSnapshot(ctx context.Context, gen uint64, session queue.Session) {
	err := m.persist(ctx, gen, session)
	switch {
	case errors.Is(err, ErrSuperseded):
		m.logger.DebugContext(ctx, "skipping snapshot of a superseded session", slog.Uint64("generation", gen))
	case err != nil:
		m.logger.ErrorContext(ctx, "failed to save recovery snapshot", slog.String("error", err.Error()))
	}
}

func (m *Machine) clearSnapshot(ctx context.Context, gen uint64) {
	err := m.writeSnapshot(gen, func() error { return m.snapshots.Clear(ctx) })
	if err != nil && !errors.Is(err, ErrSuperseded) {
		m.logger.ErrorContext(ctx, "failed to clear recovery snapshot", slog.String("error", err.Error()))
	}
}

// freshLookup reads records past any cache that can be bypassed, so a
// deleted or reset item is never answered or restored from a stale copy.
type freshLookup struct {
	items store.ItemStore
}

type refresher interface {
	Refresh(ctx context.Context, id uuid.UUID) (domain.ItemRecord, error)
}

func (f freshLookup) FetchByID(ctx context.Context, id uuid.UUID) (domain.ItemRecord, error) {
	if r, ok := f.items.(refresher); ok {
		return r.Refresh(ctx, id)
	}
	return f.items.FetchByID(ctx, id)
}

func (m *Machine) emit(ctx context.Context, ev events.Event) {
	if err := m.emitter.Emit(ctx, ev); err != nil {
		m.logger.WarnContext(ctx, "event handler failed",
			slog.String("event_kind", string(ev.Kind)),
			slog.String("error", err.Error()))
	}
}
