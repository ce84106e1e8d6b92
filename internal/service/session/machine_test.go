package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/scry-vocab/internal/cache"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/domain/queue"
	"github.com/phrazzld/scry-vocab/internal/domain/srs"
	"github.com/phrazzld/scry-vocab/internal/events"
	"github.com/phrazzld/scry-vocab/internal/mocks"
	"github.com/phrazzld/scry-vocab/internal/platform/logger"
	"github.com/phrazzld/scry-vocab/internal/service/session"
	"github.com/phrazzld/scry-vocab/internal/snapshot"
	"github.com/phrazzld/scry-vocab/internal/store"
	"github.com/phrazzld/scry-vocab/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

// clock is a settable time source.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recorder collects emitted event kinds.
type recorder struct {
	mu    sync.Mutex
	kinds []events.Kind
}

func (r *recorder) HandleEvent(_ context.Context, ev events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, ev.Kind)
	return nil
}

func (r *recorder) Kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Kind(nil), r.kinds...)
}

type fixture struct {
	items     *testutils.MemoryItemStore
	snapshots *testutils.MemorySnapshotStore
	clock     *clock
	events    *recorder
	machine   *session.Machine
}

func newFixture(t *testing.T, items store.ItemStore) *fixture {
	t.Helper()

	mem, _ := items.(*testutils.MemoryItemStore)
	f := &fixture{
		items:     mem,
		snapshots: testutils.NewMemorySnapshotStore(),
		clock:     &clock{now: base},
		events:    &recorder{},
	}
	f.machine = f.newMachine(t, items)
	return f
}

func (f *fixture) newMachine(t *testing.T, items store.ItemStore) *session.Machine {
	t.Helper()

	log, _ := logger.GetTestLogger(t)
	emitter := events.NewInMemoryEmitter(log)
	emitter.Register(f.events)

	return session.NewMachine(
		items,
		f.snapshots,
		srs.NewDefaultService(),
		emitter,
		session.Config{
			Caps:   queue.Caps{NewItems: 20, Reviews: 50},
			Policy: snapshot.EndOfDay(time.UTC),
		},
		log,
		session.WithClock(f.clock.Now),
	)
}

// seed inserts due reviews and new items, returning them in expected queue order.
func seed(t *testing.T, items *testutils.MemoryItemStore, due, fresh int) []domain.ItemRecord {
	t.Helper()

	var out []domain.ItemRecord
	for i := 0; i < due; i++ {
		r := testutils.MustCreateItemForTest(t, testutils.WithDueAt(base.Add(-time.Duration(due-i)*time.Hour), 2))
		out = append(out, r)
	}
	for i := 0; i < fresh; i++ {
		out = append(out, testutils.MustCreateItemForTest(t, testutils.WithDifficulty(i+1)))
	}
	items.MustInsert(t, out...)
	return out
}

func TestStartBuildsQueue(t *testing.T) {
	f := newFixture(t, testutils.NewMemoryItemStore())
	records := seed(t, f.items, 2, 3)

	require.NoError(t, f.machine.Start(context.Background()))

	assert.Equal(t, session.StateStudying, f.machine.State())
	assert.Equal(t, queue.Progress{Total: 5, Remaining: 5}, f.machine.Progress())

	current, err := f.machine.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, records[0].ID, current.ID, "oldest due review comes first")

	blob, err := f.snapshots.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, blob, "a fresh session is snapshotted immediately")

	assert.Equal(t, []events.Kind{events.KindSessionStarted}, f.events.Kinds())
}

func TestStartWithNothingToStudy(t *testing.T) {
	f := newFixture(t, testutils.NewMemoryItemStore())

	require.NoError(t, f.machine.Start(context.Background()))
	assert.Equal(t, session.StateIdle, f.machine.State())

	_, err := f.machine.Current(context.Background())
	assert.ErrorIs(t, err, session.ErrNotStudying)
	_, err = f.machine.Answer(context.Background(), domain.QualityPerfect)
	assert.ErrorIs(t, err, session.ErrNotStudying)
}

func TestAnswerThroughCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.NewMemoryItemStore())
	records := seed(t, f.items, 1, 2)
	require.NoError(t, f.machine.Start(ctx))

	out, err := f.machine.Answer(ctx, domain.QualityPerfect)
	require.NoError(t, err)
	assert.Equal(t, session.StateStudying, out.State)
	assert.Equal(t, 1, out.Progress.Position)
	assert.Equal(t, 3, out.Record.ReviewCount)

	stored, ok := f.items.Get(records[0].ID)
	require.True(t, ok)
	assert.Equal(t, out.Record, stored)

	// a blackout on a new item keeps it new and due again within the hour
	out, err = f.machine.Answer(ctx, domain.QualityBlackout)
	require.NoError(t, err)
	assert.True(t, out.Result.RepeatSameDay)
	assert.Equal(t, domain.StatusNew, out.Record.Status)
	due, _ := out.Record.NextDueAt.Time()
	assert.Equal(t, base.Add(time.Hour), due)

	out, err = f.machine.Answer(ctx, domain.QualityCorrectDifficult)
	require.NoError(t, err)
	assert.Equal(t, session.StateComplete, out.State)
	assert.Equal(t, queue.Progress{Total: 3, Position: 3, Correct: 2, Incorrect: 1}, out.Progress)

	blob, err := f.snapshots.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, blob, "completed sessions clear their snapshot")

	_, err = f.machine.Answer(ctx, domain.QualityPerfect)
	assert.ErrorIs(t, err, session.ErrNotStudying)

	assert.Equal(t, []events.Kind{
		events.KindSessionStarted,
		events.KindItemAnswered,
		events.KindItemAnswered,
		events.KindItemAnswered,
		events.KindSessionCompleted,
	}, f.events.Kinds())
}

func TestAnswerRejectsInvalidQuality(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.NewMemoryItemStore())
	seed(t, f.items, 0, 1)
	require.NoError(t, f.machine.Start(ctx))

	_, err := f.machine.Answer(ctx, domain.Quality(6))
	assert.ErrorIs(t, err, domain.ErrInvalidQuality)
	assert.ErrorIs(t, err, domain.ErrValidation)

	assert.Zero(t, f.items.Updates())
	assert.Equal(t, 0, f.machine.Progress().Position)
	assert.Equal(t, session.StateStudying, f.machine.State())
}

func TestSkipLeavesRecordUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.NewMemoryItemStore())
	records := seed(t, f.items, 0, 2)
	require.NoError(t, f.machine.Start(ctx))

	progress, err := f.machine.Skip(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Position)
	assert.Zero(t, progress.Correct+progress.Incorrect)

	stored, _ := f.items.Get(records[0].ID)
	assert.Equal(t, records[0], stored)
	assert.Zero(t, f.items.Updates())

	_, err = f.machine.Skip(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.StateComplete, f.machine.State())
}

func TestResumeAfterInterruption(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.NewMemoryItemStore())
	seed(t, f.items, 4, 6)
	require.NoError(t, f.machine.Start(ctx))

	for _, q := range []domain.Quality{domain.QualityPerfect, domain.QualityIncorrect, domain.QualityCorrectDifficult} {
		_, err := f.machine.Answer(ctx, q)
		require.NoError(t, err)
	}
	before := f.machine.Progress()

	// the process dies; a new machine comes up two hours later
	f.clock.Advance(2 * time.Hour)
	resumed := f.newMachine(t, f.items)

	restored, err := resumed.Resume(ctx)
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, session.StateStudying, resumed.State())
	assert.Equal(t, before, resumed.Progress())
	assert.Equal(t, 3, resumed.Progress().Position)
}

func TestResumeExpiredStartsFresh(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.NewMemoryItemStore())
	seed(t, f.items, 0, 10)
	require.NoError(t, f.machine.Start(ctx))
	for i := 0; i < 3; i++ {
		_, err := f.machine.Answer(ctx, domain.QualityPerfect)
		require.NoError(t, err)
	}

	f.clock.Advance(48 * time.Hour)
	resumed := f.newMachine(t, f.items)

	restored, err := resumed.Resume(ctx)
	require.NoError(t, err)
	assert.False(t, restored)
	assert.Equal(t, session.StateStudying, resumed.State())
	assert.Equal(t, 0, resumed.Progress().Position)
	// the three answered items are scheduled two weeks out, only the new ones remain
	assert.Equal(t, 7, resumed.Progress().Total)
}

func TestResumeWithoutSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.NewMemoryItemStore())
	seed(t, f.items, 0, 2)

	restored, err := f.machine.Resume(ctx)
	require.NoError(t, err)
	assert.False(t, restored)
	assert.Equal(t, session.StateStudying, f.machine.State())
	assert.Equal(t, 2, f.machine.Progress().Total)
}

func TestResumeDiscardsCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.NewMemoryItemStore())
	seed(t, f.items, 0, 1)
	require.NoError(t, f.snapshots.Save(ctx, []byte("not a snapshot")))

	restored, err := f.machine.Resume(ctx)
	require.NoError(t, err)
	assert.False(t, restored)
	assert.Equal(t, session.StateStudying, f.machine.State())
}

func TestLoadFailureEntersErrorAndRetries(t *testing.T) {
	ctx := context.Background()
	storeErr := store.NewStoreError("item", "fetch_due", "query failed", store.ErrUnavailable)
	fresh := testutils.MustCreateItemForTest(t)

	items := &mocks.ItemStore{}
	items.On("FetchDue", mock.Anything, base, 50).Return(nil, storeErr).Once()
	items.On("FetchNew", mock.Anything, 20).Return(nil, nil).Once()
	items.On("FetchDue", mock.Anything, base, 50).Return(nil, nil).Once()
	items.On("FetchNew", mock.Anything, 20).Return([]domain.ItemRecord{fresh}, nil).Once()

	f := newFixture(t, items)

	err := f.machine.Start(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrUnavailable)
	var svcErr *session.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "start", svcErr.Operation)

	status := f.machine.Status()
	assert.Equal(t, session.StateError, status.State)
	assert.NotEmpty(t, status.Error)

	require.NoError(t, f.machine.Start(ctx))
	assert.Equal(t, session.StateStudying, f.machine.State())
	assert.Empty(t, f.machine.Status().Error)

	assert.Equal(t, []events.Kind{events.KindLoadFailed, events.KindSessionStarted}, f.events.Kinds())
	items.AssertExpectations(t)
}

func TestUpdateFailureKeepsSnapshotForResume(t *testing.T) {
	ctx := context.Background()
	mem := testutils.NewMemoryItemStore()
	records := seed(t, mem, 0, 2)

	items := &mocks.ItemStore{}
	items.On("FetchDue", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	items.On("FetchNew", mock.Anything, 20).Return(records, nil)
	items.On("FetchByID", mock.Anything, records[0].ID).Return(records[0], nil)
	items.On("Update", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	f := newFixture(t, items)
	require.NoError(t, f.machine.Start(ctx))

	_, err := f.machine.Answer(ctx, domain.QualityPerfect)
	require.Error(t, err)
	assert.Equal(t, session.StateError, f.machine.State())

	blob, err := f.snapshots.Load(ctx)
	require.NoError(t, err)
	assert.NotNil(t, blob)

	// the snapshot still points at the unanswered item
	resumed := f.newMachine(t, mem)
	restored, err := resumed.Resume(ctx)
	require.NoError(t, err)
	assert.True(t, restored)
	current, err := resumed.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, records[0].ID, current.ID)
}

func TestAnswerSkipsVanishedItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.NewMemoryItemStore())
	records := seed(t, f.items, 0, 2)
	require.NoError(t, f.machine.Start(ctx))

	f.items.Delete(records[0].ID)

	out, err := f.machine.Answer(ctx, domain.QualityPerfect)
	assert.ErrorIs(t, err, session.ErrItemMissing)
	assert.Equal(t, 1, out.Progress.Position)
	assert.Zero(t, out.Progress.Correct)

	current, err := f.machine.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, records[1].ID, current.ID)
}

func TestAnswerSkipsItemDeletedBehindCache(t *testing.T) {
	ctx := context.Background()
	mem := testutils.NewMemoryItemStore()
	records := seed(t, mem, 0, 2)
	cached := cache.NewCachedItemStore(mem, cache.NewRecordCache(), nil)
	f := newFixture(t, cached)
	require.NoError(t, f.machine.Start(ctx))

	// the loaded records are cached; the store no longer has the first one
	mem.Delete(records[0].ID)

	out, err := f.machine.Answer(ctx, domain.QualityPerfect)
	assert.ErrorIs(t, err, session.ErrItemMissing)
	assert.Equal(t, session.StateStudying, f.machine.State())
	assert.Equal(t, 1, out.Progress.Position)

	_, stillCached := cached.Cache().Get(records[0].ID)
	assert.False(t, stillCached)
}

func TestAnswerSkipsItemDeletedBeforeUpdate(t *testing.T) {
	ctx := context.Background()
	mem := testutils.NewMemoryItemStore()
	records := seed(t, mem, 0, 2)

	items := &mocks.ItemStore{}
	items.On("FetchDue", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	items.On("FetchNew", mock.Anything, 20).Return(records, nil)
	items.On("FetchByID", mock.Anything, records[0].ID).Return(records[0], nil)
	items.On("Update", mock.Anything, mock.Anything).Return(store.ErrItemNotFound)

	f := newFixture(t, items)
	require.NoError(t, f.machine.Start(ctx))

	out, err := f.machine.Answer(ctx, domain.QualityPerfect)
	assert.ErrorIs(t, err, session.ErrItemMissing)
	assert.Equal(t, session.StateStudying, f.machine.State())
	assert.Equal(t, 1, out.Progress.Position)
	assert.Zero(t, out.Progress.Correct)
}

func TestResumeThroughCacheDropsDeletedItems(t *testing.T) {
	ctx := context.Background()
	mem := testutils.NewMemoryItemStore()
	records := seed(t, mem, 0, 3)
	cached := cache.NewCachedItemStore(mem, cache.NewRecordCache(), nil)
	f := newFixture(t, cached)

	require.NoError(t, f.machine.Start(ctx))
	_, err := f.machine.Answer(ctx, domain.QualityPerfect)
	require.NoError(t, err)

	mem.Delete(records[2].ID)

	resumed := f.newMachine(t, cached)
	restored, err := resumed.Resume(ctx)
	require.NoError(t, err)
	assert.True(t, restored)

	progress := resumed.Progress()
	assert.Equal(t, 2, progress.Total)
	assert.Equal(t, 1, progress.Position)
}

// gatedSnapshots blocks the first Save after arm until released.
type gatedSnapshots struct {
	*testutils.MemorySnapshotStore
	armed   atomic.Bool
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *gatedSnapshots) Save(ctx context.Context, blob []byte) error {
	if s.armed.Load() {
		s.once.Do(func() {
			close(s.entered)
			<-s.release
		})
	}
	return s.MemorySnapshotStore.Save(ctx, blob)
}

func TestFinishWinsOverInFlightSnapshot(t *testing.T) {
	ctx := context.Background()
	mem := testutils.NewMemoryItemStore()
	seed(t, mem, 0, 3)

	snapshots := &gatedSnapshots{
		MemorySnapshotStore: testutils.NewMemorySnapshotStore(),
		entered:             make(chan struct{}),
		release:             make(chan struct{}),
	}
	log, _ := logger.GetTestLogger(t)
	cfg := session.Config{
		Caps:   queue.Caps{NewItems: 20, Reviews: 50},
		Policy: snapshot.EndOfDay(time.UTC),
	}
	clk := &clock{now: base}
	m := session.NewMachine(mem, snapshots, srs.NewDefaultService(), nil, cfg, log, session.WithClock(clk.Now))

	require.NoError(t, m.Start(ctx))
	snapshots.armed.Store(true)

	answered := make(chan error, 1)
	go func() {
		_, err := m.Answer(ctx, domain.QualityPerfect)
		answered <- err
	}()
	<-snapshots.entered

	finished := make(chan error, 1)
	go func() { finished <- m.Finish(ctx) }()
	require.Eventually(t, func() bool { return m.State() == session.StateIdle },
		time.Second, time.Millisecond)

	close(snapshots.release)
	require.NoError(t, <-answered)
	require.NoError(t, <-finished)

	blob, err := snapshots.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, blob, "a finished session must not leave a snapshot behind")

	fresh := session.NewMachine(mem, snapshots, srs.NewDefaultService(), nil, cfg, log, session.WithClock(clk.Now))
	restored, err := fresh.Resume(ctx)
	require.NoError(t, err)
	assert.False(t, restored)
}

func TestSuspendAndFinish(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, testutils.NewMemoryItemStore())
	seed(t, f.items, 0, 3)

	assert.ErrorIs(t, f.machine.Suspend(ctx), session.ErrNotStudying)

	require.NoError(t, f.machine.Start(ctx))
	_, err := f.machine.Answer(ctx, domain.QualityPerfect)
	require.NoError(t, err)

	require.NoError(t, f.snapshots.Clear(ctx))
	f.clock.Advance(time.Minute)
	require.NoError(t, f.machine.Suspend(ctx))

	blob, err := f.snapshots.Load(ctx)
	require.NoError(t, err)
	snap, err := snapshot.Decode(blob)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Cursor)
	assert.Equal(t, base.Add(time.Minute), snap.TakenAt)

	require.NoError(t, f.machine.Finish(ctx))
	assert.Equal(t, session.StateIdle, f.machine.State())
	blob, err = f.snapshots.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, blob)

	assert.Contains(t, f.events.Kinds(), events.KindSessionSuspended)
	assert.Equal(t, events.KindSessionFinished, f.events.Kinds()[len(f.events.Kinds())-1])
}

// gatedStore blocks the first FetchDue call until released.
type gatedStore struct {
	*testutils.MemoryItemStore
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *gatedStore) FetchDue(ctx context.Context, asOf time.Time, limit int) ([]domain.ItemRecord, error) {
	gated := false
	s.once.Do(func() { gated = true })
	if gated {
		close(s.entered)
		<-s.release
	}
	return s.MemoryItemStore.FetchDue(ctx, asOf, limit)
}

func TestStaleLoadIsSuperseded(t *testing.T) {
	ctx := context.Background()
	mem := testutils.NewMemoryItemStore()
	seed(t, mem, 1, 1)
	gated := &gatedStore{
		MemoryItemStore: mem,
		entered:         make(chan struct{}),
		release:         make(chan struct{}),
	}
	f := newFixture(t, gated)

	first := make(chan error, 1)
	go func() { first <- f.machine.Start(ctx) }()
	<-gated.entered

	require.NoError(t, f.machine.Start(ctx))
	_, err := f.machine.Answer(ctx, domain.QualityPerfect)
	require.NoError(t, err)

	close(gated.release)
	assert.ErrorIs(t, <-first, session.ErrSuperseded)

	status := f.machine.Status()
	assert.Equal(t, session.StateStudying, status.State)
	assert.Equal(t, uint64(2), status.Generation)
	assert.Equal(t, 1, status.Progress.Position, "the stale load must not reset the newer session")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "studying", session.StateStudying.String())
	assert.Equal(t, "State(9)", session.State(9).String())
	text, err := session.StateError.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "error", string(text))
}
