package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var itemColumnNames = []string{
	"id", "term", "meaning", "difficulty", "ease_factor", "interval_days", "review_count",
	"last_reviewed_at", "next_due_at", "last_quality", "status", "correct_count", "incorrect_count", "streak",
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestFetchDue(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresItemStore(db, nil)

	now := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	id := uuid.New()
	rows := sqlmock.NewRows(itemColumnNames).AddRow(
		id.String(), "hund", "dog", 2, 2.36, 6, 2,
		now.Add(-6*24*time.Hour), now.Add(-time.Hour), int64(4), "learning", 2, 0, 2,
	)
	mock.ExpectQuery(`FROM items WHERE next_due_at IS NOT NULL AND next_due_at <= \$1`).
		WithArgs(now, 10).
		WillReturnRows(rows)

	records, err := s.FetchDue(context.Background(), now, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, id, r.ID)
	assert.Equal(t, "hund", r.Term)
	assert.Equal(t, 2.36, r.EaseFactor)
	assert.Equal(t, domain.StatusLearning, r.Status)
	require.NotNil(t, r.LastQuality)
	assert.Equal(t, domain.QualityCorrectHesitation, *r.LastQuality)
	due, ok := r.NextDueAt.Time()
	assert.True(t, ok)
	assert.True(t, due.Equal(now.Add(-time.Hour)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchDueZeroLimit(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresItemStore(db, nil)

	records, err := s.FetchDue(context.Background(), time.Now(), 0)
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchNew(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresItemStore(db, nil)

	rows := sqlmock.NewRows(itemColumnNames).
		AddRow(uuid.New().String(), "katt", "cat", 0, 2.5, 0, 0, nil, nil, nil, "new", 0, 0, 0).
		AddRow(uuid.New().String(), "fisk", "fish", 1, 2.5, 0, 0, nil, nil, nil, "new", 0, 0, 0)
	mock.ExpectQuery(`FROM items WHERE status = 'new' AND next_due_at IS NULL`).
		WithArgs(5).
		WillReturnRows(rows)

	records, err := s.FetchNew(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "katt", records[0].Term)
	assert.False(t, records[0].NextDueAt.IsSet())
	assert.False(t, records[0].LastReviewedAt.IsSet())
	assert.Nil(t, records[0].LastQuality)
	assert.Equal(t, domain.StatusNew, records[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchNewQueryError(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresItemStore(db, nil)

	mock.ExpectQuery(`FROM items`).WillReturnError(errors.New("connection reset"))

	_, err := s.FetchNew(context.Background(), 5)
	require.Error(t, err)
	var storeErr *store.StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "fetch_new", storeErr.Operation)
}

func TestFetchByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresItemStore(db, nil)

	id := uuid.New()
	mock.ExpectQuery(`FROM items WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(itemColumnNames))

	_, err := s.FetchByID(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrItemNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate(t *testing.T) {
	now := time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)
	q := domain.QualityPerfect
	record := domain.ItemRecord{
		ID:             uuid.New(),
		Term:           "hus",
		EaseFactor:     2.6,
		IntervalDays:   1,
		ReviewCount:    1,
		LastReviewedAt: domain.At(now),
		NextDueAt:      domain.At(now.AddDate(0, 0, 1)),
		LastQuality:    &q,
		Status:         domain.StatusLearning,
		CorrectCount:   1,
		Streak:         1,
	}

	t.Run("updates row", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresItemStore(db, nil)
		mock.ExpectExec(`UPDATE items SET`).
			WithArgs(record.ID, 2.6, 1, 1, now, now.AddDate(0, 0, 1), int16(5), "learning", 1, 0, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Update(context.Background(), record))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresItemStore(db, nil)
		mock.ExpectExec(`UPDATE items SET`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := s.Update(context.Background(), record)
		assert.ErrorIs(t, err, store.ErrItemNotFound)
	})

	t.Run("invalid record", func(t *testing.T) {
		db, mock := newMockDB(t)
		s := NewPostgresItemStore(db, nil)
		bad := record
		bad.EaseFactor = 1.0

		err := s.Update(context.Background(), bad)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrInvalidEaseFactor)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestInsertRunsInTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresItemStore(db, nil)

	a, err := domain.NewItemRecord("sol", "sun", 0)
	require.NoError(t, err)
	b, err := domain.NewItemRecord("mane", "moon", 1)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO items`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO items`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.Insert(context.Background(), []domain.ItemRecord{a, b}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertDuplicateRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresItemStore(db, nil)

	a, err := domain.NewItemRecord("sol", "sun", 0)
	require.NoError(t, err)
	b, err := domain.NewItemRecord("mane", "moon", 1)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO items`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO items`).WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})
	mock.ExpectRollback()

	err = s.Insert(context.Background(), []domain.ItemRecord{a, b})
	assert.ErrorIs(t, err, store.ErrItemExists)
	assert.ErrorIs(t, err, store.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResetAll(t *testing.T) {
	db, mock := newMockDB(t)
	s := NewPostgresItemStore(db, nil)

	mock.ExpectExec(`UPDATE items SET`).
		WithArgs(domain.DefaultEaseFactor).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, s.ResetAll(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
