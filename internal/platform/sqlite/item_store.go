package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/store"
)

// itemRow is the column layout of the items table.
type itemRow struct {
	ID             string        `db:"id"`
	Term           string        `db:"term"`
	Meaning        string        `db:"meaning"`
	Difficulty     int           `db:"difficulty"`
	EaseFactor     float64       `db:"ease_factor"`
	IntervalDays   int           `db:"interval_days"`
	ReviewCount    int           `db:"review_count"`
	LastReviewedAt sql.NullInt64 `db:"last_reviewed_at"`
	NextDueAt      sql.NullInt64 `db:"next_due_at"`
	LastQuality    sql.NullInt64 `db:"last_quality"`
	Status         string        `db:"status"`
	CorrectCount   int           `db:"correct_count"`
	IncorrectCount int           `db:"incorrect_count"`
	Streak         int           `db:"streak"`
}

const selectItems = `SELECT id, term, meaning, difficulty, ease_factor, interval_days, review_count,
	last_reviewed_at, next_due_at, last_quality, status, correct_count, incorrect_count, streak
	FROM items`

func toRow(r domain.ItemRecord) itemRow {
	row := itemRow{
		ID:             r.ID.String(),
		Term:           r.Term,
		Meaning:        r.Meaning,
		Difficulty:     r.Difficulty,
		EaseFactor:     r.EaseFactor,
		IntervalDays:   r.IntervalDays,
		ReviewCount:    r.ReviewCount,
		LastReviewedAt: millis(r.LastReviewedAt),
		NextDueAt:      millis(r.NextDueAt),
		Status:         r.Status.String(),
		CorrectCount:   r.CorrectCount,
		IncorrectCount: r.IncorrectCount,
		Streak:         r.Streak,
	}
	if r.LastQuality != nil {
		row.LastQuality = sql.NullInt64{Int64: int64(*r.LastQuality), Valid: true}
	}
	return row
}

func (row itemRow) record() (domain.ItemRecord, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return domain.ItemRecord{}, fmt.Errorf("%w: item id %q: %v", domain.ErrInvalidID, row.ID, err)
	}
	status, err := domain.ParseStatus(row.Status)
	if err != nil {
		return domain.ItemRecord{}, err
	}
	r := domain.ItemRecord{
		ID:             id,
		Term:           row.Term,
		Meaning:        row.Meaning,
		Difficulty:     row.Difficulty,
		EaseFactor:     row.EaseFactor,
		IntervalDays:   row.IntervalDays,
		ReviewCount:    row.ReviewCount,
		LastReviewedAt: timestamp(row.LastReviewedAt),
		NextDueAt:      timestamp(row.NextDueAt),
		Status:         status,
		CorrectCount:   row.CorrectCount,
		IncorrectCount: row.IncorrectCount,
		Streak:         row.Streak,
	}
	if row.LastQuality.Valid {
		q := domain.Quality(row.LastQuality.Int64)
		r.LastQuality = &q
	}
	return r, nil
}

func millis(ts domain.Timestamp) sql.NullInt64 {
	t, ok := ts.Time()
	if !ok {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func timestamp(v sql.NullInt64) domain.Timestamp {
	if !v.Valid {
		return domain.Unset()
	}
	return domain.At(time.UnixMilli(v.Int64))
}

// ItemStore implements store.ItemStore on SQLite.
type ItemStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

var _ store.ItemStore = (*ItemStore)(nil)

// NewItemStore creates an item store over db.
func NewItemStore(db *sqlx.DB, logger *slog.Logger) *ItemStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ItemStore{db: db, logger: logger.With(slog.String("component", "sqlite_item_store"))}
}

// FetchDue implements store.ItemStore.
func (s *ItemStore) FetchDue(ctx context.Context, asOf time.Time, limit int) ([]domain.ItemRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	var rows []itemRow
	err := s.db.SelectContext(ctx, &rows,
		selectItems+` WHERE next_due_at IS NOT NULL AND next_due_at <= ? ORDER BY next_due_at, id LIMIT ?`,
		asOf.UnixMilli(), limit)
	if err != nil {
		s.logger.Error("failed to fetch due items", slog.String("error", err.Error()))
		return nil, store.NewStoreError("item", "fetch_due", "query failed", err)
	}
	return records(rows)
}

// FetchNew implements store.ItemStore. Ids are stored as canonical lowercase
// hex, so text order matches byte order.
func (s *ItemStore) FetchNew(ctx context.Context, limit int) ([]domain.ItemRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	var rows []itemRow
	err := s.db.SelectContext(ctx, &rows,
		selectItems+` WHERE status = 'new' AND next_due_at IS NULL ORDER BY difficulty, id LIMIT ?`,
		limit)
	if err != nil {
		s.logger.Error("failed to fetch new items", slog.String("error", err.Error()))
		return nil, store.NewStoreError("item", "fetch_new", "query failed", err)
	}
	return records(rows)
}

// FetchByID implements store.ItemStore.
func (s *ItemStore) FetchByID(ctx context.Context, id uuid.UUID) (domain.ItemRecord, error) {
	var row itemRow
	err := s.db.GetContext(ctx, &row, selectItems+` WHERE id = ?`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ItemRecord{}, store.ErrItemNotFound
	}
	if err != nil {
		s.logger.Error("failed to fetch item",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return domain.ItemRecord{}, store.NewStoreError("item", "fetch_by_id", "query failed", err)
	}
	return row.record()
}

// Update implements store.ItemStore.
func (s *ItemStore) Update(ctx context.Context, record domain.ItemRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	result, err := s.db.NamedExecContext(ctx, `UPDATE items SET
			ease_factor = :ease_factor, interval_days = :interval_days, review_count = :review_count,
			last_reviewed_at = :last_reviewed_at, next_due_at = :next_due_at, last_quality = :last_quality,
			status = :status, correct_count = :correct_count, incorrect_count = :incorrect_count,
			streak = :streak
		WHERE id = :id`, toRow(record))
	if err != nil {
		s.logger.Error("failed to update item",
			slog.String("error", err.Error()),
			slog.String("item_id", record.ID.String()))
		return store.NewStoreError("item", "update", "exec failed",
			fmt.Errorf("%w: %w", store.ErrUpdateFailed, err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrItemNotFound
	}
	return nil
}

// Insert implements store.ItemStore.
func (s *ItemStore) Insert(ctx context.Context, records []domain.ItemRecord) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: item %s: %w", store.ErrInvalidEntity, r.ID, err)
		}
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", store.ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range records {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO items (
				id, term, meaning, difficulty, ease_factor, interval_days, review_count,
				last_reviewed_at, next_due_at, last_quality, status, correct_count, incorrect_count, streak
			) VALUES (
				:id, :term, :meaning, :difficulty, :ease_factor, :interval_days, :review_count,
				:last_reviewed_at, :next_due_at, :last_quality, :status, :correct_count, :incorrect_count, :streak
			)`, toRow(r))
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: %s", store.ErrItemExists, r.ID)
			}
			s.logger.Error("failed to insert item",
				slog.String("error", err.Error()),
				slog.String("item_id", r.ID.String()))
			return store.NewStoreError("item", "insert", "exec failed", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit transaction: %w", store.ErrTransactionFailed, err)
	}
	s.logger.Info("inserted items", slog.Int("count", len(records)))
	return nil
}

// ResetAll implements store.ItemStore.
func (s *ItemStore) ResetAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `UPDATE items SET
			ease_factor = ?, interval_days = 0, review_count = 0,
			last_reviewed_at = NULL, next_due_at = NULL, last_quality = NULL,
			status = 'new', correct_count = 0, incorrect_count = 0, streak = 0`,
		domain.DefaultEaseFactor)
	if err != nil {
		s.logger.Error("failed to reset items", slog.String("error", err.Error()))
		return store.NewStoreError("item", "reset_all", "exec failed", err)
	}
	return nil
}

func records(rows []itemRow) ([]domain.ItemRecord, error) {
	out := make([]domain.ItemRecord, 0, len(rows))
	for _, row := range rows {
		r, err := row.record()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// isUniqueViolation matches the driver's constraint message; modernc error
// codes are not exported as stable sentinels.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}
