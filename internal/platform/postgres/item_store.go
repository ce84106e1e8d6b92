package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-vocab/internal/domain"
	"github.com/phrazzld/scry-vocab/internal/platform/logger"
	"github.com/phrazzld/scry-vocab/internal/store"
)

const itemColumns = `id, term, meaning, difficulty, ease_factor, interval_days, review_count,
	last_reviewed_at, next_due_at, last_quality, status, correct_count, incorrect_count, streak`

// PostgresItemStore implements store.ItemStore on PostgreSQL.
type PostgresItemStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ItemStore = (*PostgresItemStore)(nil)

// NewPostgresItemStore creates a store over db, which may be a *sql.DB or a
// *sql.Tx. A nil logger falls back to slog.Default.
func NewPostgresItemStore(db store.DBTX, logger *slog.Logger) *PostgresItemStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "item_store")),
	}
}

// WithTx returns a store that runs its queries inside tx.
func (s *PostgresItemStore) WithTx(tx *sql.Tx) *PostgresItemStore {
	return &PostgresItemStore{db: tx, logger: s.logger}
}

func (s *PostgresItemStore) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// FetchDue implements store.ItemStore.
func (s *PostgresItemStore) FetchDue(ctx context.Context, asOf time.Time, limit int) ([]domain.ItemRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `SELECT ` + itemColumns + `
		FROM items
		WHERE next_due_at IS NOT NULL AND next_due_at <= $1
		ORDER BY next_due_at ASC, id ASC
		LIMIT $2`

	records, err := s.query(ctx, query, asOf.UTC(), limit)
	if err != nil {
		s.log(ctx).Error("failed to fetch due items",
			slog.String("error", err.Error()),
			slog.Time("as_of", asOf))
		return nil, store.NewStoreError("item", "fetch_due", "query failed", err)
	}
	s.log(ctx).Debug("fetched due items", slog.Int("count", len(records)))
	return records, nil
}

// FetchNew implements store.ItemStore.
func (s *PostgresItemStore) FetchNew(ctx context.Context, limit int) ([]domain.ItemRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	query := `SELECT ` + itemColumns + `
		FROM items
		WHERE status = 'new' AND next_due_at IS NULL
		ORDER BY difficulty ASC, id ASC
		LIMIT $1`

	records, err := s.query(ctx, query, limit)
	if err != nil {
		s.log(ctx).Error("failed to fetch new items", slog.String("error", err.Error()))
		return nil, store.NewStoreError("item", "fetch_new", "query failed", err)
	}
	s.log(ctx).Debug("fetched new items", slog.Int("count", len(records)))
	return records, nil
}

// FetchByID implements store.ItemStore.
func (s *PostgresItemStore) FetchByID(ctx context.Context, id uuid.UUID) (domain.ItemRecord, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	record, err := scanItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.log(ctx).Debug("item not found", slog.String("item_id", id.String()))
			return domain.ItemRecord{}, store.ErrItemNotFound
		}
		s.log(ctx).Error("failed to fetch item",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return domain.ItemRecord{}, store.NewStoreError("item", "fetch_by_id", "query failed", MapError(err))
	}
	return record, nil
}

// Update implements store.ItemStore.
func (s *PostgresItemStore) Update(ctx context.Context, record domain.ItemRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `UPDATE items SET
			ease_factor = $2, interval_days = $3, review_count = $4,
			last_reviewed_at = $5, next_due_at = $6, last_quality = $7, status = $8,
			correct_count = $9, incorrect_count = $10, streak = $11, updated_at = NOW()
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.EaseFactor,
		record.IntervalDays,
		record.ReviewCount,
		record.LastReviewedAt,
		record.NextDueAt,
		qualityValue(record.LastQuality),
		record.Status,
		record.CorrectCount,
		record.IncorrectCount,
		record.Streak,
	)
	if err != nil {
		s.log(ctx).Error("failed to update item",
			slog.String("error", err.Error()),
			slog.String("item_id", record.ID.String()))
		return store.NewStoreError("item", "update", "exec failed",
			fmt.Errorf("%w: %w", store.ErrUpdateFailed, MapError(err)))
	}
	if err := CheckRowsAffected(result, store.ErrItemNotFound); err != nil {
		return err
	}
	return nil
}

// Insert implements store.ItemStore. When the store was created over a
// *sql.DB the batch runs in its own transaction; inside WithTx it joins the
// caller's.
func (s *PostgresItemStore) Insert(ctx context.Context, records []domain.ItemRecord) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: item %s: %w", store.ErrInvalidEntity, r.ID, err)
		}
	}
	if len(records) == 0 {
		return nil
	}

	db, ok := s.db.(*sql.DB)
	if !ok {
		return s.insertAll(ctx, s.db, records)
	}
	return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		return s.insertAll(ctx, tx, records)
	})
}

func (s *PostgresItemStore) insertAll(ctx context.Context, db store.DBTX, records []domain.ItemRecord) error {
	query := `INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	for _, r := range records {
		_, err := db.ExecContext(ctx, query,
			r.ID,
			r.Term,
			r.Meaning,
			r.Difficulty,
			r.EaseFactor,
			r.IntervalDays,
			r.ReviewCount,
			r.LastReviewedAt,
			r.NextDueAt,
			qualityValue(r.LastQuality),
			r.Status,
			r.CorrectCount,
			r.IncorrectCount,
			r.Streak,
		)
		if err != nil {
			s.log(ctx).Error("failed to insert item",
				slog.String("error", err.Error()),
				slog.String("item_id", r.ID.String()))
			return MapUniqueViolation(err, store.ErrItemExists)
		}
	}
	s.log(ctx).Info("inserted items", slog.Int("count", len(records)))
	return nil
}

// ResetAll implements store.ItemStore.
func (s *PostgresItemStore) ResetAll(ctx context.Context) error {
	query := `UPDATE items SET
			ease_factor = $1, interval_days = 0, review_count = 0,
			last_reviewed_at = NULL, next_due_at = NULL, last_quality = NULL,
			status = 'new', correct_count = 0, incorrect_count = 0, streak = 0,
			updated_at = NOW()`

	result, err := s.db.ExecContext(ctx, query, domain.DefaultEaseFactor)
	if err != nil {
		s.log(ctx).Error("failed to reset items", slog.String("error", err.Error()))
		return store.NewStoreError("item", "reset_all", "exec failed", MapError(err))
	}
	if n, err := result.RowsAffected(); err == nil {
		s.log(ctx).Info("reset all items", slog.Int64("count", n))
	}
	return nil
}

func (s *PostgresItemStore) query(ctx context.Context, query string, args ...any) ([]domain.ItemRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.log(ctx).Error("failed to close rows", slog.String("error", cerr.Error()))
		}
	}()

	var records []domain.ItemRecord
	for rows.Next() {
		r, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.ItemRecord, error) {
	var (
		r       domain.ItemRecord
		quality sql.NullInt16
	)
	err := row.Scan(
		&r.ID,
		&r.Term,
		&r.Meaning,
		&r.Difficulty,
		&r.EaseFactor,
		&r.IntervalDays,
		&r.ReviewCount,
		&r.LastReviewedAt,
		&r.NextDueAt,
		&quality,
		&r.Status,
		&r.CorrectCount,
		&r.IncorrectCount,
		&r.Streak,
	)
	if err != nil {
		return domain.ItemRecord{}, err
	}
	if quality.Valid {
		q := domain.Quality(quality.Int16)
		r.LastQuality = &q
	}
	return r, nil
}

func qualityValue(q *domain.Quality) any {
	if q == nil {
		return nil
	}
	return int16(*q)
}
