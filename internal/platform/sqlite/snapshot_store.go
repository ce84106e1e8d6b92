package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/scry-vocab/internal/store"
)

// SnapshotStore keeps the session snapshot in a single-row table.
type SnapshotStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

var _ store.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore creates a snapshot store over db.
func NewSnapshotStore(db *sqlx.DB, logger *slog.Logger) *SnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotStore{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite_snapshot_store")),
		now:    time.Now,
	}
}

// Save implements store.SnapshotStore.
func (s *SnapshotStore) Save(ctx context.Context, blob []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_snapshots (id, blob, saved_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET blob = excluded.blob, saved_at = excluded.saved_at`,
		blob, s.now().UnixMilli())
	if err != nil {
		s.logger.Error("failed to save snapshot", slog.String("error", err.Error()))
		return store.NewStoreError("snapshot", "save", "exec failed", err)
	}
	return nil
}

// Load implements store.SnapshotStore.
func (s *SnapshotStore) Load(ctx context.Context) ([]byte, error) {
	var blob []byte
	err := s.db.GetContext(ctx, &blob, `SELECT blob FROM session_snapshots WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to load snapshot", slog.String("error", err.Error()))
		return nil, store.NewStoreError("snapshot", "load", "query failed", err)
	}
	return blob, nil
}

// Clear implements store.SnapshotStore.
func (s *SnapshotStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_snapshots`); err != nil {
		s.logger.Error("failed to clear snapshot", slog.String("error", err.Error()))
		return store.NewStoreError("snapshot", "clear", "exec failed", err)
	}
	return nil
}
