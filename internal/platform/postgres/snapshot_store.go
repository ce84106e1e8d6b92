package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/scry-vocab/internal/store"
)

// PostgresSnapshotStore keeps the session snapshot in a single-row table.
type PostgresSnapshotStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.SnapshotStore = (*PostgresSnapshotStore)(nil)

// NewPostgresSnapshotStore creates a snapshot store over db.
func NewPostgresSnapshotStore(db store.DBTX, logger *slog.Logger) *PostgresSnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSnapshotStore{
		db:     db,
		logger: logger.With(slog.String("component", "snapshot_store")),
	}
}

// Save implements store.SnapshotStore.
func (s *PostgresSnapshotStore) Save(ctx context.Context, blob []byte) error {
	query := `INSERT INTO session_snapshots (id, blob, saved_at) VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET blob = EXCLUDED.blob, saved_at = EXCLUDED.saved_at`

	if _, err := s.db.ExecContext(ctx, query, blob); err != nil {
		s.logger.Error("failed to save snapshot", slog.String("error", err.Error()))
		return store.NewStoreError("snapshot", "save", "exec failed", MapError(err))
	}
	return nil
}

// Load implements store.SnapshotStore.
func (s *PostgresSnapshotStore) Load(ctx context.Context) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM session_snapshots WHERE id = 1`).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to load snapshot", slog.String("error", err.Error()))
		return nil, store.NewStoreError("snapshot", "load", "query failed", MapError(err))
	}
	return blob, nil
}

// Clear implements store.SnapshotStore.
func (s *PostgresSnapshotStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_snapshots`); err != nil {
		s.logger.Error("failed to clear snapshot", slog.String("error", err.Error()))
		return store.NewStoreError("snapshot", "clear", "exec failed", MapError(err))
	}
	return nil
}
