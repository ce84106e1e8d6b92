package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	// registers the "sqlite" database/sql driver
	_ "modernc.org/sqlite"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id               TEXT PRIMARY KEY,
	term             TEXT NOT NULL CHECK (term <> ''),
	meaning          TEXT NOT NULL DEFAULT '',
	difficulty       INTEGER NOT NULL DEFAULT 0,
	ease_factor      REAL NOT NULL DEFAULT 2.5,
	interval_days    INTEGER NOT NULL DEFAULT 0,
	review_count     INTEGER NOT NULL DEFAULT 0,
	last_reviewed_at INTEGER,
	next_due_at      INTEGER,
	last_quality     INTEGER,
	status           TEXT NOT NULL DEFAULT 'new',
	correct_count    INTEGER NOT NULL DEFAULT 0,
	incorrect_count  INTEGER NOT NULL DEFAULT 0,
	streak           INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_items_next_due_at ON items (next_due_at);
CREATE INDEX IF NOT EXISTS idx_items_difficulty ON items (difficulty, id);
CREATE TABLE IF NOT EXISTS session_snapshots (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	blob     BLOB NOT NULL,
	saved_at INTEGER NOT NULL
);`

// Open opens (creating if needed) the database at path and ensures the
// schema exists.
func Open(ctx context.Context, path string, logger *slog.Logger) (*sqlx.DB, error) {
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := sqlx.ConnectContext(ctx, DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One writer at a time; this also keeps an in-memory database on a
	// single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if logger != nil {
		logger.Info("sqlite database ready", slog.String("path", path))
	}
	return db, nil
}
