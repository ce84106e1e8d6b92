package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/scry-vocab/internal/config"
	"github.com/phrazzld/scry-vocab/internal/store"
)

// DefaultExpiry is the key expiry used when no fixed recovery TTL is
// configured. An end-of-day window is never longer than a day plus a DST shift.
const DefaultExpiry = 25 * time.Hour

const snapshotKey = "session:snapshot"

// SnapshotStore implements store.SnapshotStore on a single Redis key.
type SnapshotStore struct {
	rdb    *goredis.Client
	key    string
	expiry time.Duration
	logger *slog.Logger
}

var _ store.SnapshotStore = (*SnapshotStore)(nil)

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%w: redis ping: %w", store.ErrUnavailable, err)
	}
	return rdb, nil
}

// NewSnapshotStore creates a snapshot store. expiry <= 0 selects DefaultExpiry.
func NewSnapshotStore(rdb *goredis.Client, keyPrefix string, expiry time.Duration, logger *slog.Logger) *SnapshotStore {
	if logger == nil {
		logger = slog.Default()
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &SnapshotStore{
		rdb:    rdb,
		key:    Key(keyPrefix, snapshotKey),
		expiry: expiry,
		logger: logger.With(slog.String("component", "redis_snapshot_store")),
	}
}

// Key joins a prefix and a key with a colon, ignoring an empty prefix.
func Key(prefix, key string) string {
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}

// Save implements store.SnapshotStore.
func (s *SnapshotStore) Save(ctx context.Context, blob []byte) error {
	if err := s.rdb.Set(ctx, s.key, blob, s.expiry).Err(); err != nil {
		s.logger.Error("failed to save snapshot", slog.String("error", err.Error()))
		return store.NewStoreError("snapshot", "save", "redis set failed", err)
	}
	return nil
}

// Load implements store.SnapshotStore.
func (s *SnapshotStore) Load(ctx context.Context) ([]byte, error) {
	blob, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("failed to load snapshot", slog.String("error", err.Error()))
		return nil, store.NewStoreError("snapshot", "load", "redis get failed", err)
	}
	return blob, nil
}

// Clear implements store.SnapshotStore.
func (s *SnapshotStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		s.logger.Error("failed to clear snapshot", slog.String("error", err.Error()))
		return store.NewStoreError("snapshot", "clear", "redis del failed", err)
	}
	return nil
}
