package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/scry-vocab/internal/cache"
	"github.com/phrazzld/scry-vocab/internal/config"
	"github.com/phrazzld/scry-vocab/internal/domain/queue"
	"github.com/phrazzld/scry-vocab/internal/domain/srs"
	"github.com/phrazzld/scry-vocab/internal/events"
	"github.com/phrazzld/scry-vocab/internal/importer"
	"github.com/phrazzld/scry-vocab/internal/jobs"
	"github.com/phrazzld/scry-vocab/internal/platform/postgres"
	"github.com/phrazzld/scry-vocab/internal/platform/redis"
	"github.com/phrazzld/scry-vocab/internal/platform/sqlite"
	"github.com/phrazzld/scry-vocab/internal/service/session"
	"github.com/phrazzld/scry-vocab/internal/snapshot"
	"github.com/phrazzld/scry-vocab/internal/store"
)

// application holds the shared dependencies of every command and releases
// them in cleanup.
type application struct {
	config *config.Config
	logger *slog.Logger

	pgDB     *sql.DB
	sqliteDB *sqlx.DB
	rdb      *goredis.Client

	cache     *cache.RecordCache
	items     *cache.CachedItemStore
	snapshots store.SnapshotStore

	policy     snapshot.Policy
	srsService srs.Service
	emitter    *events.InMemoryEmitter
	machine    *session.Machine
	importer   *importer.Importer
	scheduler  *jobs.Scheduler
}

// newApplication opens the configured stores and wires the session machine.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{config: cfg, logger: logger}

	loc, err := cfg.Study.Location()
	if err != nil {
		return nil, err
	}
	app.policy = snapshot.NewPolicy(cfg.Study.RecoverySnapshotTTL, loc)

	base, dbSnapshots, err := app.openItemStore(ctx)
	if err != nil {
		app.cleanup()
		return nil, err
	}

	app.snapshots = dbSnapshots
	if cfg.Redis.Enabled() {
		app.rdb, err = redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.snapshots = redis.NewSnapshotStore(app.rdb, cfg.Redis.KeyPrefix, cfg.Study.RecoverySnapshotTTL, logger)
		logger.Info("session snapshots stored in redis")
	}

	app.cache = cache.NewRecordCache()
	app.items = cache.NewCachedItemStore(base, app.cache, logger)

	app.srsService = srs.NewDefaultService()

	app.emitter = events.NewInMemoryEmitter(logger)
	app.emitter.Register(events.LogHandler(logger))

	app.machine = session.NewMachine(
		app.items,
		app.snapshots,
		app.srsService,
		app.emitter,
		session.Config{
			Caps: queue.Caps{
				NewItems: cfg.Study.NewItemsPerDayGoal,
				Reviews:  cfg.Study.ReviewsPerDayGoal,
			},
			Policy: app.policy,
		},
		logger,
	)

	app.importer = importer.New(app.items, logger)

	rollover := jobs.NewRollover(app.snapshots, app.cache, app.policy, logger)
	app.scheduler = jobs.NewScheduler(loc, rollover, logger)

	return app, nil
}

func (app *application) openItemStore(ctx context.Context) (store.ItemStore, store.SnapshotStore, error) {
	cfg := app.config.Database
	switch cfg.Driver {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.URL, app.logger)
		if err != nil {
			return nil, nil, err
		}
		app.pgDB = db
		return postgres.NewPostgresItemStore(db, app.logger), postgres.NewPostgresSnapshotStore(db, app.logger), nil
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.URL, app.logger)
		if err != nil {
			return nil, nil, err
		}
		app.sqliteDB = db
		return sqlite.NewItemStore(db, app.logger), sqlite.NewSnapshotStore(db, app.logger), nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// cleanup closes every open connection. Safe to call more than once.
func (app *application) cleanup() {
	if app.scheduler != nil {
		app.scheduler.Stop()
		app.scheduler = nil
	}
	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Error("failed to close redis client", slog.String("error", err.Error()))
		}
		app.rdb = nil
	}
	if app.pgDB != nil {
		if err := app.pgDB.Close(); err != nil {
			app.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
		app.pgDB = nil
	}
	if app.sqliteDB != nil {
		if err := app.sqliteDB.Close(); err != nil {
			app.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
		app.sqliteDB = nil
	}
}
