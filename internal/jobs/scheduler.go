package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// DailyAt is the local wall-clock time of the rollover job.
const DailyAt = "00:00"

// Scheduler owns the gocron scheduler and its jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	rollover  *Rollover
	timeout   time.Duration
	logger    *slog.Logger
}

// NewScheduler creates a scheduler running in loc.
func NewScheduler(loc *time.Location, rollover *Rollover, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(loc)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		rollover:  rollover,
		timeout:   time.Minute,
		logger:    logger.With(slog.String("component", "scheduler")),
	}
}

// Start registers the jobs and starts the scheduler without blocking.
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(1).Day().At(DailyAt).Tag("rollover").Do(s.runRollover); err != nil {
		return fmt.Errorf("failed to schedule rollover job: %w", err)
	}
	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", slog.String("rollover_at", DailyAt))
	return nil
}

// NextRun reports when the rollover job fires next.
func (s *Scheduler) NextRun() time.Time {
	_, next := s.scheduler.NextRun()
	return next
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runRollover() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	result, err := s.rollover.Run(ctx)
	if err != nil {
		s.logger.Error("rollover job failed", slog.String("error", err.Error()))
		return
	}
	s.logger.Info("rollover job completed",
		slog.Bool("snapshot_cleared", result.SnapshotCleared),
		slog.Int("cache_evicted", result.CacheEvicted))
}
