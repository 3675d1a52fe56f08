// Package jobs runs periodic housekeeping next to the HTTP server.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/skillswap/course-marketplace/internal/logger"
)

// PurgeSchedule runs the reset token purge at the top of every hour.
const PurgeSchedule = "0 * * * *"

// ResetTokenPurger deletes reset tokens that expired or were used before
// cutoff.
type ResetTokenPurger interface {
	PurgeStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// Scheduler owns the cron instance.
type Scheduler struct {
	cron   *cron.Cron
	resets ResetTokenPurger
	log    *logger.Logger
	now    func() time.Time
}

func NewScheduler(resets ResetTokenPurger, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		resets: resets,
		log:    log.With("component", "scheduler"),
		now:    time.Now,
	}
}

// Start registers the jobs and starts the cron goroutine.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(PurgeSchedule, s.PurgeResetTokens); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("scheduler started", "purge_schedule", PurgeSchedule)
	return nil
}

// Stop stops scheduling and waits for running jobs up to ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("scheduler stop timed out")
	}
}

// PurgeResetTokens removes stale reset tokens. Failures are logged; the
// next run retries.
func (s *Scheduler) PurgeResetTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := s.resets.PurgeStale(ctx, s.now().UTC())
	if err != nil {
		s.log.Error("reset token purge failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("reset tokens purged", "count", n)
	}
}
