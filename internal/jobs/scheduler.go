// Package jobs runs the periodic maintenance work: lifting expired
// suspensions and trimming the system log table.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const logRetentionSchedule = "@daily"

// Expirer fulfils temporary suspensions whose end has passed.
type Expirer interface {
	ExpireDue(ctx context.Context, now time.Time) (int, error)
}

// LogPurger deletes system log rows older than the retention window.
type LogPurger func(ctx context.Context, now time.Time) (int64, error)

type Scheduler struct {
	cron           *cron.Cron
	expirer        Expirer
	purgeLogs      LogPurger
	expirySchedule string
	now            func() time.Time
}

func NewScheduler(expirer Expirer, purgeLogs LogPurger, expirySchedule string) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		expirer:        expirer,
		purgeLogs:      purgeLogs,
		expirySchedule: expirySchedule,
		now:            time.Now,
	}
}

// Start registers the jobs and starts the cron loop. Jobs run with ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.expirySchedule, func() { s.RunExpiry(ctx) }); err != nil {
		return fmt.Errorf("schedule expiry job: %w", err)
	}
	if s.purgeLogs != nil {
		if _, err := s.cron.AddFunc(logRetentionSchedule, func() { s.RunLogRetention(ctx) }); err != nil {
			return fmt.Errorf("schedule log retention job: %w", err)
		}
	}

	s.cron.Start()
	slog.Info("scheduler started", "expiry_schedule", s.expirySchedule)
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) RunExpiry(ctx context.Context) {
	expired, err := s.expirer.ExpireDue(ctx, s.now().UTC())
	if err != nil {
		slog.ErrorContext(ctx, "suspension expiry failed", "action", "expire_due", "expired", expired, "error", err.Error())
		return
	}
	if expired > 0 {
		slog.InfoContext(ctx, "suspensions expired", "action", "expire_due", "expired", expired)
	}
}

func (s *Scheduler) RunLogRetention(ctx context.Context) {
	deleted, err := s.purgeLogs(ctx, s.now().UTC())
	if err != nil {
		slog.ErrorContext(ctx, "log cleanup failed", "action", "purge_system_logs", "error", err.Error())
		return
	}
	if deleted > 0 {
		slog.InfoContext(ctx, "log cleanup completed", "deleted", deleted)
	}
}
