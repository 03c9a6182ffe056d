// Package jobs runs the server's periodic maintenance.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"calendasync/internal/domain"
)

// PurgeExpiredCodes deletes one-time codes whose expiry has passed and returns how many went.
func PurgeExpiredCodes(ctx context.Context, codes domain.OneTimeCodeRepository, now time.Time) (int64, error) {
	n, err := codes.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired codes: %w", err)
	}
	return n, nil
}

// Scheduler wraps a cron runner. Jobs never overlap with themselves.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewScheduler reports recovered job panics and skipped runs through logger at error level.
func NewScheduler(logger *slog.Logger, timeout time.Duration) *Scheduler {
	cronLog := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		)),
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

// SchedulePurge registers PurgeExpiredCodes on schedule, e.g. "@every 15m" or "*/15 * * * *".
func (s *Scheduler) SchedulePurge(schedule string, codes domain.OneTimeCodeRepository) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		n, err := PurgeExpiredCodes(ctx, codes, s.now())
		if err != nil {
			s.logger.Error("purge job failed", "err", err)
			return
		}
		s.logger.Info("expired codes purged", "count", n)
	})
	if err != nil {
		return fmt.Errorf("invalid purge schedule %q: %w", schedule, err)
	}
	return nil
}

// Run starts the scheduler and blocks until ctx is done, then waits for running jobs.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}
