package ratelimit

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler runs Cleanup on a fixed interval.
type Scheduler struct {
	limiter  *Limiter
	logs     LogCleaner
	interval time.Duration
	logger   *slog.Logger
}

// NewScheduler returns a Scheduler. An interval of zero means hourly.
func NewScheduler(l *Limiter, logs LogCleaner, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{limiter: l, logs: logs, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, cleaning up on every tick.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single cleanup and logs the outcome.
func (s *Scheduler) RunOnce(ctx context.Context) {
	rep, err := s.limiter.Cleanup(ctx, s.logs)
	if err != nil {
		s.logger.Error("rate limit cleanup failed", "error", err)
		return
	}
	s.logger.Info("rate limit cleanup",
		"expired_blocks", rep.ExpiredBlocks,
		"idle_requests", rep.IdleRequests,
		"security_logs", rep.SecurityLogs,
	)
}
