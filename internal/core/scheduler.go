package core

// scheduler.go runs background maintenance for the session service.
//
// Idle sessions are closed once they have not been used for the configured
// TTL. The sweeper is long-running and stops with its context.

import (
	"context"
	"log/slog"
	"time"
)

// StartSessionSweeper closes idle sessions every interval until ctx is done.
// It blocks; run it in its own goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if s.cfg.SessionTTL <= 0 || interval <= 0 {
		slog.Info("session sweeper disabled")
		return
	}
	slog.Info("session sweeper started",
		"ttl", s.cfg.SessionTTL.String(),
		"interval", interval.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session sweeper stopped")
			return
		case now := <-ticker.C:
			if closed := s.sweep(now); closed > 0 {
				slog.Info("closed idle sessions",
					"closed", closed,
					"open", s.SessionCount(),
				)
			}
		}
	}
}
