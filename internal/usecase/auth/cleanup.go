package auth

import (
	"context"
	"time"

	"issue-tracker/internal/logger"

	"go.uber.org/zap"
)

const defaultRetention = 24 * time.Hour

// StartResetCleanupJob periodically deletes reset attempts that were closed
// or expired longer than the retention period ago. It blocks until ctx is done.
func (s *Service) StartResetCleanupJob(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Reset attempt cleanup job started",
		zap.Duration("interval", interval),
	)

	s.cleanupResetAttempts(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Reset attempt cleanup job stopped")
			return
		case <-ticker.C:
			s.cleanupResetAttempts(ctx)
		}
	}
}

func (s *Service) cleanupResetAttempts(ctx context.Context) {
	retention := s.reset.Retention
	if retention <= 0 {
		retention = defaultRetention
	}

	deleted, err := s.attempts.DeleteClosedBefore(ctx, s.now().UTC().Add(-retention))
	if err != nil {
		logger.Error("Failed to delete old reset attempts", zap.Error(err))
		return
	}

	logger.Debug("Old reset attempts cleaned up",
		zap.Int64("deleted", deleted),
		zap.Duration("older_than", retention),
	)
}
