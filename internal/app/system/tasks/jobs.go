// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultLoginAttemptRetention is how long ledger records are kept.
const DefaultLoginAttemptRetention = 90 * 24 * time.Hour

// AttemptPurger deletes ledger records older than a cutoff.
type AttemptPurger interface {
	PurgeBefore(ctx context.Context, before time.Time) (int64, error)
}

// LoginAttemptRetentionJob deletes login attempts older than retention.
// Retention must exceed the lockout and stats windows or it would change
// lockout decisions and admin statistics.
func LoginAttemptRetentionJob(ledger AttemptPurger, retention time.Duration, logger *zap.Logger) Job {
	if retention <= 0 {
		retention = DefaultLoginAttemptRetention
	}
	return Job{
		Name:     "login-attempt-retention",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-retention)
			n, err := ledger.PurgeBefore(ctx, cutoff)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("purged old login attempts",
					zap.Int64("deleted", n),
					zap.Time("cutoff", cutoff))
			}
			return nil
		},
	}
}
