package loginguard

import (
	"context"
	"errors"

	"github.com/alexb007/munaz-backend/internal/app/system/metrics"
	"github.com/alexb007/munaz-backend/internal/app/system/status"
	"github.com/alexb007/munaz-backend/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Unlock re-enables an account. Failed records older than UnlockPurgeAfter
// are then purged; a purge error is logged and not returned.
func (g *Guard) Unlock(ctx context.Context, userID primitive.ObjectID) error {
	if err := g.accounts.SetStatus(ctx, userID, status.Active); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}
		return persistence("unlock", err)
	}
	metrics.AccountUnlocksTotal.Inc()

	before := g.now().Add(-g.cfg.UnlockPurgeAfter)
	n, err := g.ledger.PurgeFailedBefore(ctx, userID, before)
	if err != nil {
		g.log.Warn("failed to purge old failed logins on unlock", zap.String("user_id", userID.Hex()), zap.Error(err))
		return nil
	}
	g.log.Info("account unlocked", zap.String("user_id", userID.Hex()), zap.Int64("purged_failures", n))
	return nil
}

// Stats summarizes a user's attempts. An account with no attempts yields
// zero counts and a nil LastLogin.
func (g *Guard) Stats(ctx context.Context, userID primitive.ObjectID) (models.LoginStats, error) {
	since := g.now().Add(-g.cfg.StatsWindow)

	total, err := g.ledger.CountByUser(ctx, userID)
	if err != nil {
		return models.LoginStats{}, persistence("count attempts", err)
	}
	failed, err := g.ledger.CountSince(ctx, userID, false, since)
	if err != nil {
		return models.LoginStats{}, persistence("count failed", err)
	}
	succeeded, err := g.ledger.CountSince(ctx, userID, true, since)
	if err != nil {
		return models.LoginStats{}, persistence("count successful", err)
	}
	last, err := g.ledger.MostRecentSuccessful(ctx, userID)
	if err != nil {
		return models.LoginStats{}, persistence("last login", err)
	}

	stats := models.LoginStats{
		TotalAttempts:         total,
		FailedAttempts24h:     failed,
		SuccessfulAttempts24h: succeeded,
	}
	if last != nil {
		ts := last.Timestamp
		stats.LastLogin = &ts
	}
	return stats, nil
}
