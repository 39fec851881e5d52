// internal/app/system/seeding/seeding.go
package seeding

import (
	"context"
	"errors"
	"fmt"

	userstore "github.com/alexb007/munaz-backend/internal/app/store/users"
	"github.com/alexb007/munaz-backend/internal/app/system/authutil"
	"github.com/alexb007/munaz-backend/internal/app/system/status"
	"github.com/alexb007/munaz-backend/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Config names the bootstrap administrator. An empty username disables
// seeding.
type Config struct {
	AdminUsername string
	AdminPassword string
}

// SeedAll seeds default data if not already present.
func SeedAll(ctx context.Context, db *mongo.Database, cfg Config, logger *zap.Logger) error {
	if err := seedAdmin(ctx, userstore.New(db), cfg, logger); err != nil {
		return err
	}
	return nil
}

// seedAdmin creates the bootstrap admin when no active admin exists, so a
// fresh deployment can log in and unlock accounts.
func seedAdmin(ctx context.Context, users *userstore.Store, cfg Config, logger *zap.Logger) error {
	if cfg.AdminUsername == "" {
		return nil
	}
	n, err := users.CountActiveAdmins(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return nil
	}

	if err := authutil.ValidatePassword(cfg.AdminPassword); err != nil {
		return fmt.Errorf("seed admin password: %w", err)
	}
	hash, err := authutil.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	_, err = users.Create(ctx, models.User{
		Username:     cfg.AdminUsername,
		FullName:     "Administrator",
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		Status:       status.Active,
	})
	if errors.Is(err, userstore.ErrDuplicateUsername) {
		// The account exists but is disabled or not an admin; leave it alone.
		logger.Warn("seed admin username taken by a non-active or non-admin account",
			zap.String("username", cfg.AdminUsername))
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	logger.Info("seeded admin account", zap.String("username", cfg.AdminUsername))
	return nil
}
