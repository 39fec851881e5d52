// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexb007/munaz-backend/internal/app/system/auditlog"
	"github.com/alexb007/munaz-backend/internal/app/system/loginguard"
	"github.com/alexb007/munaz-backend/internal/app/system/tasks"
	"github.com/alexb007/munaz-backend/internal/app/system/tokens"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables (MUNAZ_MONGO_URI, ...).
const EnvVarPrefix = "MUNAZ"

const devJWTSecret = "dev-only-change-me-please-0123456789ABCDEF"

// minProdSecretLen is the shortest jwt_secret accepted when env is prod.
const minProdSecretLen = 32

// appConfigKeys are loaded via WAFFLE's config system from config files,
// MUNAZ_* environment variables and command-line flags.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "munaz", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "jwt_secret", Default: devJWTSecret, Desc: "HMAC key for signing JWTs (must be strong in production)"},
	{Name: "jwt_issuer", Default: "munaz", Desc: "iss claim of issued tokens"},
	{Name: "jwt_access_ttl", Default: "5m", Desc: "Access token lifetime"},
	{Name: "jwt_refresh_ttl", Default: "24h", Desc: "Refresh token lifetime"},

	// Login guard
	{Name: "lockout_threshold", Default: loginguard.DefaultThreshold, Desc: "Failed attempts inside the window that disable an account"},
	{Name: "lockout_window", Default: "15m", Desc: "Trailing window for counting failed attempts"},
	{Name: "unlock_purge_after", Default: "1h", Desc: "On unlock, delete failed attempts older than this"},
	{Name: "stats_window", Default: "24h", Desc: "Trailing window for login statistics"},
	{Name: "record_account_less_attempts", Default: false, Desc: "Record failed attempts against unknown usernames"},
	{Name: "login_attempt_retention", Default: "2160h", Desc: "Delete login attempts older than this"},

	{Name: "audit_log", Default: auditlog.ModeAll, Desc: "Account audit trail: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "api_cors_origins", Default: "*", Desc: "Comma-separated origins allowed on /api (* for any)"},

	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single database operations"},
	{Name: "timeout_upload", Default: "30s", Desc: "Timeout for photo uploads"},

	// File storage
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded photos"},
	{Name: "storage_local_url", Default: "/files", Desc: "URL prefix for serving local photos"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "uploads/", Desc: "S3 key prefix"},
	{Name: "storage_cf_url", Default: "", Desc: "CloudFront distribution URL"},
	{Name: "storage_cf_keypair_id", Default: "", Desc: "CloudFront key pair ID"},
	{Name: "storage_cf_key_path", Default: "", Desc: "Path to CloudFront private key file"},

	// Admin seeding
	{Name: "seed_admin_username", Default: "", Desc: "Username of the admin created on first start"},
	{Name: "seed_admin_password", Default: "", Desc: "Password of the seeded admin"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
// Precedence is flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret:     appValues.String("jwt_secret"),
		JWTIssuer:     appValues.String("jwt_issuer"),
		JWTAccessTTL:  appValues.Duration("jwt_access_ttl", tokens.DefaultAccessTTL),
		JWTRefreshTTL: appValues.Duration("jwt_refresh_ttl", tokens.DefaultRefreshTTL),

		LockoutThreshold:          appValues.Int("lockout_threshold"),
		LockoutWindow:             appValues.Duration("lockout_window", loginguard.DefaultWindow),
		UnlockPurgeAfter:          appValues.Duration("unlock_purge_after", loginguard.DefaultUnlockPurgeAfter),
		StatsWindow:               appValues.Duration("stats_window", loginguard.DefaultStatsWindow),
		RecordAccountLessAttempts: appValues.Bool("record_account_less_attempts"),
		LoginAttemptRetention:     appValues.Duration("login_attempt_retention", tasks.DefaultLoginAttemptRetention),

		AuditLog: appValues.String("audit_log"),

		APICORSOrigins: splitList(appValues.String("api_cors_origins")),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutUpload: appValues.Duration("timeout_upload", 30*time.Second),

		StorageType:        appValues.String("storage_type"),
		StorageLocalPath:   appValues.String("storage_local_path"),
		StorageLocalURL:    appValues.String("storage_local_url"),
		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageCFURL:       appValues.String("storage_cf_url"),
		StorageCFKeyPairID: appValues.String("storage_cf_keypair_id"),
		StorageCFKeyPath:   appValues.String("storage_cf_key_path"),

		SeedAdminUsername: appValues.String("seed_admin_username"),
		SeedAdminPassword: appValues.String("seed_admin_password"),
	}

	return coreCfg, appCfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateConfig rejects settings the server cannot run with.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if err := validateApp(coreCfg.Env, appCfg); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	return nil
}

func validateApp(env string, appCfg AppConfig) error {
	var errs []error
	if appCfg.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret is required"))
	} else if env == "prod" && (appCfg.JWTSecret == devJWTSecret || len(appCfg.JWTSecret) < minProdSecretLen) {
		errs = append(errs, fmt.Errorf("jwt_secret must be at least %d characters and not the development default in prod", minProdSecretLen))
	}
	if appCfg.LockoutThreshold < 1 {
		errs = append(errs, fmt.Errorf("lockout_threshold must be at least 1, got %d", appCfg.LockoutThreshold))
	}
	if appCfg.LockoutWindow <= 0 {
		errs = append(errs, errors.New("lockout_window must be positive"))
	}
	if appCfg.LoginAttemptRetention > 0 && appCfg.LoginAttemptRetention < max(appCfg.LockoutWindow, appCfg.StatsWindow) {
		errs = append(errs, errors.New("login_attempt_retention must not be shorter than lockout_window or stats_window"))
	}
	switch appCfg.AuditLog {
	case "", auditlog.ModeAll, auditlog.ModeDB, auditlog.ModeLog, auditlog.ModeOff:
	default:
		errs = append(errs, fmt.Errorf("unknown audit_log %q", appCfg.AuditLog))
	}
	switch appCfg.StorageType {
	case "", "local":
	case "s3":
		if appCfg.StorageS3Bucket == "" || appCfg.StorageS3Region == "" {
			errs = append(errs, errors.New("storage_s3_bucket and storage_s3_region are required for s3 storage"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage_type %q", appCfg.StorageType))
	}
	return errors.Join(errs...)
}
