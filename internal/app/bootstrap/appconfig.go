// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers the framework-level settings (ports, TLS,
// logging, CORS, body limits). Everything below is specific to the
// inspection backend and is loaded in LoadConfig.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// JWT issuance
	JWTSecret     string
	JWTIssuer     string
	JWTAccessTTL  time.Duration // default 5m
	JWTRefreshTTL time.Duration // default 24h

	// Login guard
	LockoutThreshold          int           // failures inside the window that disable an account (default 3)
	LockoutWindow             time.Duration // default 15m
	UnlockPurgeAfter          time.Duration // failed records older than this are deleted on unlock (default 1h)
	StatsWindow               time.Duration // default 24h
	RecordAccountLessAttempts bool          // record failures against unknown usernames

	// Account audit trail destination: all, db, log or off.
	AuditLog string

	// Retention for login_attempts, enforced by the background task runner.
	LoginAttemptRetention time.Duration

	// API CORS origins. Empty or "*" allows any origin.
	APICORSOrigins []string

	// Per-operation timeouts
	TimeoutShort  time.Duration
	TimeoutUpload time.Duration

	// File storage configuration
	StorageType      string // "local" or "s3"
	StorageLocalPath string
	StorageLocalURL  string

	// S3/CloudFront configuration (only used if StorageType is "s3")
	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string
	StorageCFURL       string
	StorageCFKeyPairID string
	StorageCFKeyPath   string

	// Admin seeding configuration
	SeedAdminUsername string
	SeedAdminPassword string
}
