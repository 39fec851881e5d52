// internal/domain/models/loginattempt.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LoginAttempt is one authentication attempt, successful or not.
// Records are append-only: inserted once by the ledger and never updated.
// UserID is nil only for attempts against unknown usernames, and only when
// the guard is configured to keep those.
type LoginAttempt struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID     *primitive.ObjectID `bson:"user_id" json:"user_id"`
	IPAddress  string              `bson:"ip_address" json:"ip_address"`
	UserAgent  string              `bson:"user_agent" json:"user_agent"`
	Timestamp  time.Time           `bson:"timestamp" json:"timestamp"`
	Successful bool                `bson:"successful" json:"successful"`
}

// LoginStats summarizes a user's attempt history for administrators.
type LoginStats struct {
	TotalAttempts         int64      `json:"total_attempts"`
	FailedAttempts24h     int64      `json:"failed_attempts_24h"`
	SuccessfulAttempts24h int64      `json:"successful_attempts_24h"`
	LastLogin             *time.Time `json:"last_login"`
}
