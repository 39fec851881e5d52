// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/alexb007/munaz-backend/internal/app/store/audit"
	"github.com/alexb007/munaz-backend/internal/app/system/network"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for Config.Mode.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config holds audit logging configuration.
type Config struct {
	Mode string // all, db, log or off; empty means all
}

// Store is satisfied by *audit.Store.
type Store interface {
	Log(ctx context.Context, event audit.Event) error
	GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]audit.Event, error)
}

// Logger writes account audit events to MongoDB and zap. A nil *Logger is
// a no-op.
type Logger struct {
	store  Store
	zapLog *zap.Logger
	mode   string
}

func New(store Store, zapLog *zap.Logger, cfg Config) *Logger {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeAll
	}
	return &Logger{store: store, zapLog: zapLog, mode: mode}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}
	l.zapLog.Info("audit event", fields...)
}

// Log records event according to the configured mode. Store failures are
// logged, not returned.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil || l.mode == ModeOff {
		return
	}
	if l.mode == ModeAll || l.mode == ModeLog {
		l.logToZap(event)
	}
	if l.mode == ModeAll || l.mode == ModeDB {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// AccountLocked records an automatic lockout.
func (l *Logger) AccountLocked(ctx context.Context, userID primitive.ObjectID, ip, userAgent string, failures int64) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAccount,
		EventType: audit.EventAccountLocked,
		UserID:    &userID,
		IP:        ip,
		UserAgent: userAgent,
		Details:   map[string]string{"failures": strconv.FormatInt(failures, 10)},
	})
}

// AccountUnlocked records an administrator re-enabling an account.
func (l *Logger) AccountUnlocked(ctx context.Context, r *http.Request, actorID, userID primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAdmin,
		EventType: audit.EventAccountUnlocked,
		UserID:    &userID,
		ActorID:   &actorID,
		IP:        network.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
}

// Events returns a user's audit trail, newest first.
func (l *Logger) Events(ctx context.Context, userID primitive.ObjectID, limit int64) ([]audit.Event, error) {
	if l == nil {
		return nil, nil
	}
	return l.store.GetByUser(ctx, userID, limit)
}
