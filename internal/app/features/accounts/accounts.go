// Package accounts provides the administrator endpoints around login
// protection: unlocking a locked account and inspecting its attempts.
//
// Endpoints (mounted at /api/users, admin only unless noted):
//   - POST /{id}/unblock/        - re-enable a locked account
//   - GET  /{id}/login-stats/    - attempt counts and last login (admin or self)
//   - GET  /{id}/login-attempts/ - recent attempts, newest first
//   - GET  /{id}/events/         - lockout and unlock audit trail
package accounts

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	errorsfeature "github.com/alexb007/munaz-backend/internal/app/features/errors"
	"github.com/alexb007/munaz-backend/internal/app/store/audit"
	"github.com/alexb007/munaz-backend/internal/app/system/auth"
	"github.com/alexb007/munaz-backend/internal/app/system/authz"
	"github.com/alexb007/munaz-backend/internal/app/system/jsonutil"
	"github.com/alexb007/munaz-backend/internal/app/system/loginguard"
	"github.com/alexb007/munaz-backend/internal/app/system/timeouts"
	"github.com/alexb007/munaz-backend/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	defaultAttemptLimit = 50
	maxAttemptLimit     = 500
	msgUserNotFound     = "User not found"
)

// Admin is satisfied by *loginguard.Guard.
type Admin interface {
	Unlock(ctx context.Context, userID primitive.ObjectID) error
	Stats(ctx context.Context, userID primitive.ObjectID) (models.LoginStats, error)
}

// Users loads accounts by id.
type Users interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Attempts lists a user's ledger records.
type Attempts interface {
	GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.LoginAttempt, error)
}

// Audit is satisfied by *auditlog.Logger.
type Audit interface {
	AccountUnlocked(ctx context.Context, r *http.Request, actorID, userID primitive.ObjectID)
	Events(ctx context.Context, userID primitive.ObjectID, limit int64) ([]audit.Event, error)
}

// Handler serves the account administration endpoints.
type Handler struct {
	admin    Admin
	users    Users
	attempts Attempts
	audit    Audit
	errLog   *errorsfeature.ErrorLogger
	logger   *zap.Logger
}

func NewHandler(admin Admin, users Users, attempts Attempts, audit Audit, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{admin: admin, users: users, attempts: attempts, audit: audit, errLog: errLog, logger: logger}
}

// Routes returns a chi.Router with the account routes mounted. The caller
// applies RequireAuth.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.With(selfOrAdmin).Get("/{id}/login-stats/", h.LoginStats)

	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireRole(models.RoleAdmin))
		ar.Post("/{id}/unblock/", h.Unblock)
		ar.Get("/{id}/login-attempts/", h.LoginAttempts)
		ar.Get("/{id}/events/", h.Events)
	})
	return r
}

// selfOrAdmin lets a user read their own record; everyone else needs admin.
func selfOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if authz.IsAdmin(r) {
			next.ServeHTTP(w, r)
			return
		}
		id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
		if err != nil || !authz.IsSelf(r, id) {
			jsonutil.Detail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loadUser resolves the {id} parameter. It writes the response and returns
// nil when the user cannot be loaded.
func (h *Handler) loadUser(ctx context.Context, w http.ResponseWriter, r *http.Request) *models.User {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, msgUserNotFound)
		return nil
	}
	u, err := h.users.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonutil.NotFound(w, msgUserNotFound)
		return nil
	}
	if err != nil {
		h.errLog.Log(r, "failed to load user", err)
		jsonutil.InternalError(w, "failed to load user")
		return nil
	}
	return u
}

// Unblock re-enables an account and purges its old failures.
func (h *Handler) Unblock(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u := h.loadUser(ctx, w, r)
	if u == nil {
		return
	}
	if err := h.admin.Unlock(ctx, u.ID); err != nil {
		if errors.Is(err, loginguard.ErrUserNotFound) {
			jsonutil.NotFound(w, msgUserNotFound)
			return
		}
		h.errLog.LogWithFields(r, "failed to unlock user", err, zap.String("user_id", u.ID.Hex()))
		jsonutil.InternalError(w, "failed to unblock user")
		return
	}
	if actor, ok := auth.CurrentUser(r); ok {
		h.audit.AccountUnlocked(ctx, r, actor.ID, u.ID)
	}
	jsonutil.OK(w, map[string]string{"message": "User " + u.Username + " has been unblocked"})
}

// LoginStats returns the user's attempt summary.
func (h *Handler) LoginStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u := h.loadUser(ctx, w, r)
	if u == nil {
		return
	}
	stats, err := h.admin.Stats(ctx, u.ID)
	if err != nil {
		h.errLog.LogWithFields(r, "failed to compute login stats", err, zap.String("user_id", u.ID.Hex()))
		jsonutil.InternalError(w, "failed to load login stats")
		return
	}
	jsonutil.OK(w, stats)
}

// parseLimit reads ?limit= (default 50, max 500). It writes a 400 and
// returns false on a bad value.
func parseLimit(w http.ResponseWriter, r *http.Request) (int64, bool) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return defaultAttemptLimit, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		jsonutil.BadRequest(w, "limit must be a positive integer")
		return 0, false
	}
	return min(n, maxAttemptLimit), true
}

// LoginAttempts lists the user's most recent attempts.
func (h *Handler) LoginAttempts(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u := h.loadUser(ctx, w, r)
	if u == nil {
		return
	}
	recs, err := h.attempts.GetByUser(ctx, u.ID, limit)
	if err != nil {
		h.errLog.LogWithFields(r, "failed to list login attempts", err, zap.String("user_id", u.ID.Hex()))
		jsonutil.InternalError(w, "failed to load login attempts")
		return
	}
	if recs == nil {
		recs = []models.LoginAttempt{}
	}
	jsonutil.OK(w, recs)
}

// Events lists the user's lockout and unlock history, newest first.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u := h.loadUser(ctx, w, r)
	if u == nil {
		return
	}
	events, err := h.audit.Events(ctx, u.ID, limit)
	if err != nil {
		h.errLog.LogWithFields(r, "failed to list audit events", err, zap.String("user_id", u.ID.Hex()))
		jsonutil.InternalError(w, "failed to load account events")
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	jsonutil.OK(w, events)
}
