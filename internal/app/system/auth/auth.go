// Package auth puts the authenticated user into the request context.
//
// Every protected route goes through Middleware.RequireAuth, which runs the
// login guard with the bearer token verifier. Role checks layer on top with
// RequireRole.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexb007/munaz-backend/internal/app/system/jsonutil"
	"github.com/alexb007/munaz-backend/internal/app/system/loginguard"
	"github.com/alexb007/munaz-backend/internal/app/system/normalize"
	"github.com/alexb007/munaz-backend/internal/domain/models"
	"go.uber.org/zap"
)

// Client-facing messages. Locked and invalid share one message so a response
// never tells an attacker which accounts exist or are locked.
const (
	msgInvalidCredentials = "invalid credentials"
	msgUnavailable        = "authentication temporarily unavailable"
	msgForbidden          = "You do not have permission to perform this action."
)

// Authenticator is satisfied by *loginguard.Guard.
type Authenticator interface {
	Authenticate(r *http.Request) (*loginguard.Result, error)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

type ctxKey string

const (
	currentUserKey ctxKey = "currentUser"
	tokenKey       ctxKey = "token"
)

// CurrentUser returns the user & "found?" flag from the request context.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*models.User)
	return u, ok && u != nil
}

// Token returns the raw credential the request was authenticated with.
func Token(r *http.Request) string {
	s, _ := r.Context().Value(tokenKey).(string)
	return s
}

func withUser(r *http.Request, u *models.User, token string) *http.Request {
	ctx := context.WithValue(r.Context(), currentUserKey, u)
	ctx = context.WithValue(ctx, tokenKey, token)
	return r.WithContext(ctx)
}

// WithTestUser injects a user into the request context for testing.
func WithTestUser(r *http.Request, u *models.User) *http.Request {
	return withUser(r, u, "")
}

/*─────────────────────────────────────────────────────────────────────────────*
| Middleware                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// Middleware authenticates API requests.
type Middleware struct {
	guard  Authenticator
	logger *zap.Logger
}

func NewMiddleware(guard Authenticator, logger *zap.Logger) *Middleware {
	return &Middleware{guard: guard, logger: logger}
}

// RequireAuth rejects requests the guard does not authenticate.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, err := m.guard.Authenticate(r)
		if err != nil {
			WriteRejection(w, m.logger, r, err)
			return
		}
		next.ServeHTTP(w, withUser(r, res.User, res.Token))
	})
}

// WriteRejection renders an Authenticate error. Invalid and locked become the
// same 401; anything else is a 500 so a storage outage never reads as success.
func WriteRejection(w http.ResponseWriter, logger *zap.Logger, r *http.Request, err error) {
	switch {
	case errors.Is(err, loginguard.ErrInvalidCredentials), errors.Is(err, loginguard.ErrAccountLocked):
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
		jsonutil.Detail(w, http.StatusUnauthorized, msgInvalidCredentials)
	default:
		logger.Error("authentication failed closed", zap.String("path", r.URL.Path), zap.Error(err))
		jsonutil.Detail(w, http.StatusInternalServerError, msgUnavailable)
	}
}

// RequireRole returns middleware that ensures there is a user with one of
// the allowed roles. It must run after RequireAuth.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[normalize.Role(role)] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				jsonutil.Detail(w, http.StatusUnauthorized, msgInvalidCredentials)
				return
			}
			if _, has := set[normalize.Role(u.Role)]; !has {
				jsonutil.Detail(w, http.StatusForbidden, msgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
