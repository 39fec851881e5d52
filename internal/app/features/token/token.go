// Package token serves the JWT endpoints: obtaining a pair with a username
// and password, and refreshing an access token.
//
// Endpoints (mounted at /api/token):
//   - POST /        - {"username", "password"} -> {"access", "refresh"}
//   - POST /refresh/ - {"refresh"} -> {"access"}
//
// Obtaining a pair goes through the login guard, so every password attempt is
// recorded and repeated failures lock the account. Refresh is not a
// credential-bearing attempt and bypasses the guard.
package token

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/alexb007/munaz-backend/internal/app/features/errors"
	userstore "github.com/alexb007/munaz-backend/internal/app/store/users"
	"github.com/alexb007/munaz-backend/internal/app/system/auth"
	"github.com/alexb007/munaz-backend/internal/app/system/jsonutil"
	"github.com/alexb007/munaz-backend/internal/app/system/loginguard"
	"github.com/alexb007/munaz-backend/internal/app/system/timeouts"
	"github.com/alexb007/munaz-backend/internal/app/system/tokens"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const msgTokenInvalid = "Token is invalid or expired"

// Handler serves the token endpoints.
type Handler struct {
	login  auth.Authenticator
	issuer *tokens.Issuer
	users  *userstore.Store
	errLog *errorsfeature.ErrorLogger
	logger *zap.Logger
}

// NewHandler wires the guard to a password verifier for the obtain endpoint.
func NewHandler(db *mongo.Database, guard *loginguard.Guard, issuer *tokens.Issuer, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	users := userstore.New(db)
	return &Handler{
		login:  guard.With(tokens.NewPasswordVerifier(issuer, users)),
		issuer: issuer,
		users:  users,
		errLog: errLog,
		logger: logger,
	}
}

// Routes returns a chi.Router with the token routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.Obtain)
	r.Post("/refresh/", h.Refresh)
	return r
}

// Obtain exchanges credentials for an access/refresh pair.
func (h *Handler) Obtain(w http.ResponseWriter, r *http.Request) {
	res, err := h.login.Authenticate(r)
	if err != nil {
		auth.WriteRejection(w, h.logger, r, err)
		return
	}

	refresh, err := h.issuer.IssueRefresh(res.User)
	if err != nil {
		h.errLog.Log(r, "failed to issue refresh token", err)
		jsonutil.InternalError(w, "failed to issue token")
		return
	}
	jsonutil.OK(w, tokens.Pair{Access: res.Token, Refresh: refresh})
}

type refreshInput struct {
	Refresh string `json:"refresh"`
}

// Refresh issues a new access token for a valid refresh token whose user is
// still active.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var in refreshInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if in.Refresh == "" {
		jsonutil.ValidationError(w, map[string]string{"refresh": "This field is required."})
		return
	}

	claims, err := h.issuer.Parse(in.Refresh, tokens.TypeRefresh)
	if err != nil {
		h.logger.Info("refresh rejected", zap.Error(err))
		jsonutil.Detail(w, http.StatusUnauthorized, msgTokenInvalid)
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		jsonutil.Detail(w, http.StatusUnauthorized, msgTokenInvalid)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	u, err := h.users.GetByID(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonutil.Detail(w, http.StatusUnauthorized, msgTokenInvalid)
		return
	}
	if err != nil {
		h.errLog.Log(r, "failed to load refresh token user", err)
		jsonutil.Detail(w, http.StatusInternalServerError, "authentication temporarily unavailable")
		return
	}
	// A locked account must not keep minting access tokens.
	if !u.IsActive() {
		jsonutil.Detail(w, http.StatusUnauthorized, msgTokenInvalid)
		return
	}

	access, err := h.issuer.IssueAccess(u)
	if err != nil {
		h.errLog.Log(r, "failed to issue access token", err)
		jsonutil.InternalError(w, "failed to issue token")
		return
	}
	jsonutil.OK(w, map[string]string{"access": access})
}
