package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexb007/munaz-backend/internal/app/system/loginguard"
	"github.com/alexb007/munaz-backend/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type stubGuard struct {
	res *loginguard.Result
	err error
}

func (s stubGuard) Authenticate(*http.Request) (*loginguard.Result, error) {
	return s.res, s.err
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body["detail"]
}

func TestRequireAuth(t *testing.T) {
	user := &models.User{ID: primitive.NewObjectID(), Username: "alice", Role: models.RoleInspector}

	tests := []struct {
		name       string
		guard      stubGuard
		wantStatus int
		wantDetail string
	}{
		{"authenticated", stubGuard{res: &loginguard.Result{User: user, Token: "tok"}}, http.StatusOK, ""},
		{"invalid", stubGuard{err: loginguard.ErrInvalidCredentials}, http.StatusUnauthorized, msgInvalidCredentials},
		{"locked", stubGuard{err: loginguard.ErrAccountLocked}, http.StatusUnauthorized, msgInvalidCredentials},
		{"persistence", stubGuard{err: fmt.Errorf("x: %w", loginguard.ErrPersistence)}, http.StatusInternalServerError, msgUnavailable},
		{"unexpected", stubGuard{err: errors.New("boom")}, http.StatusInternalServerError, msgUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser *models.User
			var gotToken string
			h := NewMiddleware(tt.guard, zap.NewNop()).RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = CurrentUser(r)
				gotToken = Token(r)
				w.WriteHeader(http.StatusOK)
			}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile/", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if gotUser == nil || gotUser.ID != user.ID {
					t.Errorf("user in context = %v, want %v", gotUser, user.ID)
				}
				if gotToken != "tok" {
					t.Errorf("token = %q, want tok", gotToken)
				}
				return
			}
			if got := detail(t, rec); got != tt.wantDetail {
				t.Errorf("detail = %q, want %q", got, tt.wantDetail)
			}
		})
	}
}

func TestRequireAuth_LockedAndInvalidAreIdentical(t *testing.T) {
	render := func(err error) (int, string, string) {
		rec := httptest.NewRecorder()
		WriteRejection(rec, zap.NewNop(), httptest.NewRequest(http.MethodPost, "/api/token/", nil), err)
		return rec.Code, rec.Body.String(), rec.Header().Get("WWW-Authenticate")
	}

	c1, b1, h1 := render(loginguard.ErrInvalidCredentials)
	c2, b2, h2 := render(loginguard.ErrAccountLocked)
	if c1 != c2 || b1 != b2 || h1 != h2 {
		t.Errorf("responses differ: (%d %q %q) vs (%d %q %q)", c1, b1, h1, c2, b2, h2)
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		allowed    []string
		wantStatus int
	}{
		{"no user", nil, []string{models.RoleAdmin}, http.StatusUnauthorized},
		{"wrong role", &models.User{Role: models.RoleWorker}, []string{models.RoleAdmin}, http.StatusForbidden},
		{"allowed", &models.User{Role: models.RoleAdmin}, []string{models.RoleAdmin}, http.StatusOK},
		{"one of several", &models.User{Role: models.RoleDeveloper}, []string{models.RoleInspector, models.RoleDeveloper}, http.StatusOK},
		{"case insensitive", &models.User{Role: "Admin"}, []string{"ADMIN"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := RequireRole(tt.allowed...)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.user != nil {
				req = WithTestUser(req, tt.user)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
