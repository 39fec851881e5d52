package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	userstore "github.com/alexb007/munaz-backend/internal/app/store/users"
	"github.com/alexb007/munaz-backend/internal/app/system/status"
	"github.com/alexb007/munaz-backend/internal/app/system/tokens"
	"github.com/alexb007/munaz-backend/internal/domain/models"
	"github.com/alexb007/munaz-backend/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const routesPassword = "scaffold-inspection-7"

func newTestServer(t *testing.T) (http.Handler, *userstore.Store) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	dir := t.TempDir()
	store, err := storage.NewLocal(storage.LocalConfig{BasePath: dir, BaseURL: "/files"})
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}

	coreCfg := &config.CoreConfig{Env: "dev"}
	appCfg := validAppConfig()
	appCfg.StorageLocalPath = dir
	appCfg.StorageLocalURL = "/files"
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db, PhotoStorage: store}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := EnsureSchema(ctx, coreCfg, appCfg, deps, logger); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}

	h, err := BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		t.Fatalf("BuildHandler() error = %v", err)
	}
	return h, userstore.New(db)
}

func createUser(t *testing.T, users *userstore.Store, username, role string) models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(routesPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u, err := users.Create(ctx, models.User{
		Username: username, PasswordHash: string(hash), Role: role, Status: status.Active,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return u
}

func obtainAccess(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, testutil.JSONRequest(t, http.MethodPost, "/api/token/",
		map[string]string{"username": username, "password": routesPassword}))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var pair tokens.Pair
	testutil.DecodeJSON(t, rec, &pair)
	return pair.Access
}

func get(h http.Handler, path, access string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBuildHandler_AuthFlow(t *testing.T) {
	h, users := newTestServer(t)
	inspector := createUser(t, users, "ina", models.RoleInspector)
	admin := createUser(t, users, "root", models.RoleAdmin)

	inspectorAccess := obtainAccess(t, h, "ina")
	adminAccess := obtainAccess(t, h, "root")
	statsPath := "/api/users/" + inspector.ID.Hex() + "/login-stats/"
	adminStatsPath := "/api/users/" + admin.ID.Hex() + "/login-stats/"

	tests := []struct {
		name       string
		path       string
		access     string
		wantStatus int
	}{
		{"profile", "/api/profile/", inspectorAccess, http.StatusOK},
		{"users me alias", "/api/users/me/", inspectorAccess, http.StatusOK},
		{"profile without token", "/api/profile/", "", http.StatusUnauthorized},
		{"garbage token", "/api/profile/", "not-a-jwt", http.StatusUnauthorized},
		{"constructions", "/api/constructions/", inspectorAccess, http.StatusOK},
		{"objects alias", "/api/objects/", inspectorAccess, http.StatusOK},
		{"reviews", "/api/reviews/", inspectorAccess, http.StatusOK},
		{"issues", "/api/issues/", inspectorAccess, http.StatusOK},
		{"other stats as inspector", adminStatsPath, inspectorAccess, http.StatusForbidden},
		{"admin stats as admin", statsPath, adminAccess, http.StatusOK},
		{"own stats", "/api/users/" + inspector.ID.Hex() + "/login-stats/", inspectorAccess, http.StatusOK},
		{"admin attempts as inspector", "/api/users/" + inspector.ID.Hex() + "/login-attempts/", inspectorAccess, http.StatusForbidden},
		{"unknown route", "/nope", "", http.StatusNotFound},
		{"liveness", "/livez", "", http.StatusOK},
		{"metrics", "/metrics", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertStatus(t, get(h, tt.path, tt.access), tt.wantStatus)
		})
	}
}

func TestBuildHandler_UnauthorizedHasChallenge(t *testing.T) {
	h, _ := newTestServer(t)

	rec := get(h, "/api/reviews/", "")
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
	if !strings.HasPrefix(rec.Header().Get("WWW-Authenticate"), "Bearer") {
		t.Errorf("WWW-Authenticate = %q", rec.Header().Get("WWW-Authenticate"))
	}
}

func TestBuildHandler_PreflightSkipsAuth(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/reviews/", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	testutil.AssertStatus(t, rec, http.StatusOK)
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("missing Access-Control-Allow-Origin")
	}
}

func TestBuildHandler_LargeBodyReachesHandlerIntact(t *testing.T) {
	h, users := newTestServer(t)
	createUser(t, users, "ina", models.RoleInspector)
	access := obtainAccess(t, h, "ina")

	req := testutil.JSONRequest(t, http.MethodPost, "/api/reviews/"+primitive.NewObjectID().Hex()+"/reports/",
		map[string]string{"comment": strings.Repeat("x", 100<<10)})
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if body.Fields["comment"] == "" {
		t.Errorf("response = %+v, want a comment length error", body)
	}
}

func TestBuildHandler_LockoutIsAuditedAndUnblockRestores(t *testing.T) {
	h, users := newTestServer(t)
	victim := createUser(t, users, "vera", models.RoleInspector)
	createUser(t, users, "root", models.RoleAdmin)
	adminAccess := obtainAccess(t, h, "root")

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, testutil.JSONRequest(t, http.MethodPost, "/api/token/",
			map[string]string{"username": "vera", "password": "wrong"}))
		testutil.AssertStatus(t, rec, http.StatusUnauthorized)
	}

	rec := get(h, "/api/users/"+victim.ID.Hex()+"/events/", adminAccess)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var events []struct {
		EventType string `json:"event_type"`
	}
	testutil.DecodeJSON(t, rec, &events)
	if len(events) != 1 || events[0].EventType != "account_locked" {
		t.Fatalf("events = %+v, want one account_locked", events)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/users/"+victim.ID.Hex()+"/unblock/", nil)
	req.Header.Set("Authorization", "Bearer "+adminAccess)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	// Failures inside the window survive the unlock, but the account is
	// active again; the next correct login succeeds.
	obtainAccess(t, h, "vera")
}
