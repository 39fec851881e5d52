package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexb007/munaz-backend/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context, *readpref.ReadPref) error { return s.err }

func TestRoutes(t *testing.T) {
	down := errors.New("no reachable servers")

	tests := []struct {
		name       string
		pinger     Pinger
		path       string
		wantStatus int
		wantBody   string
	}{
		{"check ok", stubPinger{}, "/health/", http.StatusOK, "ok"},
		{"check degraded", stubPinger{err: down}, "/health/", http.StatusServiceUnavailable, "degraded"},
		{"ready", stubPinger{}, "/health/ready", http.StatusOK, "ready"},
		{"not ready", stubPinger{err: down}, "/health/ready", http.StatusServiceUnavailable, "not ready"},
		{"live while db down", stubPinger{err: down}, "/health/live", http.StatusOK, "alive"},
		{"readyz alias", stubPinger{}, "/readyz", http.StatusOK, "ready"},
		{"livez alias", stubPinger{}, "/livez", http.StatusOK, "alive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(tt.pinger, zap.NewNop())
			r := chi.NewRouter()
			r.Mount("/health", Routes(h))
			MountRootEndpoints(r, h)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			testutil.AssertStatus(t, rec, tt.wantStatus)

			var resp Response
			testutil.DecodeJSON(t, rec, &resp)
			if resp.Status != tt.wantBody {
				t.Errorf("status field = %q, want %q", resp.Status, tt.wantBody)
			}
		})
	}
}

func TestCheck_RealMongo(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := NewHandler(db.Client(), zap.NewNop())

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)

	var resp Response
	testutil.DecodeJSON(t, rec, &resp)
	if resp.Services["mongodb"] != "ok" {
		t.Errorf("mongodb = %q, want ok", resp.Services["mongodb"])
	}
}
