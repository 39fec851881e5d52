package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveLogin(t *testing.T) {
	before := testutil.ToFloat64(LoginAttemptsTotal.WithLabelValues(OutcomeLocked))
	ObserveLogin(OutcomeLocked)
	ObserveLogin(OutcomeLocked)
	after := testutil.ToFloat64(LoginAttemptsTotal.WithLabelValues(OutcomeLocked))
	if after-before != 2 {
		t.Errorf("locked counter delta = %v, want 2", after-before)
	}
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/api/issues/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/issues/abc", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTeapot)
	}

	n := testutil.CollectAndCount(httpRequestDuration, "munaz_http_request_duration_seconds")
	if n == 0 {
		t.Error("expected at least one duration series")
	}
}

func TestHandler_ExposesLoginCounter(t *testing.T) {
	ObserveLogin(OutcomeSuccess)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `munaz_login_attempts_total{outcome="success"}`) {
		t.Error("login counter missing from exposition")
	}
}
