// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "munaz"

// Login outcomes used as the "outcome" label.
const (
	OutcomeSuccess     = "success"
	OutcomeFailed      = "failed"
	OutcomeUnknownUser = "unknown_user"
	OutcomeLocked      = "locked"
	OutcomeNoUsername  = "no_username"
	OutcomeError       = "error"
)

var (
	// LoginAttemptsTotal counts guarded authentication attempts by outcome.
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Authentication attempts seen by the login guard, by outcome.",
		},
		[]string{"outcome"},
	)

	// AccountLockoutsTotal counts accounts disabled by the lockout rule.
	AccountLockoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_lockouts_total",
			Help:      "Accounts disabled after too many failed attempts.",
		},
	)

	// AccountUnlocksTotal counts administrative unlocks.
	AccountUnlocksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_unlocks_total",
			Help:      "Accounts re-enabled by an administrator.",
		},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveLogin records one guarded attempt.
func ObserveLogin(outcome string) {
	LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}

// Middleware records request duration labelled by the chi route pattern, so
// path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
