// internal/app/features/health/health.go
package health

import (
	"context"
	"net/http"

	"github.com/alexb007/munaz-backend/internal/app/system/jsonutil"
	"github.com/alexb007/munaz-backend/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger is satisfied by *mongo.Client.
type Pinger interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
}

// Handler provides health check endpoints.
type Handler struct {
	mongo  Pinger
	logger *zap.Logger
}

func NewHandler(mongo Pinger, logger *zap.Logger) *Handler {
	return &Handler{mongo: mongo, logger: logger}
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Routes returns a chi.Router with /health, /health/ready and /health/live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds the Kubernetes probe aliases on the root router.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

func (h *Handler) ping(r *http.Request) error {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()
	return h.mongo.Ping(ctx, readpref.Primary())
}

// Check reports the state of each backing service.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	resp := Response{Status: "ok", Services: map[string]string{}}

	if err := h.ping(r); err != nil {
		resp.Status = "degraded"
		resp.Services["mongodb"] = "unavailable"
		h.logger.Warn("health check: mongodb ping failed", zap.Error(err))
	} else {
		resp.Services["mongodb"] = "ok"
	}

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	jsonutil.JSON(w, code, resp)
}

// Ready is the readiness probe.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		jsonutil.JSON(w, http.StatusServiceUnavailable, Response{Status: "not ready"})
		return
	}
	jsonutil.OK(w, Response{Status: "ready"})
}

// Live is the liveness probe. It never touches the database.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	jsonutil.OK(w, Response{Status: "alive"})
}
