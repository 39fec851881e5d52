// internal/app/features/constructions/constructions.go
package constructions

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/alexb007/munaz-backend/internal/app/features/errors"
	constructionstore "github.com/alexb007/munaz-backend/internal/app/store/constructions"
	"github.com/alexb007/munaz-backend/internal/app/system/jsonutil"
	"github.com/alexb007/munaz-backend/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves read access to construction objects.
type Handler struct {
	objects *constructionstore.Store
	errLog  *errorsfeature.ErrorLogger
	logger  *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		objects: constructionstore.New(db),
		errLog:  errLog,
		logger:  logger,
	}
}

// Routes returns a chi.Router with the construction routes mounted.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}/", h.Show)
	return r
}

// List returns all objects; ?search= filters by name.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	objs, err := h.objects.List(ctx, r.URL.Query().Get("search"))
	if err != nil {
		h.errLog.Log(r, "failed to list construction objects", err)
		jsonutil.InternalError(w, "failed to load objects")
		return
	}
	jsonutil.OK(w, objs)
}

// Show returns one object.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.Detail(w, http.StatusNotFound, "Not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	obj, err := h.objects.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonutil.Detail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		h.errLog.Log(r, "failed to load construction object", err)
		jsonutil.InternalError(w, "failed to load object")
		return
	}
	jsonutil.OK(w, obj)
}
