// Package reviews serves an inspector's work list and the start transition.
//
// Endpoints (mounted at /api/reviews):
//   - GET  /            - planned and in-progress reviews assigned to the caller
//   - POST /{id}/start/ - move an assigned review from planned to in_progress
package reviews

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/alexb007/munaz-backend/internal/app/features/errors"
	constructionstore "github.com/alexb007/munaz-backend/internal/app/store/constructions"
	reviewstore "github.com/alexb007/munaz-backend/internal/app/store/reviews"
	"github.com/alexb007/munaz-backend/internal/app/system/auth"
	"github.com/alexb007/munaz-backend/internal/app/system/jsonutil"
	"github.com/alexb007/munaz-backend/internal/app/system/timeouts"
	"github.com/alexb007/munaz-backend/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	msgNotFound      = "Review not found"
	msgCannotStart   = "Review cannot be started"
	msgBadObjectFilt = "object must be a valid id"
)

type Handler struct {
	reviews *reviewstore.Store
	objects *constructionstore.Store
	errLog  *errorsfeature.ErrorLogger
	logger  *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		reviews: reviewstore.New(db),
		objects: constructionstore.New(db),
		errLog:  errLog,
		logger:  logger,
	}
}

// Routes returns a chi.Router with the review routes mounted. nested lets
// other features hang routes under /{id}/ (reports, issues).
func Routes(h *Handler, nested ...func(chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/{id}/start/", h.Start)
	for _, mount := range nested {
		mount(r)
	}
	return r
}

// List returns the caller's open reviews with the object's coordinates.
// ?object= narrows to one construction object.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var objectID *primitive.ObjectID
	if s := r.URL.Query().Get("object"); s != "" {
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			jsonutil.BadRequest(w, msgBadObjectFilt)
			return
		}
		objectID = &oid
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.reviews.ListAssigned(ctx, u.ID, objectID)
	if err != nil {
		h.errLog.Log(r, "failed to list reviews", err)
		jsonutil.InternalError(w, "failed to load reviews")
		return
	}

	ids := make([]primitive.ObjectID, 0, len(list))
	for _, rv := range list {
		ids = append(ids, rv.ObjectID)
	}
	coords, err := h.objects.Coordinates(ctx, ids)
	if err != nil {
		h.errLog.Log(r, "failed to load review coordinates", err)
		jsonutil.InternalError(w, "failed to load reviews")
		return
	}
	for i := range list {
		if c, ok := coords[list[i].ObjectID]; ok {
			list[i].Latitude, list[i].Longitude = c[0], c[1]
		}
	}
	jsonutil.OK(w, list)
}

// Start moves the review to in_progress. Reviews that do not exist and
// reviews assigned to someone else both answer 404.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, msgNotFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rv, err := h.reviews.Start(ctx, id, u.ID)
	switch {
	case errors.Is(err, reviewstore.ErrNotFound):
		jsonutil.NotFound(w, msgNotFound)
	case errors.Is(err, reviewstore.ErrCannotStart):
		jsonutil.BadRequest(w, msgCannotStart)
	case err != nil:
		h.errLog.LogWithFields(r, "failed to start review", err, zap.String("review_id", id.Hex()))
		jsonutil.InternalError(w, "failed to start review")
	default:
		h.logger.Info("review started", zap.String("review_id", rv.ID.Hex()), zap.String("user_id", u.ID.Hex()))
		jsonutil.OK(w, rv)
	}
}

// LoadReview resolves the {id} route parameter to an existing review for
// features nested under /api/reviews/{id}/. It writes a 404 or 500 and
// returns nil when the review cannot be used.
func LoadReview(ctx context.Context, w http.ResponseWriter, r *http.Request, store *reviewstore.Store, errLog *errorsfeature.ErrorLogger) *models.Review {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.Detail(w, http.StatusNotFound, "Not found.")
		return nil
	}
	rv, err := store.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonutil.Detail(w, http.StatusNotFound, "Not found.")
		return nil
	}
	if err != nil {
		errLog.Log(r, "failed to load review", err)
		jsonutil.InternalError(w, "failed to load review")
		return nil
	}
	return rv
}
