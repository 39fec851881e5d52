// Package reports lets inspectors file written reports with photos.
//
// Endpoints:
//   - POST /api/reviews/{id}/reports/ - create a report for a review
//   - GET  /api/reports/{id}/         - show a report
//   - POST /api/reports/{id}/photos/  - attach a photo (multipart field "image")
package reports

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/alexb007/munaz-backend/internal/app/features/errors"
	reviewsfeature "github.com/alexb007/munaz-backend/internal/app/features/reviews"
	reportstore "github.com/alexb007/munaz-backend/internal/app/store/reports"
	reviewstore "github.com/alexb007/munaz-backend/internal/app/store/reviews"
	"github.com/alexb007/munaz-backend/internal/app/system/auth"
	"github.com/alexb007/munaz-backend/internal/app/system/htmlsanitize"
	"github.com/alexb007/munaz-backend/internal/app/system/inputval"
	"github.com/alexb007/munaz-backend/internal/app/system/jsonutil"
	"github.com/alexb007/munaz-backend/internal/app/system/photos"
	"github.com/alexb007/munaz-backend/internal/app/system/timeouts"
	"github.com/alexb007/munaz-backend/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const photoPrefix = "reports"

type Handler struct {
	reports  *reportstore.Store
	reviews  *reviewstore.Store
	uploader *photos.Uploader
	errLog   *errorsfeature.ErrorLogger
	logger   *zap.Logger
}

func NewHandler(db *mongo.Database, uploader *photos.Uploader, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		reports:  reportstore.New(db),
		reviews:  reviewstore.New(db),
		uploader: uploader,
		errLog:   errLog,
		logger:   logger,
	}
}

// Routes returns a chi.Router for /api/reports.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/{id}/", h.Show)
	r.Post("/{id}/photos/", h.AddPhoto)
	return r
}

// ReviewRoutes hangs report creation under /api/reviews/{id}/.
func ReviewRoutes(h *Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/{id}/reports/", h.Create)
	}
}

type createInput struct {
	Comment string `json:"comment" validate:"max=5000" label:"Comment"`
}

// Create files a report for the review in the path.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var in createInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	in.Comment = htmlsanitize.PlainText(in.Comment)
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rv := reviewsfeature.LoadReview(ctx, w, r, h.reviews, h.errLog)
	if rv == nil {
		return
	}

	rp, err := h.reports.Create(ctx, models.Report{
		ReviewID:  rv.ID,
		Comment:   in.Comment,
		CreatedBy: &u.ID,
	})
	if err != nil {
		h.errLog.LogWithFields(r, "failed to create report", err, zap.String("review_id", rv.ID.Hex()))
		jsonutil.InternalError(w, "failed to create report")
		return
	}
	jsonutil.Created(w, rp)
}

func (h *Handler) loadReport(ctx context.Context, w http.ResponseWriter, r *http.Request) *models.Report {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.Detail(w, http.StatusNotFound, "Not found.")
		return nil
	}
	rp, err := h.reports.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonutil.Detail(w, http.StatusNotFound, "Not found.")
		return nil
	}
	if err != nil {
		h.errLog.Log(r, "failed to load report", err)
		jsonutil.InternalError(w, "failed to load report")
		return nil
	}
	return rp
}

// Show returns a report with photo URLs resolved.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	rp := h.loadReport(ctx, w, r)
	if rp == nil {
		return
	}
	rp.Photos = h.uploader.Resolve(rp.Photos)
	jsonutil.OK(w, rp)
}

// AddPhoto stores the uploaded image and attaches it to the report.
func (h *Handler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upload())
	defer cancel()

	rp := h.loadReport(ctx, w, r)
	if rp == nil {
		return
	}

	photo, err := h.uploader.FromRequest(ctx, r, photoPrefix)
	if err != nil {
		if photos.IsClientError(err) {
			jsonutil.ValidationError(w, map[string]string{photos.FormField: err.Error()})
			return
		}
		h.errLog.LogWithFields(r, "failed to store report photo", err, zap.String("report_id", rp.ID.Hex()))
		jsonutil.InternalError(w, "failed to store photo")
		return
	}

	if _, err := h.reports.AddPhoto(ctx, rp.ID, photo); err != nil {
		if derr := h.uploader.Discard(ctx, photo); derr != nil {
			h.logger.Warn("failed to discard orphaned photo", zap.String("path", photo.Path), zap.Error(derr))
		}
		h.errLog.LogWithFields(r, "failed to attach report photo", err, zap.String("report_id", rp.ID.Hex()))
		jsonutil.InternalError(w, "failed to store photo")
		return
	}
	jsonutil.Created(w, h.uploader.Resolve([]models.Photo{photo})[0])
}
