// Package issues tracks defects found during reviews.
//
// Endpoints:
//   - POST  /api/reviews/{id}/issues/ - open an issue on a review
//   - GET   /api/issues/              - list (?review=, ?status=)
//   - GET   /api/issues/{id}/         - show
//   - PATCH /api/issues/{id}/         - partial update (inspector, developer, supervisor)
//   - POST  /api/issues/{id}/photos/  - attach a photo (multipart field "image")
package issues

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/alexb007/munaz-backend/internal/app/features/errors"
	reviewsfeature "github.com/alexb007/munaz-backend/internal/app/features/reviews"
	issuestore "github.com/alexb007/munaz-backend/internal/app/store/issues"
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

const photoPrefix = "issues"

// EditorRoles may change an issue after it is opened.
var EditorRoles = []string{models.RoleInspector, models.RoleDeveloper, models.RoleSupervisor}

type Handler struct {
	issues   *issuestore.Store
	reviews  *reviewstore.Store
	uploader *photos.Uploader
	errLog   *errorsfeature.ErrorLogger
	logger   *zap.Logger
}

func NewHandler(db *mongo.Database, uploader *photos.Uploader, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		issues:   issuestore.New(db),
		reviews:  reviewstore.New(db),
		uploader: uploader,
		errLog:   errLog,
		logger:   logger,
	}
}

// Routes returns a chi.Router for /api/issues.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{id}/", h.Show)
	r.With(auth.RequireRole(EditorRoles...)).Patch("/{id}/", h.Update)
	r.Post("/{id}/photos/", h.AddPhoto)
	return r
}

// ReviewRoutes hangs issue creation under /api/reviews/{id}/.
func ReviewRoutes(h *Handler) func(chi.Router) {
	return func(r chi.Router) {
		r.Post("/{id}/issues/", h.Create)
	}
}

type issueInput struct {
	Title       string `json:"title" validate:"required,max=255" label:"Title"`
	Description string `json:"description" validate:"max=5000" label:"Description"`
	Status      string `json:"status" validate:"issuestatus" label:"Status"`
}

// Create opens an issue on the review in the path.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.CurrentUser(r)

	var in issueInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	in.Title = htmlsanitize.PlainText(in.Title)
	in.Description = htmlsanitize.PlainText(in.Description)
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

	is, err := h.issues.Create(ctx, models.Issue{
		ReviewID:    rv.ID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		CreatedBy:   &u.ID,
	})
	if err != nil {
		h.errLog.LogWithFields(r, "failed to create issue", err, zap.String("review_id", rv.ID.Hex()))
		jsonutil.InternalError(w, "failed to create issue")
		return
	}
	jsonutil.Created(w, is)
}

// List returns issues, newest first. ?review= and ?status= filter.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var f issuestore.ListFilter
	q := r.URL.Query()
	if s := q.Get("review"); s != "" {
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			jsonutil.BadRequest(w, "review must be a valid id")
			return
		}
		f.ReviewID = oid
	}
	if s := q.Get("status"); s != "" {
		if !models.IsValidIssueStatus(s) {
			jsonutil.BadRequest(w, "unknown status")
			return
		}
		f.Status = s
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.issues.List(ctx, f)
	if err != nil {
		h.errLog.Log(r, "failed to list issues", err)
		jsonutil.InternalError(w, "failed to load issues")
		return
	}
	for i := range list {
		list[i].Photos = h.uploader.Resolve(list[i].Photos)
	}
	jsonutil.OK(w, list)
}

func (h *Handler) loadIssue(ctx context.Context, w http.ResponseWriter, r *http.Request) *models.Issue {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.Detail(w, http.StatusNotFound, "Not found.")
		return nil
	}
	is, err := h.issues.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonutil.Detail(w, http.StatusNotFound, "Not found.")
		return nil
	}
	if err != nil {
		h.errLog.Log(r, "failed to load issue", err)
		jsonutil.InternalError(w, "failed to load issue")
		return nil
	}
	return is
}

// Show returns one issue.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	is := h.loadIssue(ctx, w, r)
	if is == nil {
		return
	}
	is.Photos = h.uploader.Resolve(is.Photos)
	jsonutil.OK(w, is)
}

type updateInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// Update applies a partial update. Absent fields are left unchanged.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in updateInput
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, err.Error())
		return
	}
	if in.Title != nil {
		t := htmlsanitize.PlainText(*in.Title)
		in.Title = &t
	}
	if in.Description != nil {
		d := htmlsanitize.PlainText(*in.Description)
		in.Description = &d
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	is := h.loadIssue(ctx, w, r)
	if is == nil {
		return
	}

	// Validate the issue as it would look after the patch.
	merged := issueInput{Title: is.Title, Description: is.Description, Status: is.Status}
	if in.Title != nil {
		merged.Title = *in.Title
	}
	if in.Description != nil {
		merged.Description = *in.Description
	}
	if in.Status != nil {
		if *in.Status == "" {
			jsonutil.ValidationError(w, map[string]string{"status": "Status is required."})
			return
		}
		merged.Status = *in.Status
	}
	if res := inputval.Validate(merged); res.HasErrors() {
		jsonutil.ValidationError(w, res.Fields())
		return
	}

	updated, err := h.issues.Update(ctx, is.ID, issuestore.UpdateInput{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		jsonutil.Detail(w, http.StatusNotFound, "Not found.")
		return
	}
	if err != nil {
		h.errLog.LogWithFields(r, "failed to update issue", err, zap.String("issue_id", is.ID.Hex()))
		jsonutil.InternalError(w, "failed to update issue")
		return
	}
	updated.Photos = h.uploader.Resolve(updated.Photos)
	jsonutil.OK(w, updated)
}

// AddPhoto stores the uploaded image and attaches it to the issue.
func (h *Handler) AddPhoto(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Upload())
	defer cancel()

	is := h.loadIssue(ctx, w, r)
	if is == nil {
		return
	}

	photo, err := h.uploader.FromRequest(ctx, r, photoPrefix)
	if err != nil {
		if photos.IsClientError(err) {
			jsonutil.ValidationError(w, map[string]string{photos.FormField: err.Error()})
			return
		}
		h.errLog.LogWithFields(r, "failed to store issue photo", err, zap.String("issue_id", is.ID.Hex()))
		jsonutil.InternalError(w, "failed to store photo")
		return
	}

	if _, err := h.issues.AddPhoto(ctx, is.ID, photo); err != nil {
		if derr := h.uploader.Discard(ctx, photo); derr != nil {
			h.logger.Warn("failed to discard orphaned photo", zap.String("path", photo.Path), zap.Error(derr))
		}
		h.errLog.LogWithFields(r, "failed to attach issue photo", err, zap.String("issue_id", is.ID.Hex()))
		jsonutil.InternalError(w, "failed to store photo")
		return
	}
	jsonutil.Created(w, h.uploader.Resolve([]models.Photo{photo})[0])
}
