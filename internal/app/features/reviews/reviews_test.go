package reviews

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	errorsfeature "github.com/alexb007/munaz-backend/internal/app/features/errors"
	constructionstore "github.com/alexb007/munaz-backend/internal/app/store/constructions"
	reviewstore "github.com/alexb007/munaz-backend/internal/app/store/reviews"
	"github.com/alexb007/munaz-backend/internal/domain/models"
	"github.com/alexb007/munaz-backend/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fixture struct {
	router    http.Handler
	reviews   *reviewstore.Store
	objects   *constructionstore.Store
	inspector *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	return &fixture{
		router:    Routes(NewHandler(db, errorsfeature.NewErrorLogger(logger), logger)),
		reviews:   reviewstore.New(db),
		objects:   constructionstore.New(db),
		inspector: testutil.InspectorUser(),
	}
}

func (f *fixture) serve(u *models.User, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, testutil.WithUser(httptest.NewRequest(method, path, nil), u))
	return rec
}

func (f *fixture) review(t *testing.T, obj primitive.ObjectID, assignee primitive.ObjectID, status string, planned time.Time) models.Review {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	a := assignee
	rv, err := f.reviews.Create(ctx, models.Review{Name: "check", ObjectID: obj, AssignedTo: &a, Status: status, PlannedDate: planned})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return rv
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	obj, err := f.objects.Create(ctx, models.ConstructionObject{Name: "Tower", Latitude: 41.31, Longitude: 69.28})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	base := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	older := f.review(t, obj.ID, f.inspector.ID, models.ReviewPlanned, base)
	newer := f.review(t, obj.ID, f.inspector.ID, models.ReviewInProgress, base.AddDate(0, 0, 1))
	f.review(t, obj.ID, f.inspector.ID, models.ReviewCompleted, base.AddDate(0, 0, 2))
	f.review(t, obj.ID, primitive.NewObjectID(), models.ReviewPlanned, base)

	rec := f.serve(f.inspector, http.MethodGet, "/")
	testutil.AssertStatus(t, rec, http.StatusOK)

	var got []models.Review
	testutil.DecodeJSON(t, rec, &got)
	if len(got) != 2 {
		t.Fatalf("List() returned %d reviews, want 2", len(got))
	}
	if got[0].ID != newer.ID || got[1].ID != older.ID {
		t.Errorf("order = [%v %v], want newest planned date first", got[0].ID, got[1].ID)
	}
	if got[0].Latitude != 41.31 || got[0].Longitude != 69.28 {
		t.Errorf("coordinates = (%v, %v), want object's", got[0].Latitude, got[0].Longitude)
	}

	rec = f.serve(f.inspector, http.MethodGet, "/?object="+primitive.NewObjectID().Hex())
	testutil.AssertStatus(t, rec, http.StatusOK)
	if rec.Body.String() != "[]\n" {
		t.Errorf("filtered body = %q, want []", rec.Body.String())
	}

	rec = f.serve(f.inspector, http.MethodGet, "/?object=zzz")
	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestStart(t *testing.T) {
	f := newFixture(t)
	obj := primitive.NewObjectID()
	planned := f.review(t, obj, f.inspector.ID, models.ReviewPlanned, time.Now())
	running := f.review(t, obj, f.inspector.ID, models.ReviewInProgress, time.Now())
	foreign := f.review(t, obj, primitive.NewObjectID(), models.ReviewPlanned, time.Now())

	tests := []struct {
		name       string
		id         string
		wantStatus int
		wantError  string
	}{
		{"planned starts", planned.ID.Hex(), http.StatusOK, ""},
		{"already in progress", running.ID.Hex(), http.StatusBadRequest, "Review cannot be started"},
		{"assigned to someone else", foreign.ID.Hex(), http.StatusNotFound, "Review not found"},
		{"missing", primitive.NewObjectID().Hex(), http.StatusNotFound, "Review not found"},
		{"malformed id", "17", http.StatusNotFound, "Review not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.serve(f.inspector, http.MethodPost, "/"+tt.id+"/start/")
			testutil.AssertStatus(t, rec, tt.wantStatus)
			if tt.wantError != "" {
				var body map[string]string
				testutil.DecodeJSON(t, rec, &body)
				if body["error"] != tt.wantError {
					t.Errorf("error = %q, want %q", body["error"], tt.wantError)
				}
				return
			}
			var rv models.Review
			testutil.DecodeJSON(t, rec, &rv)
			if rv.Status != models.ReviewInProgress {
				t.Errorf("Status = %q, want in_progress", rv.Status)
			}
		})
	}
}
