package constructions

import (
	"net/http"
	"net/http/httptest"
	"testing"

	errorsfeature "github.com/alexb007/munaz-backend/internal/app/features/errors"
	constructionstore "github.com/alexb007/munaz-backend/internal/app/store/constructions"
	"github.com/alexb007/munaz-backend/internal/domain/models"
	"github.com/alexb007/munaz-backend/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestListAndShow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	router := Routes(NewHandler(db, errorsfeature.NewErrorLogger(logger), logger))

	ctx, cancel := testutil.TestContext()
	defer cancel()
	store := constructionstore.New(db)
	school, err := store.Create(ctx, models.ConstructionObject{Name: "School 12", Latitude: 41.3})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.Create(ctx, models.ConstructionObject{Name: "Clinic"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?search=school", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var list []models.ConstructionObject
	testutil.DecodeJSON(t, rec, &list)
	if len(list) != 1 || list[0].ID != school.ID {
		t.Errorf("List(search=school) = %+v", list)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+school.ID.Hex()+"/", nil))
	testutil.AssertStatus(t, rec, http.StatusOK)
	var got models.ConstructionObject
	testutil.DecodeJSON(t, rec, &got)
	if got.Name != "School 12" || got.Latitude != 41.3 {
		t.Errorf("Show() = %+v", got)
	}

	for _, path := range []string{"/" + primitive.NewObjectID().Hex() + "/", "/not-an-id/"} {
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		testutil.AssertStatus(t, rec, http.StatusNotFound)
	}
}
