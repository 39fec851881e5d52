package loginattempts

import (
	"testing"
	"time"

	"github.com/alexb007/munaz-backend/internal/domain/models"
	"github.com/alexb007/munaz-backend/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func seed(t *testing.T, s *Store, userID primitive.ObjectID, ts time.Time, successful bool) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	id := userID
	if _, err := s.Create(ctx, models.LoginAttempt{UserID: &id, IPAddress: "10.0.0.1", Timestamp: ts, Successful: successful}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestStore_Record(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	rec, err := s.Record(ctx, &userID, "9.9.9.9", "okhttp/4.12", false)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if rec.ID.IsZero() || rec.Timestamp.IsZero() {
		t.Errorf("Record() = %+v, want id and timestamp set", rec)
	}

	n, err := s.CountFailedSince(ctx, userID, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("CountFailedSince() error = %v", err)
	}
	if n != 1 {
		t.Errorf("CountFailedSince() = %d, want 1", n)
	}
}

func TestStore_Record_WithoutUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec, err := s.Record(ctx, nil, "6.6.6.6", "", false)
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if rec.UserID != nil {
		t.Errorf("UserID = %v, want nil", rec.UserID)
	}
}

func TestStore_CountFailedSince_Window(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	bob := primitive.NewObjectID()
	other := primitive.NewObjectID()

	seed(t, s, bob, now.Add(-20*time.Minute), false) // outside
	seed(t, s, bob, now.Add(-10*time.Minute), false)
	seed(t, s, bob, now.Add(-1*time.Minute), false)
	seed(t, s, bob, now.Add(-1*time.Minute), true) // success not counted
	seed(t, s, other, now, false)                  // other user

	n, err := s.CountFailedSince(ctx, bob, now.Add(-15*time.Minute))
	if err != nil {
		t.Fatalf("CountFailedSince() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountFailedSince() = %d, want 2", n)
	}

	total, err := s.CountByUser(ctx, bob)
	if err != nil {
		t.Fatalf("CountByUser() error = %v", err)
	}
	if total != 4 {
		t.Errorf("CountByUser() = %d, want 4", total)
	}

	ok, err := s.CountSince(ctx, bob, true, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("CountSince() error = %v", err)
	}
	if ok != 1 {
		t.Errorf("CountSince(successful) = %d, want 1", ok)
	}
}

func TestStore_MostRecentSuccessful(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	bob := primitive.NewObjectID()
	rec, err := s.MostRecentSuccessful(ctx, bob)
	if err != nil || rec != nil {
		t.Fatalf("MostRecentSuccessful(empty) = (%v, %v), want (nil, nil)", rec, err)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	seed(t, s, bob, now.Add(-2*time.Hour), true)
	seed(t, s, bob, now.Add(-time.Hour), true)
	seed(t, s, bob, now, false)

	rec, err = s.MostRecentSuccessful(ctx, bob)
	if err != nil {
		t.Fatalf("MostRecentSuccessful() error = %v", err)
	}
	if rec == nil || !rec.Timestamp.Equal(now.Add(-time.Hour)) {
		t.Errorf("MostRecentSuccessful() = %+v, want the attempt an hour ago", rec)
	}
}

func TestStore_GetByUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	bob := primitive.NewObjectID()
	now := time.Now().UTC()
	for i := 0; i < 5; i++ {
		seed(t, s, bob, now.Add(-time.Duration(i)*time.Minute), i%2 == 0)
	}

	recs, err := s.GetByUser(ctx, bob, 3)
	if err != nil {
		t.Fatalf("GetByUser() error = %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("GetByUser() returned %d, want 3", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Timestamp.After(recs[i-1].Timestamp) {
			t.Error("GetByUser() not sorted latest first")
		}
	}
}

func TestStore_Purge(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	bob := primitive.NewObjectID()
	now := time.Now().UTC()
	seed(t, s, bob, now.Add(-3*time.Hour), false)
	seed(t, s, bob, now.Add(-3*time.Hour), true)
	seed(t, s, bob, now.Add(-10*time.Minute), false)

	n, err := s.PurgeFailedBefore(ctx, bob, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("PurgeFailedBefore() error = %v", err)
	}
	if n != 1 {
		t.Errorf("PurgeFailedBefore() deleted %d, want 1", n)
	}

	n, err = s.PurgeBefore(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("PurgeBefore() error = %v", err)
	}
	if n != 1 {
		t.Errorf("PurgeBefore() deleted %d, want 1 (the old success)", n)
	}

	total, _ := s.CountByUser(ctx, bob)
	if total != 1 {
		t.Errorf("remaining = %d, want 1", total)
	}
}
