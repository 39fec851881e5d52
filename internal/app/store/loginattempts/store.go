// internal/app/store/loginattempts/store.go
package loginattempts

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - Username: The human-readable name users type to log in

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexb007/munaz-backend/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding the attempt ledger.
const CollectionName = "login_attempts"

// Store is the append-only ledger of authentication attempts.
// Counts are always read from the collection; nothing is cached.
type Store struct {
	c   *mongo.Collection
	now func() time.Time
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:   db.Collection(CollectionName),
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Record inserts one attempt stamped with the current time.
// userID may be nil for attempts that cannot be attributed to an account.
func (s *Store) Record(ctx context.Context, userID *primitive.ObjectID, ip, userAgent string, successful bool) (models.LoginAttempt, error) {
	rec := models.LoginAttempt{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		IPAddress:  ip,
		UserAgent:  userAgent,
		Timestamp:  s.now(),
		Successful: successful,
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return models.LoginAttempt{}, fmt.Errorf("insert login attempt: %w", err)
	}
	return rec, nil
}

// Create inserts a fully built record. If Timestamp is zero it is set to now.
// Used by seeding and tests that need records in the past.
func (s *Store) Create(ctx context.Context, rec models.LoginAttempt) (models.LoginAttempt, error) {
	if rec.ID.IsZero() {
		rec.ID = primitive.NewObjectID()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = s.now()
	}
	if _, err := s.c.InsertOne(ctx, rec); err != nil {
		return models.LoginAttempt{}, fmt.Errorf("insert login attempt: %w", err)
	}
	return rec, nil
}

// CountFailedSince counts failed attempts for userID with timestamp >= since.
func (s *Store) CountFailedSince(ctx context.Context, userID primitive.ObjectID, since time.Time) (int64, error) {
	return s.CountSince(ctx, userID, false, since)
}

// CountSince counts attempts with the given outcome for userID with timestamp >= since.
func (s *Store) CountSince(ctx context.Context, userID primitive.ObjectID, successful bool, since time.Time) (int64, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"user_id":    userID,
		"successful": successful,
		"timestamp":  bson.M{"$gte": since},
	})
	if err != nil {
		return 0, fmt.Errorf("count login attempts: %w", err)
	}
	return n, nil
}

// CountByUser returns the total number of attempts recorded for userID.
func (s *Store) CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("count login attempts: %w", err)
	}
	return n, nil
}

// MostRecentSuccessful returns the latest successful attempt, or nil if there is none.
func (s *Store) MostRecentSuccessful(ctx context.Context, userID primitive.ObjectID) (*models.LoginAttempt, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	var rec models.LoginAttempt
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "successful": true}, opts).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find last successful attempt: %w", err)
	}
	return &rec, nil
}

// GetByUser retrieves recent attempts for a user, latest first.
func (s *Store) GetByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.LoginAttempt, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	records := []models.LoginAttempt{}
	if err := cur.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// PurgeFailedBefore deletes failed attempts for userID older than before.
func (s *Store) PurgeFailedBefore(ctx context.Context, userID primitive.ObjectID, before time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"user_id":    userID,
		"successful": false,
		"timestamp":  bson.M{"$lt": before},
	})
	if err != nil {
		return 0, fmt.Errorf("purge failed attempts: %w", err)
	}
	return res.DeletedCount, nil
}

// PurgeBefore deletes every attempt older than before (retention).
func (s *Store) PurgeBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("purge login attempts: %w", err)
	}
	return res.DeletedCount, nil
}
