// internal/app/store/reviews/reviewstore.go
package reviewstore

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

// CollectionName is the MongoDB collection holding reviews.
const CollectionName = "reviews"

var (
	// ErrNotFound is returned when a review does not exist or is not
	// assigned to the requesting inspector.
	ErrNotFound = errors.New("review not found")
	// ErrCannotStart is returned when a review is not in the planned state.
	ErrCannotStart = errors.New("review cannot be started")
)

// openStatuses are the states an inspector still has work to do in.
var openStatuses = []string{models.ReviewPlanned, models.ReviewInProgress}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Create inserts a review. Status defaults to planned.
func (s *Store) Create(ctx context.Context, rv models.Review) (models.Review, error) {
	if rv.ObjectID.IsZero() {
		return models.Review{}, errors.New("object is required")
	}
	rv.ID = primitive.NewObjectID()
	if rv.Status == "" {
		rv.Status = models.ReviewPlanned
	}
	now := time.Now().UTC()
	rv.CreatedAt = now
	rv.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, rv); err != nil {
		return models.Review{}, err
	}
	return rv, nil
}

// GetByID returns mongo.ErrNoDocuments if the review does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var rv models.Review
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rv); err != nil {
		return nil, err
	}
	return &rv, nil
}

// ListAssigned returns the planned and in-progress reviews assigned to
// userID, latest planned date first. A non-nil objectID narrows the list
// to one construction object.
func (s *Store) ListAssigned(ctx context.Context, userID primitive.ObjectID, objectID *primitive.ObjectID) ([]models.Review, error) {
	filter := bson.M{
		"assigned_to": userID,
		"status":      bson.M{"$in": openStatuses},
	}
	if objectID != nil {
		filter["object_id"] = *objectID
	}
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "planned_date", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Review{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Start moves a review assigned to userID from planned to in_progress.
// The transition is a single conditional update, so two concurrent starts
// cannot both succeed.
func (s *Store) Start(ctx context.Context, id, userID primitive.ObjectID) (*models.Review, error) {
	var rv models.Review
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "assigned_to": userID, "status": models.ReviewPlanned},
		bson.M{"$set": bson.M{"status": models.ReviewInProgress, "updated_at": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rv)
	if err == nil {
		return &rv, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("start review: %w", err)
	}

	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id, "assigned_to": userID})
	if err != nil {
		return nil, fmt.Errorf("start review: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrCannotStart
}
