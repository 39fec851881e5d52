// internal/app/store/reports/reportstore.go
package reportstore

import (
	"context"
	"errors"
	"time"

	"github.com/alexb007/munaz-backend/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding reports.
const CollectionName = "reports"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Create inserts a report for an existing review. The caller checks that
// the review exists.
func (s *Store) Create(ctx context.Context, rp models.Report) (models.Report, error) {
	if rp.ReviewID.IsZero() {
		return models.Report{}, errors.New("review is required")
	}
	rp.ID = primitive.NewObjectID()
	rp.CreatedAt = time.Now().UTC()
	if rp.Photos == nil {
		rp.Photos = []models.Photo{}
	}
	if _, err := s.c.InsertOne(ctx, rp); err != nil {
		return models.Report{}, err
	}
	return rp, nil
}

// GetByID returns mongo.ErrNoDocuments if the report does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	var rp models.Report
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rp); err != nil {
		return nil, err
	}
	return &rp, nil
}

// ListByReview returns a review's reports, newest first.
func (s *Store) ListByReview(ctx context.Context, reviewID primitive.ObjectID) ([]models.Report, error) {
	cur, err := s.c.Find(ctx, bson.M{"review_id": reviewID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Report{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddPhoto appends a stored photo to a report and returns the updated
// report, or mongo.ErrNoDocuments if it does not exist.
func (s *Store) AddPhoto(ctx context.Context, id primitive.ObjectID, p models.Photo) (*models.Report, error) {
	if p.UploadedAt.IsZero() {
		p.UploadedAt = time.Now().UTC()
	}
	var rp models.Report
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"photos": p}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rp)
	if err != nil {
		return nil, err
	}
	return &rp, nil
}
