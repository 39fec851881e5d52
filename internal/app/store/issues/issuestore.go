// internal/app/store/issues/issuestore.go
package issuestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alexb007/munaz-backend/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding issues.
const CollectionName = "issues"

var (
	errEmptyTitle = errors.New("title is required")
	// ErrBadStatus is returned for a status outside open|in_progress|resolved.
	ErrBadStatus = errors.New(`status must be "open"|"in_progress"|"resolved"`)
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Create inserts an issue for an existing review. Status defaults to open.
func (s *Store) Create(ctx context.Context, is models.Issue) (models.Issue, error) {
	if is.ReviewID.IsZero() {
		return models.Issue{}, errors.New("review is required")
	}
	is.Title = strings.TrimSpace(is.Title)
	if is.Title == "" {
		return models.Issue{}, errEmptyTitle
	}
	if is.Status == "" {
		is.Status = models.IssueOpen
	}
	if !models.IsValidIssueStatus(is.Status) {
		return models.Issue{}, ErrBadStatus
	}
	is.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	is.CreatedAt = now
	is.UpdatedAt = now
	if is.Photos == nil {
		is.Photos = []models.Photo{}
	}
	if _, err := s.c.InsertOne(ctx, is); err != nil {
		return models.Issue{}, err
	}
	return is, nil
}

// GetByID returns mongo.ErrNoDocuments if the issue does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var is models.Issue
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&is); err != nil {
		return nil, err
	}
	return &is, nil
}

// ListFilter narrows List. Zero fields match everything.
type ListFilter struct {
	ReviewID primitive.ObjectID
	Status   string
}

// List returns issues, newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.Issue, error) {
	filter := bson.M{}
	if !f.ReviewID.IsZero() {
		filter["review_id"] = f.ReviewID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Issue{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateInput holds a partial update. Nil fields are left unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
}

// Update applies a partial update and returns the updated issue, or
// mongo.ErrNoDocuments if it does not exist.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) (*models.Issue, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, errEmptyTitle
		}
		set["title"] = title
	}
	if in.Description != nil {
		set["description"] = *in.Description
	}
	if in.Status != nil {
		if !models.IsValidIssueStatus(*in.Status) {
			return nil, ErrBadStatus
		}
		set["status"] = *in.Status
	}

	var is models.Issue
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&is)
	if err != nil {
		return nil, err
	}
	return &is, nil
}

// AddPhoto appends a stored photo to an issue and returns the updated
// issue, or mongo.ErrNoDocuments if it does not exist.
func (s *Store) AddPhoto(ctx context.Context, id primitive.ObjectID, p models.Photo) (*models.Issue, error) {
	now := time.Now().UTC()
	if p.UploadedAt.IsZero() {
		p.UploadedAt = now
	}
	var is models.Issue
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$push": bson.M{"photos": p}, "$set": bson.M{"updated_at": now}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&is)
	if err != nil {
		return nil, err
	}
	return &is, nil
}
