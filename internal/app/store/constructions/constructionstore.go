// internal/app/store/constructions/constructionstore.go
package constructionstore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/alexb007/munaz-backend/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding construction objects.
const CollectionName = "construction_objects"

var errEmptyName = errors.New("name is required")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(CollectionName)}
}

// Create inserts a construction object. Name is required.
func (s *Store) Create(ctx context.Context, obj models.ConstructionObject) (models.ConstructionObject, error) {
	obj.Name = strings.TrimSpace(obj.Name)
	if obj.Name == "" {
		return models.ConstructionObject{}, errEmptyName
	}
	obj.ID = primitive.NewObjectID()
	obj.NameCI = text.Fold(obj.Name)
	now := time.Now().UTC()
	obj.CreatedAt = now
	obj.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, obj); err != nil {
		return models.ConstructionObject{}, err
	}
	return obj, nil
}

// GetByID returns mongo.ErrNoDocuments if the object does not exist.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ConstructionObject, error) {
	var obj models.ConstructionObject
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&obj); err != nil {
		return nil, err
	}
	return &obj, nil
}

// List returns objects ordered by name. A non-empty search matches any
// part of the name, ignoring case and diacritics.
func (s *Store) List(ctx context.Context, search string) ([]models.ConstructionObject, error) {
	filter := bson.M{}
	if q := text.Fold(strings.TrimSpace(search)); q != "" {
		filter["name_ci"] = bson.M{"$regex": regexp.QuoteMeta(q)}
	}
	cur, err := s.c.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.ConstructionObject{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Coordinates maps object IDs to their location, for decorating review lists.
func (s *Store) Coordinates(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID][2]float64, error) {
	out := make(map[primitive.ObjectID][2]float64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"latitude": 1, "longitude": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var obj models.ConstructionObject
		if err := cur.Decode(&obj); err != nil {
			return nil, err
		}
		out[obj.ID] = [2]float64{obj.Latitude, obj.Longitude}
	}
	return out, cur.Err()
}
