// internal/app/store/users/userstore.go
package userstore

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - Username: The human-readable name users type to log in

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexb007/munaz-backend/internal/app/system/normalize"
	"github.com/alexb007/munaz-backend/internal/app/system/status"
	"github.com/alexb007/munaz-backend/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateUsername is returned when attempting to create a user with a username that already exists.
	ErrDuplicateUsername = errors.New("a user with this username already exists")
	errBadRole           = errors.New("invalid role")
	errBadStatus         = errors.New(`status must be "active"|"disabled"`)
	errEmptyUsername     = errors.New("username is required")
)

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByUsername looks up a user by case/diacritic-insensitive username.
// A missing user is reported as found=false with a nil error; err is reserved
// for database faults.
func (s *Store) FindByUsername(ctx context.Context, username string) (*models.User, bool, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"username_ci": text.Fold(normalize.Username(username))}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("find user by username: %w", err)
	}
	return &u, true, nil
}

// Create inserts a new user after normalizing & validating fields.
// PasswordHash must already be a bcrypt hash.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Username = normalize.Username(u.Username)
	if u.Username == "" {
		return models.User{}, errEmptyUsername
	}
	u.UsernameCI = text.Fold(u.Username)
	u.FullName = normalize.Name(u.FullName)
	u.Role = normalize.Role(u.Role)

	if u.Role == "" {
		u.Role = models.RoleWorker
	}
	if u.Status == "" {
		u.Status = status.Default()
	}
	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	if !status.IsValid(u.Status) {
		return models.User{}, errBadStatus
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateUsername
		}
		return models.User{}, err
	}
	return u, nil
}

// SetStatus flips the active flag. Returns mongo.ErrNoDocuments if the user does not exist.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, st string) error {
	if !status.IsValid(st) {
		return errBadStatus
	}
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"status":     st,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("set user status: %w", err)
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// LockIfActive disables an active user. It reports false when the user was
// already disabled or does not exist, so concurrent lockouts see exactly one
// transition.
func (s *Store) LockIfActive(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "status": status.Active}, bson.M{"$set": bson.M{
		"status":     status.Disabled,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return false, fmt.Errorf("lock user: %w", err)
	}
	return res.ModifiedCount == 1, nil
}

// TouchFailedLogin records the time of the latest failed attempt on the user
// document. Inside a transaction this write conflicts with any concurrent
// failed attempt for the same user.
func (s *Store) TouchFailedLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"last_failed_login_at": at,
	}})
	if err != nil {
		return fmt.Errorf("touch failed login: %w", err)
	}
	return nil
}

// CountActiveAdmins returns the number of users with role=admin and status=active.
func (s *Store) CountActiveAdmins(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"role":   models.RoleAdmin,
		"status": status.Active,
	})
}
