// internal/domain/models/user.go
package models

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - Username: The human-readable name users type to log in (unique, case-insensitive)

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an account of the inspection system.
//
// Status doubles as the active flag: "active" accounts may authenticate,
// "disabled" accounts are rejected. The login guard flips it to disabled on
// lockout and back to active on unlock; nothing else in the auth core mutates
// a user.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username" json:"username"`
	UsernameCI string             `bson:"username_ci" json:"-"` // folded for case/diacritic-insensitive matching
	FullName   string             `bson:"full_name" json:"full_name"`
	Phone      *string            `bson:"phone,omitempty" json:"phone,omitempty"`

	PasswordHash string `bson:"password_hash" json:"-"` // bcrypt hash (never in JSON)

	Role   string `bson:"role" json:"role"`
	Status string `bson:"status" json:"status"` // active, disabled

	// LastFailedLoginAt is written inside the failed-attempt transaction so
	// concurrent failures for the same account conflict and serialize.
	LastFailedLoginAt *time.Time `bson:"last_failed_login_at,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsActive reports whether the account may authenticate.
func (u *User) IsActive() bool {
	return u.Status == "active"
}

// User roles
const (
	RoleWorker      = "worker"
	RoleSupervisor  = "supervisor"
	RoleAdmin       = "admin"
	RoleAuthor      = "author"    // Buyurtmachi (project owner)
	RoleDeveloper   = "developer" // Loyihachi (project developer)
	RoleProkuratura = "prokuratura"
	RoleInspector   = "inspector"
)

// AllRoles returns all valid user roles.
func AllRoles() []string {
	return []string{
		RoleWorker,
		RoleSupervisor,
		RoleAdmin,
		RoleAuthor,
		RoleDeveloper,
		RoleProkuratura,
		RoleInspector,
	}
}

// IsValidRole checks if a role is valid.
func IsValidRole(role string) bool {
	for _, r := range AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}
