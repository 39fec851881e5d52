// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/alexb007/munaz-backend/internal/app/system/auth"
	"github.com/alexb007/munaz-backend/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), username, ObjectID and a found
// flag. Without an authenticated user it returns "anonymous", "",
// NilObjectID, false.
func UserCtx(r *http.Request) (role string, username string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user.ID.IsZero() {
		return "anonymous", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Username, user.ID, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleAdmin
}

// HasRole reports whether the current user has one of the specified roles.
func HasRole(r *http.Request, roles ...string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, allowed := range roles {
		if strings.ToLower(allowed) == role {
			return true
		}
	}
	return false
}

// IsSelf reports whether id belongs to the current user.
func IsSelf(r *http.Request, id primitive.ObjectID) bool {
	_, _, uid, ok := UserCtx(r)
	return ok && uid == id
}
