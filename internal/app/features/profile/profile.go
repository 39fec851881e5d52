// internal/app/features/profile/profile.go
package profile

import (
	"net/http"

	"github.com/alexb007/munaz-backend/internal/app/system/auth"
	"github.com/alexb007/munaz-backend/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
)

// Handler serves the authenticated user's own profile.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// Routes returns a chi.Router with the profile route mounted. The caller
// applies RequireAuth.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Show)
	return r
}

// Show returns the user the request was authenticated as. The guard loaded
// it for this request, so it reflects the current status and role.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Detail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}
	jsonutil.OK(w, u)
}
