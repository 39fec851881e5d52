// Package apicors provides CORS middleware for the bearer-token API.
//
// Bearer tokens travel in the Authorization header, never in cookies, so
// credentials are not allowed and any origin may call the API unless an
// allow-list is configured.
package apicors

import (
	"net/http"

	"github.com/go-chi/cors"
)

// Middleware returns CORS middleware for the API. With no origins any origin
// is allowed; otherwise only the listed ones ("*" allowed) are accepted.
//
// Preflight requests are answered here and never reach the login guard, so
// they do not count as attempts.
func Middleware(origins ...string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Accept"},
		MaxAge:         86400,
	})
}
