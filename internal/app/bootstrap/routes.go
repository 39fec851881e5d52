// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	accountsfeature "github.com/alexb007/munaz-backend/internal/app/features/accounts"
	constructionsfeature "github.com/alexb007/munaz-backend/internal/app/features/constructions"
	errorsfeature "github.com/alexb007/munaz-backend/internal/app/features/errors"
	healthfeature "github.com/alexb007/munaz-backend/internal/app/features/health"
	issuesfeature "github.com/alexb007/munaz-backend/internal/app/features/issues"
	profilefeature "github.com/alexb007/munaz-backend/internal/app/features/profile"
	reportsfeature "github.com/alexb007/munaz-backend/internal/app/features/reports"
	reviewsfeature "github.com/alexb007/munaz-backend/internal/app/features/reviews"
	tokenfeature "github.com/alexb007/munaz-backend/internal/app/features/token"
	"github.com/alexb007/munaz-backend/internal/app/store/audit"
	"github.com/alexb007/munaz-backend/internal/app/store/loginattempts"
	userstore "github.com/alexb007/munaz-backend/internal/app/store/users"
	"github.com/alexb007/munaz-backend/internal/app/system/apicors"
	"github.com/alexb007/munaz-backend/internal/app/system/auditlog"
	"github.com/alexb007/munaz-backend/internal/app/system/auth"
	"github.com/alexb007/munaz-backend/internal/app/system/loginguard"
	"github.com/alexb007/munaz-backend/internal/app/system/metrics"
	"github.com/alexb007/munaz-backend/internal/app/system/photos"
	"github.com/alexb007/munaz-backend/internal/app/system/tokens"
	"github.com/alexb007/munaz-backend/internal/app/system/txn"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// requestTimeout bounds every request. It must exceed the upload timeout.
const requestTimeout = 60 * time.Second

// BuildHandler constructs the root HTTP handler. WAFFLE calls it after
// configuration, DB connections, schema setup and Startup have completed.
//
// Every protected API request goes through one login guard. The token
// endpoint uses the same guard with a password verifier, so failed
// password logins and failed bearer tokens share one ledger and one
// lockout rule.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	issuer := tokens.NewIssuer(tokens.Config{
		Secret:     appCfg.JWTSecret,
		Issuer:     appCfg.JWTIssuer,
		AccessTTL:  appCfg.JWTAccessTTL,
		RefreshTTL: appCfg.JWTRefreshTTL,
	})
	users := userstore.New(db)
	ledger := loginattempts.New(db)
	guard := loginguard.New(loginguard.Config{
		Threshold:          appCfg.LockoutThreshold,
		Window:             appCfg.LockoutWindow,
		UnlockPurgeAfter:   appCfg.UnlockPurgeAfter,
		StatsWindow:        appCfg.StatsWindow,
		RecordUnknownUsers: appCfg.RecordAccountLessAttempts,
	}, tokens.NewBearerVerifier(issuer, users), users, ledger, txn.NewRunner(db, logger), logger)
	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{Mode: appCfg.AuditLog})
	guard.SetAuditor(auditLogger)
	authMW := auth.NewMiddleware(guard, logger)

	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()
	uploader := photos.NewUploader(deps.PhotoStorage)

	tokenHandler := tokenfeature.NewHandler(db, guard, issuer, errLog, logger)
	profileHandler := profilefeature.NewHandler()
	accountsHandler := accountsfeature.NewHandler(guard, users, ledger, auditLogger, errLog, logger)
	constructionsHandler := constructionsfeature.NewHandler(db, errLog, logger)
	reviewsHandler := reviewsfeature.NewHandler(db, errLog, logger)
	reportsHandler := reportsfeature.NewHandler(db, uploader, errLog, logger)
	issuesHandler := issuesfeature.NewHandler(db, uploader, errLog, logger)
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(metrics.Middleware)
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// ─────────────────────────────────────────────────────────────────────────────
	// API Routes
	// Bearer JWT authentication through the login guard. CORS is handled per
	// /api so preflight requests never reach the guard.
	// ─────────────────────────────────────────────────────────────────────────────
	r.Route("/api", func(api chi.Router) {
		api.Use(apicors.Middleware(appCfg.APICORSOrigins...))

		api.Mount("/token", tokenfeature.Routes(tokenHandler))

		api.Group(func(pr chi.Router) {
			pr.Use(authMW.RequireAuth)

			pr.Mount("/profile", profilefeature.Routes(profileHandler))

			pr.Mount("/users", accountsfeature.Routes(accountsHandler))
			pr.Get("/users/me/", profileHandler.Show)

			pr.Mount("/constructions", constructionsfeature.Routes(constructionsHandler))
			pr.Mount("/objects", constructionsfeature.Routes(constructionsHandler))

			pr.Mount("/reviews", reviewsfeature.Routes(reviewsHandler,
				reportsfeature.ReviewRoutes(reportsHandler),
				issuesfeature.ReviewRoutes(issuesHandler),
			))
			pr.Mount("/reports", reportsfeature.Routes(reportsHandler))
			pr.Mount("/issues", issuesfeature.Routes(issuesHandler))
		})
	})

	// Health checks and Prometheus scrape endpoint
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)
	r.Handle("/metrics", metrics.Handler())

	// Uploaded photos (local storage only)
	if appCfg.StorageType == "local" || appCfg.StorageType == "" {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	return r, nil
}
