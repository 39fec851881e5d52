// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"github.com/dalemusser/waffle/app"
)

// Hooks wires this app into the WAFFLE lifecycle. app.Run calls them in
// order, from configuration loading to graceful shutdown.
var Hooks = app.Hooks[AppConfig, DBDeps]{
	Name:           "munaz",
	LoadConfig:     LoadConfig,
	ValidateConfig: ValidateConfig,
	ConnectDB:      ConnectDB,    // MongoDB pool and photo storage
	EnsureSchema:   EnsureSchema, // validators, indexes, admin seed
	Startup:        Startup,      // timeouts, task runner
	BuildHandler:   BuildHandler,
	Shutdown:       Shutdown,
}
