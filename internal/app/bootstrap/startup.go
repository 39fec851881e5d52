// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/alexb007/munaz-backend/internal/app/store/loginattempts"
	"github.com/alexb007/munaz-backend/internal/app/system/tasks"
	"github.com/alexb007/munaz-backend/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after schema setup and before the handler is built.
// It applies timeout settings and starts the background task runner.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Upload: appCfg.TimeoutUpload,
	})

	startTaskRunner(deps, appCfg, logger)
	return nil
}

// taskRunner is kept for Shutdown.
var taskRunner *tasks.Runner

func startTaskRunner(deps DBDeps, appCfg AppConfig, logger *zap.Logger) {
	taskRunner = tasks.New(logger)
	taskRunner.Register(tasks.LoginAttemptRetentionJob(
		loginattempts.New(deps.MongoDatabase), appCfg.LoginAttemptRetention, logger))

	// Not Startup's ctx: jobs run until Shutdown calls Stop.
	taskRunner.Start(context.Background())
}
