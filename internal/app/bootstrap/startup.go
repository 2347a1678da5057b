// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"os"
	"time"

	"github.com/dalemusser/waffle/config"
	modelstore "github.com/mstepanova/choreolab/internal/app/store/models3d"
	"github.com/mstepanova/choreolab/internal/app/system/timeouts"
	"github.com/mstepanova/choreolab/internal/app/system/workers"
	"go.uber.org/zap"
)

// uploadCleanup is started here and stopped in Shutdown.
var uploadCleanup *workers.UploadCleanup

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("handler timeouts configured from environment", zap.Int("count", n))
	}

	if err := os.MkdirAll(appCfg.ModelsDir, 0o755); err != nil {
		logger.Error("could not create models directory",
			zap.String("dir", appCfg.ModelsDir), zap.Error(err))
		return err
	}

	uploadCleanup = workers.NewUploadCleanup(
		modelstore.New(deps.MongoDatabase),
		appCfg.ModelsDir, logger, time.Hour, time.Hour)
	uploadCleanup.Start()

	return nil
}
