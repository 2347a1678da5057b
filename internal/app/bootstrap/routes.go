// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	authnfeature "github.com/mstepanova/choreolab/internal/app/features/authn"
	healthfeature "github.com/mstepanova/choreolab/internal/app/features/health"
	historyfeature "github.com/mstepanova/choreolab/internal/app/features/history"
	keyframesfeature "github.com/mstepanova/choreolab/internal/app/features/keyframesapi"
	modelsfeature "github.com/mstepanova/choreolab/internal/app/features/models3d"
	projectsfeature "github.com/mstepanova/choreolab/internal/app/features/projects"
	teamsfeature "github.com/mstepanova/choreolab/internal/app/features/teams"
	usersfeature "github.com/mstepanova/choreolab/internal/app/features/users"
	"github.com/mstepanova/choreolab/internal/app/keyframes"
	historystore "github.com/mstepanova/choreolab/internal/app/store/history"
	modelstore "github.com/mstepanova/choreolab/internal/app/store/models3d"
	projectstore "github.com/mstepanova/choreolab/internal/app/store/projects"
	teamstore "github.com/mstepanova/choreolab/internal/app/store/teams"
	userstore "github.com/mstepanova/choreolab/internal/app/store/users"
	"github.com/mstepanova/choreolab/internal/app/system/auth"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. ChoreoLab builds the bearer-token
// manager, the stores, the keyframe engine, and mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	tokens, err := auth.NewManager(appCfg.JWTSecret, appCfg.JWTTTL, logger)
	if err != nil {
		logger.Error("token manager init failed", zap.Error(err))
		return nil, err
	}

	db := deps.MongoDatabase
	users := userstore.New(db)
	teams := teamstore.New(db)
	projects := projectstore.New(db)
	history := historystore.New(db)
	models := modelstore.New(db)

	// One engine instance serves both the regular and legacy keyframe
	// routes, so the persistence path cannot diverge between them.
	engine := keyframes.NewEngine(projects, logger)

	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, logger)))

	// Public authentication endpoints
	r.Mount("/auth", authnfeature.Routes(authnfeature.NewHandler(users, tokens, logger)))

	// Authenticated API
	r.Mount("/users", usersfeature.Routes(usersfeature.NewHandler(users, logger), tokens))
	r.Mount("/teams", teamsfeature.Routes(teamsfeature.NewHandler(teams, users, projects, history, logger), tokens))
	r.Mount("/history", historyfeature.Routes(historyfeature.NewHandler(history, logger), tokens))
	r.Mount("/models", modelsfeature.Routes(modelsfeature.NewHandler(models, appCfg.ModelsDir, appCfg.ModelsURL, logger), tokens))

	// Projects and the keyframe routes share the /projects prefix; the
	// keyframe subrouter only registers POSTs on paths the project router
	// does not claim.
	projectsHandler := projectsfeature.NewHandler(projects, teams, logger)
	keyframesHandler := keyframesfeature.NewHandler(engine, teams, projects, logger)
	r.Route("/projects", func(pr chi.Router) {
		pr.Mount("/", projectsfeature.Routes(projectsHandler, tokens))
		keyframesfeature.Register(pr, keyframesHandler, tokens)
	})

	// Uploaded model binaries, served statically with pre-compressed
	// file support.
	r.Handle(appCfg.ModelsURL+"/*", fileserver.Handler(appCfg.ModelsURL, appCfg.ModelsDir))

	return r, nil
}
