package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/quantumcode/quantumcode-backend/config"
	httpapi "github.com/quantumcode/quantumcode-backend/internal/api/http"
	"github.com/quantumcode/quantumcode-backend/internal/api/http/middleware"
	assistanthttp "github.com/quantumcode/quantumcode-backend/internal/assistant/http"
	assistantservice "github.com/quantumcode/quantumcode-backend/internal/assistant/service"
	authhttp "github.com/quantumcode/quantumcode-backend/internal/auth/http"
	authmw "github.com/quantumcode/quantumcode-backend/internal/auth/middleware"
	authservice "github.com/quantumcode/quantumcode-backend/internal/auth/service"
	"github.com/quantumcode/quantumcode-backend/internal/metrics"
	previewhttp "github.com/quantumcode/quantumcode-backend/internal/preview/http"
	projhttp "github.com/quantumcode/quantumcode-backend/internal/projects/http"
	projrepo "github.com/quantumcode/quantumcode-backend/internal/projects/repository"
	projservice "github.com/quantumcode/quantumcode-backend/internal/projects/service"
	terminalhttp "github.com/quantumcode/quantumcode-backend/internal/terminal/http"
	workspacehttp "github.com/quantumcode/quantumcode-backend/internal/workspace/http"
	workspaceservice "github.com/quantumcode/quantumcode-backend/internal/workspace/service"
)

type RouterDeps struct {
	Config  *config.Config
	Log     *zap.Logger
	Metrics *metrics.Metrics
	Health  *httpapi.HealthHandler

	// Auth is nil when AUTH_MODE=dev.
	Auth      *authservice.AuthService
	Projects  *projservice.ProjectService
	Events    *projrepo.EventBus
	Workspace *workspaceservice.WorkspaceService
	Assistant *assistantservice.AssistantService
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	cfg := dep.Config
	log := dep.Log

	r := gin.New()
	r.Use(
		middleware.Recovery(log),
		middleware.RequestID(log),
		middleware.Metrics(dep.Metrics),
		cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id", "X-User-Id"},
			ExposeHeaders:    []string{"X-Request-Id", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	r.GET("/metrics", gin.WrapH(dep.Metrics.Handler()))
	dep.Health.RegisterRoutes(r)

	api := r.Group("/api/v1")

	// nil Auth means dev mode; keep the interface nil too
	var authenticator authhttp.Authenticator
	var requireUser gin.HandlerFunc
	if dep.Auth != nil {
		authenticator = dep.Auth
		requireUser = authmw.FirebaseAuthMiddleware(dep.Auth, cfg.Auth.CookieName)
	} else {
		requireUser = authmw.DevAuthMiddleware()
	}
	authHandler := authhttp.New(authenticator, cfg.Auth.CookieName, cfg.App.Environment == "production", log)
	authHandler.RegisterPublic(api.Group("/auth"))

	protected := api.Group("", requireUser)
	authHandler.RegisterProtected(protected.Group("/auth"))

	projectsGroup := protected.Group("/projects")
	projhttp.New(dep.Projects, log).Register(projectsGroup)
	var events previewhttp.EventSource
	if dep.Events != nil {
		events = dep.Events
	}
	previewhttp.New(dep.Projects, events, dep.Metrics, log).Register(projectsGroup)

	workspacehttp.New(dep.Workspace, log).Register(protected.Group("/workspace"))
	terminalhttp.New(dep.Projects, log).Register(protected.Group("/terminal"))

	limiter := assistanthttp.NewUserRateLimiter(cfg.Assistant.RatePerMin)
	assistanthttp.New(dep.Assistant, limiter, log).Register(protected.Group("/assistant"))

	return r
}
