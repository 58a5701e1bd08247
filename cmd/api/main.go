package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"go.uber.org/zap"

	"github.com/quantumcode/quantumcode-backend/config"
	httpapi "github.com/quantumcode/quantumcode-backend/internal/api/http"
	"github.com/quantumcode/quantumcode-backend/internal/assistant/provider"
	assistantrepo "github.com/quantumcode/quantumcode-backend/internal/assistant/repository"
	assistantservice "github.com/quantumcode/quantumcode-backend/internal/assistant/service"
	"github.com/quantumcode/quantumcode-backend/internal/auth"
	authservice "github.com/quantumcode/quantumcode-backend/internal/auth/service"
	"github.com/quantumcode/quantumcode-backend/internal/bootstrap"
	"github.com/quantumcode/quantumcode-backend/internal/cleanup"
	"github.com/quantumcode/quantumcode-backend/internal/logging"
	"github.com/quantumcode/quantumcode-backend/internal/metrics"
	projrepo "github.com/quantumcode/quantumcode-backend/internal/projects/repository"
	projservice "github.com/quantumcode/quantumcode-backend/internal/projects/service"
	"github.com/quantumcode/quantumcode-backend/internal/projects/templates"
	workspacerepo "github.com/quantumcode/quantumcode-backend/internal/workspace/repository"
	workspaceservice "github.com/quantumcode/quantumcode-backend/internal/workspace/service"
)

const serviceName = "quantumcode-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bootstrap.SetGinMode(cfg.App.Environment)
	m := metrics.New()

	var app *firebase.App
	if cfg.NeedsFirebase() {
		var err error
		app, err = auth.InitializeFirebase(ctx, &cfg.Firebase)
		if err != nil {
			return err
		}
	}

	store, closeStore, err := bootstrap.OpenStore(ctx, cfg.Store, app, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	catalog, err := templates.Builtin()
	if err != nil {
		return err
	}
	events := projrepo.NewEventBus(rdb, m)
	projects := projservice.NewProjectService(store, catalog, events, logger.Named("projects"))

	workspace := workspaceservice.NewWorkspaceService(projects, workspacerepo.NewSessionRepository(rdb), logger.Named("workspace"))
	projects.AddDeleteHook(workspace)

	llm, err := provider.New(ctx, cfg.Assistant)
	if err != nil {
		return err
	}
	breaker := provider.NewBreaker(llm, provider.DefaultBreakerConfig(), logger.Named("assistant"))
	assistant := assistantservice.NewAssistantService(breaker, assistantrepo.NewHistoryRepository(rdb), projects, m,
		cfg.Assistant.Timeout, logger.Named("assistant"))

	var authSvc *authservice.AuthService
	if cfg.Auth.Mode == config.AuthModeFirebase {
		client, err := app.Auth(ctx)
		if err != nil {
			return err
		}
		authSvc = authservice.NewAuthService(client, cfg.Auth.SessionTTL, logger.Named("auth"))
	} else {
		logger.Warn("AUTH_MODE=dev: X-User-Id is trusted without verification")
	}

	health := httpapi.NewHealthHandler(serviceName, cfg.App.Version)
	health.AddCheck("store", store.Ping)
	health.AddCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	health.AddInfo("assistant", breaker.State)

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		Config:    cfg,
		Log:       logger,
		Metrics:   m,
		Health:    health,
		Auth:      authSvc,
		Projects:  projects,
		Events:    events,
		Workspace: workspace,
		Assistant: assistant,
	})

	scheduler := cleanup.NewScheduler(projects, cfg.Cleanup.Schedule, cfg.Cleanup.TemporaryProjTTL, logger.Named("cleanup"))
	if err := scheduler.Start(); err != nil {
		return err
	}

	// request contexts end on shutdown so open event streams return
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// no WriteTimeout: the preview event stream stays open
		IdleTimeout: 60 * time.Second,
	}
	srv.RegisterOnShutdown(cancelRequests)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("address", srv.Addr),
			zap.String("environment", cfg.App.Environment),
			zap.String("auth_mode", cfg.Auth.Mode),
			zap.String("store", cfg.Store.Backend),
			zap.String("ai_provider", llm.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}
	logger.Info("Server stopped")
	return nil
}
