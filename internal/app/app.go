package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vinivici/internal/catapi"
	"vinivici/internal/config"
	"vinivici/internal/handlers"
	"vinivici/internal/logger"
	"vinivici/internal/middleware"
	"vinivici/internal/repositories"
	"vinivici/internal/routes"
	"vinivici/internal/services"
	"vinivici/internal/validator"
	"vinivici/internal/web"
	"vinivici/ws"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Application is the wired HTTP server and the state behind it.
type Application struct {
	Router    *gin.Engine
	Services  *services.ServiceContainer
	WSManager *ws.WebSocketManager
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives.
func Run(ctx context.Context, cfgPath string) error {
	if err := config.LoadConfig(cfgPath); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	if cfg.CatAPI.APIKey == "" {
		logger.Warn("CAT_API_KEY is not set, requests will use the anonymous quota")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	application := SetupRouter(gctx, cfg, nil)

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           application.Router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g.Go(func() error {
		application.WSManager.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("Server starting", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server startup error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// SetupRouter wires services, handlers and routes. A nil searcher means the
// real image search client built from cfg. Background work stops with ctx.
// The caller must run WSManager.Run.
func SetupRouter(ctx context.Context, cfg *config.Config, searcher catapi.Searcher) *Application {
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	if searcher == nil {
		searcher = catapi.NewClient(catapi.Config{
			BaseURL: cfg.CatAPI.BaseURL,
			APIKey:  cfg.CatAPI.APIKey,
			Timeout: cfg.Timeout(),
		})
	}

	// 1. Services
	serviceContainer := initializeServices(ctx, cfg, searcher)

	// 2. Handlers
	customValidator := validator.New()
	appHandlers := initializeHandlers(serviceContainer, customValidator)

	// 3. WebSocket
	wsManager := ws.NewWebSocketManager(serviceContainer.DiscoveryService, customValidator)
	serviceContainer.DiscoveryService.Subscribe(wsManager.BroadcastState)
	wsHandler := ws.NewWebSocketHandler(wsManager, cfg.CORS.AllowedOrigins)

	// 4. Gin
	ginRouter := initializeGinRouter(cfg)

	// 5. Routes
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler)

	return &Application{
		Router:    ginRouter,
		Services:  serviceContainer,
		WSManager: wsManager,
	}
}

func initializeServices(ctx context.Context, cfg *config.Config, searcher catapi.Searcher) *services.ServiceContainer {
	banRepo := repositories.NewBanRepository()

	discoveryService := services.NewDiscoveryService(ctx, searcher, banRepo, services.DiscoveryConfig{
		BatchSize:  cfg.CatAPI.BatchSize,
		MaxRetries: cfg.CatAPI.MaxRetries,
	})

	return &services.ServiceContainer{
		DiscoveryService: discoveryService,
		Searcher:         searcher,
	}
}

func initializeHandlers(services *services.ServiceContainer, v *validator.Validator) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(v)

	return &handlers.AppHandlers{
		PageHandler:      handlers.NewPageHandler(baseHandler, services.DiscoveryService),
		DiscoveryHandler: handlers.NewDiscoveryHandler(baseHandler, services.DiscoveryService),
		HealthHandler:    handlers.NewHealthHandler(services.DiscoveryService),
	}
}

func initializeGinRouter(cfg *config.Config) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	router.SetHTMLTemplate(web.MustTemplates())
	return router
}
