// Package app wires configuration, logging, metrics, middleware, and
// handlers into a runnable HTTP application.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vmgen/internal/config"
	"vmgen/internal/infrastructure"
	"vmgen/internal/middleware"
	handlers "vmgen/internal/transport/http"
)

// Version is the application version, set at build time.
var Version = "dev"

// Application is the main application container.
type Application struct {
	Config   *config.Config
	Router   *chi.Mux
	Server   *http.Server
	Logger   *slog.Logger
	Registry *prometheus.Registry
}

// NewApplication creates an application instance with all dependencies
// wired.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port))

	registry := prometheus.NewRegistry()
	metrics := handlers.NewMetrics(registry)

	app := &Application{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
	}
	app.Router = app.buildRouter(metrics)
	app.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        app.Router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return app, nil
}

// buildRouter assembles the middleware chain and routes
func (a *Application) buildRouter(metrics *handlers.Metrics) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(a.Logger))
	r.Use(middleware.Recoverer(a.Logger))

	if a.Config.Security.EnableCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   a.Config.Security.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
		)
		r.Use(limiter.Handler)
	}

	r.Use(render.SetContentType(render.ContentTypeJSON))

	generateHandler := handlers.NewGenerateHandler(a.Config.Generator, a.Logger, metrics)
	healthHandler := handlers.NewHealthHandler(Version)

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", generateHandler.Generate)
		r.Post("/preview", generateHandler.Preview)
		r.Get("/health", healthHandler.Health)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}))

	return r
}

// Run starts the HTTP server and blocks until shutdown completes.
func (a *Application) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		a.Logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}

	a.Logger.Info("shutdown complete")
	return nil
}
