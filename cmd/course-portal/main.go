package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"course-portal/internal/apiclient"
	"course-portal/internal/config"
	"course-portal/internal/handler"
	"course-portal/internal/middleware"
	"course-portal/internal/observability"
	"course-portal/internal/router"
	"course-portal/internal/session"
	"course-portal/internal/storage"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	observability.InitLogger(cfg.LogLevel, cfg.LogFormat)

	slog.Info("starting course portal",
		slog.String("api_base_url", cfg.APIBaseURL),
		slog.String("session_backend", cfg.SessionBackend))

	connCtx, connCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer connCancel()

	store, err := config.OpenStorage(connCtx, cfg)
	if err != nil {
		slog.Error("failed to open session storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("session storage ready", slog.String("backend", store.Backend))

	var opts []apiclient.Option
	if cfg.APIContractValidation {
		contract, err := loadContract(cfg)
		if err != nil {
			slog.Error("failed to load API contract", slog.String("error", err.Error()))
			os.Exit(1)
		}
		opts = append(opts, apiclient.WithContract(contract))
		slog.Info("backend contract validation enabled")
	}

	client, err := apiclient.NewClient(apiclient.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
	}, opts...)
	if err != nil {
		slog.Error("failed to create API client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pages, err := handler.NewPages(client)
	if err != nil {
		slog.Error("failed to load page templates", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	authLimiter := middleware.NewRateLimiter(ctx, cfg.AuthRateLimit, cfg.AuthRateBurst)
	defer authLimiter.Stop()

	routes := router.Routes(pages.Components(authLimiter.Middleware()))
	guard := router.NewGuard(routes, middleware.Authenticated)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(
		handler.Check{Name: "storage", Ping: store.Ping},
		handler.Check{
			Name:     "backend",
			Ping:     client.Ping,
			Metadata: func() map[string]any { return map[string]any{"base_url": client.BaseURL()} },
		},
	))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(func(clientID string) *session.Store {
			return session.NewStore(storage.Scope(store.KV, clientID))
		}, middleware.SessionOptions{Secure: cfg.IsProduction()}))
		r.Use(guard.Middleware())
		router.Mount(r, routes)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("course portal listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	cancel()

	slog.Info("server stopped gracefully")
}

func loadContract(cfg *config.Config) (*apiclient.Contract, error) {
	if cfg.APIContractFile != "" {
		return apiclient.LoadContractFile(cfg.APIContractFile, cfg.APIBaseURL)
	}
	return apiclient.DefaultContract(cfg.APIBaseURL)
}
