package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/adapter/fsm"
	"github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/adapter/sqlite"
	"github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/app"
	"github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/domain"

	handler "github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/adapter/http"
	otelx "github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/adapter/otel"
	riverx "github.com/nithun-rajan/Client-Management-Software-UoS-AI-Soc-sub001/internal/adapter/river"
)

const serviceName = "crmd"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "crm.db")

	ctx := context.Background()

	// --- Telemetry ---
	providers, err := otelx.Setup(ctx, otelx.ConfigFromEnv())
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			logger.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otelx.OpenDB(dbPath)
	if err != nil {
		return err
	}

	repo, err := sqlite.NewFromDB(db)
	if err != nil {
		return err
	}
	defer repo.Close()

	transitionLog := sqlite.NewTransitionLog(db)

	queue, err := riverx.Setup(ctx, db)
	if err != nil {
		return err
	}
	if err := queue.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := queue.Stop(stopCtx); err != nil {
			logger.Error("river stop", "error", err)
		}
	}()

	records := otelx.NewTracingRepository(repo)
	publisher := otelx.NewTracingPublisher(riverx.NewPublisher(queue))

	// --- Application ---
	registry := domain.NewRegistry()
	validator := fsm.New(registry)
	effects := app.NewEffectRunner(registry, records, logger)
	svc := app.NewWorkflowService(registry, records, transitionLog, publisher, validator, effects, logger)

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig(serviceName, "0.1.0"))
	handler.Register(api, svc)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "port", port, "docs", "http://localhost:"+port+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-done:
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}

	logger.Info("stopped")
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
