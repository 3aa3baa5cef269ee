// Package main is the entry point for the itinerary API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/pkordes/itinerary-core/backend/api"
	"github.com/pkordes/itinerary-core/backend/internal/budget"
	"github.com/pkordes/itinerary-core/backend/internal/config"
	"github.com/pkordes/itinerary-core/backend/internal/currency"
	"github.com/pkordes/itinerary-core/backend/internal/handler"
	"github.com/pkordes/itinerary-core/backend/internal/job"
	"github.com/pkordes/itinerary-core/backend/internal/middleware"
	"github.com/pkordes/itinerary-core/backend/internal/repo"
	"github.com/pkordes/itinerary-core/backend/internal/service"
	"github.com/pkordes/itinerary-core/backend/migrations"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// --- Database ---------------------------------------------------------
	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify the DB is reachable before accepting traffic.
	if err := pool.Ping(context.Background()); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	slog.Info("database connection established")

	if err := migrate(context.Background(), pool, logger); err != nil {
		slog.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	// --- Currency conversion ----------------------------------------------
	conv, err := newConverter(cfg.FX, logger)
	if err != nil {
		slog.Error("currency configuration error", "error", err)
		os.Exit(1)
	}
	analyzer := budget.NewAnalyzer(conv, budget.Config{
		ReportingCurrency: cfg.FX.ReportingCurrency,
		MaxConcurrency:    cfg.FX.MaxConcurrency,
	}, logger)

	// --- Repositories and services ----------------------------------------
	tripRepo := repo.NewTripRepo(pool)
	segmentRepo := repo.NewSegmentRepo(pool)
	reservationRepo := repo.NewReservationRepo(pool)
	jobRepo := repo.NewJobRepo(pool)
	cacheStore := repo.NewCacheRepo(pool)

	snapshots := service.NewSnapshotService(tripRepo, segmentRepo, reservationRepo)
	poller := job.NewPoller(jobRepo, service.NewCacheFetcher(cacheStore), job.PollerConfig{
		Interval: cfg.Job.PollInterval,
		MaxPolls: cfg.Job.MaxPolls,
	}, logger)

	srvHandler := handler.NewServer(handler.Services{
		Trips:        service.NewTripService(tripRepo, cacheStore),
		Segments:     service.NewSegmentService(tripRepo, segmentRepo, cacheStore),
		Reservations: service.NewReservationService(segmentRepo, reservationRepo, cacheStore),
		Analysis:     service.NewAnalysisService(snapshots, analyzer, cacheStore, logger),
		Jobs:         service.NewJobService(tripRepo, jobRepo, cacheStore, poller),
		Export:       service.NewExportService(snapshots),
	}, handler.Options{
		WaitTimeout: cfg.WaitTimeout,
		OpenAPI:     api.OpenAPI,
		Logger:      logger,
	})

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS → body limit.
	// RequestID generates a unique trace ID per request.
	// RealIP sets r.RemoteAddr from X-Forwarded-For / X-Real-IP (safe behind a proxy).
	// SlogLogger writes one structured JSON log line per request.
	// Recoverer catches panics and returns HTTP 500 instead of crashing.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))
	r.Mount("/", srvHandler.Routes())

	// --- HTTP Server ------------------------------------------------------
	// The write timeout leaves room for one full long-poll on a job.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.WaitTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete before forcefully closing.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "reporting_currency", cfg.FX.ReportingCurrency)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// migrate applies pending goose migrations through a database/sql view of the pool.
func migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	for _, res := range results {
		logger.Info("migration applied", "version", res.Source.Version, "duration_ms", res.Duration.Milliseconds())
	}
	return nil
}

// newConverter returns the remote rates client when FX_RATES_URL is set and
// the static table otherwise.
func newConverter(cfg config.FXConfig, logger *slog.Logger) (budget.Converter, error) {
	if cfg.RatesURL != "" {
		return currency.NewRemoteRates(currency.RemoteConfig{
			BaseURL:       cfg.RatesURL,
			Reporting:     cfg.ReportingCurrency,
			Timeout:       cfg.Timeout,
			RatePerSecond: cfg.RatePerSecond,
		}, logger), nil
	}
	rates, err := currency.ParseRates(cfg.StaticRates)
	if err != nil {
		return nil, err
	}
	return currency.NewStaticTable(cfg.ReportingCurrency, rates), nil
}
