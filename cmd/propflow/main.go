package main

import (
	"context"
	"fmt"
	"log"
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

	"github.com/zithekhosa/propflow/internal/adapter/fsm"
	"github.com/zithekhosa/propflow/internal/adapter/otel"
	riveradapter "github.com/zithekhosa/propflow/internal/adapter/river"
	"github.com/zithekhosa/propflow/internal/adapter/sqlite"
	"github.com/zithekhosa/propflow/internal/app"
	"github.com/zithekhosa/propflow/internal/config"
	"github.com/zithekhosa/propflow/internal/domain"

	handler "github.com/zithekhosa/propflow/internal/adapter/http"
)

const overdueScanInterval = time.Hour

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv("PROPFLOW_CONFIG"))
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// --- Telemetry ---
	providers, err := otel.Setup(ctx, otel.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			slog.Error("otel shutdown", "error", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := otel.OpenDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	store, err := sqlite.NewFromDB(db)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	clock := domain.SystemClock{}

	tenancies := otel.NewTracingTenancyRepository(store.Tenancies)
	requests := otel.NewTracingMaintenanceRepository(store.Requests)
	deals := otel.NewTracingCommissionRepository(store.Deals)

	riverClient, err := riveradapter.Setup(ctx, db, deals, clock, overdueScanInterval)
	if err != nil {
		return fmt.Errorf("river: %w", err)
	}
	if err := riverClient.Start(ctx); err != nil {
		return fmt.Errorf("river start: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := riverClient.Stop(stopCtx); err != nil {
			slog.Error("river stop", "error", err)
		}
	}()

	publisher := otel.NewTracingPublisher(riveradapter.NewPublisher(riverClient))

	// --- Application ---
	engine := domain.NewEngine(fsm.New())
	svcs := handler.Services{
		Tenancies:   app.NewTenancyService(tenancies, publisher, engine, cfg.NoticePolicy(), clock),
		Maintenance: app.NewMaintenanceService(requests, publisher, engine, clock, cfg.Maintenance.BidCap),
		Commissions: app.NewCommissionService(deals, publisher, engine, clock),
		Reports:     app.NewReportService(tenancies, requests, deals, clock),
		Clock:       clock,
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware("propflow", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("propflow", "0.1.0"))
	handler.Register(api, svcs)

	// --- Server ---
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("propflow listening", "port", cfg.Server.Port)
		slog.Info("api docs", "url", fmt.Sprintf("http://localhost:%d/docs", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-done:
	}

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("stopped")
	return nil
}
