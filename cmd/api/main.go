package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PratikDhanave/analytics-bridge/internal/config"
	"github.com/PratikDhanave/analytics-bridge/internal/handlers"
	"github.com/PratikDhanave/analytics-bridge/internal/healthcheck"
	"github.com/PratikDhanave/analytics-bridge/internal/httpserver"
	"github.com/PratikDhanave/analytics-bridge/internal/logging"
	"github.com/PratikDhanave/analytics-bridge/internal/posthog"
	"github.com/PratikDhanave/analytics-bridge/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run boots the service: config → optional ledger → PostHog client → HTTP and gRPC servers.
// Deferred cleanup runs on every return path.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel).With("service", "analytics-bridge")

	client := posthog.New(posthog.Settings(cfg.PostHog), logger)
	settings := client.Settings()
	logger.Info("posthog configured",
		"admin_enabled", settings.AdminEnabled(),
		"capture_enabled", settings.CaptureEnabled(),
		"api_host", settings.APIHost)

	deps := handlers.Deps{Analytics: client, Logger: logger}
	var ready httpserver.Pinger

	// The ledger is optional; without DB_URL requests are forwarded but not recorded.
	if cfg.DBURL != "" {
		db, err := store.NewPostgresStore(cfg.DBURL)
		if err != nil {
			return fmt.Errorf("connect ledger: %w", err)
		}
		defer db.Close()

		if err := db.EnsureSchema(context.Background()); err != nil {
			return fmt.Errorf("apply ledger schema: %w", err)
		}
		deps.Ledger = db
		ready = db
	} else {
		logger.Warn("DB_URL not set, request ledger disabled")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpserver.NewRouter(cfg.APIKeys, deps, ready),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)

	var grpcHealth *healthcheck.Server
	if cfg.GRPCPort > 0 {
		grpcHealth = healthcheck.New()
		go func() {
			if err := grpcHealth.ListenAndServe(cfg.GRPCPort); err != nil {
				errCh <- fmt.Errorf("grpc health: %w", err)
			}
		}()
		grpcHealth.MarkServing()
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("server started", "http_port", cfg.HTTPPort, "grpc_port", cfg.GRPCPort)

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-errCh:
		logger.Error("runtime failure", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if grpcHealth != nil {
		grpcHealth.Stop()
	}
	return runErr
}
