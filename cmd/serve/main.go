// Command serve loads the consolidated taxi-trip dataset and serves the
// dashboard aggregations alongside health, readiness and metrics endpoints.
// SIGHUP reloads the dataset from disk.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/taxi-claims-etl/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/taxi-claims-etl/internal/adapter/http"
	"github.com/couchcryptid/taxi-claims-etl/internal/analytics"
	"github.com/couchcryptid/taxi-claims-etl/internal/config"
	"github.com/couchcryptid/taxi-claims-etl/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store := analytics.NewStore(metrics)
	if err := load(store, cfg.OutputPath, logger); err != nil {
		logger.Error("failed to load dataset", "path", cfg.OutputPath, "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, store, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Reload on SIGHUP; a failed reload keeps the previous dataset.
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				if err := load(store, cfg.OutputPath, logger); err != nil {
					logger.Error("dataset reload failed", "path", cfg.OutputPath, "error", err)
				}
			}
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}

func load(store *analytics.Store, path string, logger *slog.Logger) error {
	t, err := csvfile.ReadFile(path)
	if err != nil {
		return err
	}
	store.Replace(t)
	logger.Info("dataset loaded", "path", path, "rows", t.Len())
	return nil
}
