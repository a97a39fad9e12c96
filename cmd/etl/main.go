package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/cloud-obs-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/cloud-obs-etl/internal/adapter/kafka"
	"github.com/couchcryptid/cloud-obs-etl/internal/adapter/localfs"
	"github.com/couchcryptid/cloud-obs-etl/internal/adapter/netcdf"
	"github.com/couchcryptid/cloud-obs-etl/internal/config"
	"github.com/couchcryptid/cloud-obs-etl/internal/domain"
	"github.com/couchcryptid/cloud-obs-etl/internal/observability"
	"github.com/couchcryptid/cloud-obs-etl/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store := localfs.NewStore(cfg, logger)
	hydrator := netcdf.NewHydrator(store, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)

	policy := domain.DefaultFusionPolicy()
	policy.CloudThreshold = cfg.CloudThreshold
	policy.MinElevation = cfg.MinElevation

	sources := map[domain.Role]domain.Instrument{
		domain.RoleLidar: domain.MPL,
		domain.RoleRadar: domain.MMCR,
	}
	processor, err := pipeline.NewDayProcessor(store, hydrator, sources, policy, logger, metrics)
	if err != nil {
		logger.Error("failed to build day processor", "error", err)
		os.Exit(1)
	}

	p := pipeline.New(processor, store, writer, logger, metrics,
		cfg.Observatory, cfg.Year, cfg.Month)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Run the month; stop the signal context when it finishes so the service
	// exits instead of idling.
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down", "reason", ctx.Err())
	case err := <-done:
		if err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
