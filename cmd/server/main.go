package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/banboard/internal/bootstrap"
	"github.com/JonMunkholm/banboard/internal/config"
	"github.com/JonMunkholm/banboard/internal/logging"
	"github.com/JonMunkholm/banboard/internal/metrics"
	"github.com/JonMunkholm/banboard/internal/supplemental"
	"github.com/JonMunkholm/banboard/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"cache_backend", cfg.Cache.Backend,
		"cache_ttl", cfg.Cache.TTL,
		"singleflight", cfg.Cache.SingleFlight,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	ctx := context.Background()
	m := metrics.New("banboard")

	// Snapshot store and cache gateway
	pipeline, err := bootstrap.Build(ctx, cfg, nil, m)
	if err != nil {
		slog.Error("failed to build record pipeline", "error", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	supp := supplemental.NewSource(cfg.Supplemental.Path)
	if cfg.Supplemental.Watch {
		go func() {
			if err := supp.Watch(jobCtx); err != nil {
				slog.Warn("supplemental watch stopped, falling back to per-request reads", "error", err)
			}
		}()
	}

	server := web.NewServer(cfg, pipeline.Gateway, supp,
		web.WithMetrics(m),
		web.WithLogger(slog.Default()),
	)

	// Graceful shutdown
	idle := make(chan struct{})
	go func() {
		defer close(idle)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		pipeline.Close()
		os.Exit(1)
	}

	<-idle
	slog.Info("server stopped")
}
