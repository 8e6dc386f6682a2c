package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maturitylab/benchmark/internal/api"
	"github.com/maturitylab/benchmark/internal/config"
	"github.com/maturitylab/benchmark/internal/notify"
	"github.com/maturitylab/benchmark/internal/provider"
	"github.com/maturitylab/benchmark/internal/store"
	"github.com/maturitylab/benchmark/internal/sync"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if len(cfg.Tenants) == 0 {
		logger.Error("no tenants configured")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := store.NewPostgresStore(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	logger.Info("connected to database")

	// Events (optional)
	var notifier notify.Client
	if cfg.Events.URL != "" {
		nc, err := notify.NewNATSClient(ctx, cfg.Events.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to event bus, running without events", "error", err)
		} else {
			notifier = nc
			defer nc.Close()
			logger.Info("connected to event bus")
		}
	}

	// Survey platform
	downloader := provider.NewHTTPClient(cfg.Provider.URL, cfg.Provider.Token)

	// Sync pipeline
	syncer, err := sync.New(db, downloader, notifier, cfg, sync.NewMetrics(), logger)
	if err != nil {
		logger.Error("failed to build syncer", "error", err)
		os.Exit(1)
	}
	syncer.Start(ctx)
	defer syncer.Stop()
	logger.Info("sync loop started", "interval", cfg.SyncInterval())

	// API server
	router := api.NewRouter(db, cfg, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: api.NewMetricsRouter(),
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)
}
