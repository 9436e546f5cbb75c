package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/soltixdb/popstats/internal/app"
	"github.com/soltixdb/popstats/internal/config"
	"github.com/soltixdb/popstats/internal/logging"
	"github.com/soltixdb/popstats/internal/router"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Invoker service starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	logger.Info("Opening blob store", "type", cfg.Storage.Type, "bucket", cfg.Bucket,
		"events", cfg.Events.Enabled)
	components, err := app.Build(cfg, logger, reg)
	if err != nil {
		logger.Fatal("Failed to open blob store", "error", err)
	}
	defer func() { _ = components.Close() }()

	if components.Trigger != nil {
		if err := components.Trigger.Start(); err != nil {
			logger.Fatal("Failed to start analysis trigger", "error", err)
		}
		defer func() { _ = components.Trigger.Stop() }()
	}

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("API key authentication enabled", "num_keys", len(cfg.Auth.APIKeys))
	} else {
		logger.Warn("API key authentication DISABLED - all requests will be allowed")
	}

	server := router.New(logger, router.Deps{
		Store:    components.Store,
		Ingest:   components.Ingest,
		Analysis: components.Analysis,
		Gatherer: reg,
	}, *cfg)

	// Start server in goroutine
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort)
		logger.Info("Server listening", "address", addr)
		if err := server.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// In-flight invocations get their full deadline plus a grace period
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.InvokeTimeout+10*time.Second)
	defer shutdownCancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
