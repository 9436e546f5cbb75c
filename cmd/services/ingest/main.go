package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/soltixdb/popstats/internal/app"
	"github.com/soltixdb/popstats/internal/config"
	"github.com/soltixdb/popstats/internal/logging"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
)

// Runs one ingest invocation, prints the envelope on stdout and exits non-zero
// when the invocation failed.
func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Logs go to stderr so stdout carries only the envelope
	if cfg.Logging.OutputPath == "" || cfg.Logging.OutputPath == "stdout" {
		cfg.Logging.OutputPath = "stderr"
	}
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Ingest invocation starting", "version", Version, "commit", GitCommit, "bucket", cfg.Bucket)

	components, err := app.Build(cfg, logger, nil)
	if err != nil {
		logger.Fatal("Failed to open blob store", "error", err)
	}
	defer func() { _ = components.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Server.InvokeTimeout)
	defer cancel()

	env := components.Ingest.Invoke(ctx)
	out, err := env.JSON()
	if err != nil {
		logger.Fatal("Failed to encode result", "error", err)
	}
	fmt.Println(string(out))

	if env.Failed() {
		_ = components.Close()
		os.Exit(1)
	}
}
