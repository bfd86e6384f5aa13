// Command reconciler runs one full reconciliation: it ingests the ledger
// tables and the master catalog, canonicalizes them and writes the unified
// dataset, quality report and run summary.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"libledger/internal/config"
	"libledger/internal/pipeline"
)

func main() {
	configFile := flag.String("config", "", "path to YAML configuration file")
	dataDir := flag.String("data", "", "data directory override (defaults to configured data_dir)")
	outDir := flag.String("out", "", "output directory override (defaults to configured output_dir)")
	flag.Parse()

	// .env is optional; environment variables win over it either way.
	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Paths.DataDir = *dataDir
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	ctx := context.Background()
	shutdown, err := pipeline.InitTracing(ctx, cfg.Tracing.Enabled, pipeline.Version, logger)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			logger.Error("trace shutdown failed", "error", err)
		}
	}()

	summary, err := pipeline.New(logger, cfg).Run(ctx)
	if err != nil {
		logger.Error("reconciliation failed", "error", err)
		os.Exit(1)
	}

	logger.Info("reconciliation complete",
		slog.String("run_id", summary.RunID),
		slog.String("dataset", summary.DatasetPath),
		slog.Bool("degraded", summary.Degraded))
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
