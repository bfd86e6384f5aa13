// Command verifier re-checks an exported dataset against the configured
// reference values and writes the check report as CSV. It never modifies
// the dataset; a failed check only shows up in the report and the exit code.
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
	referenceFile := flag.String("reference", "", "reference values YAML override")
	outDir := flag.String("out", "", "directory holding the exported dataset")
	strict := flag.Bool("strict", false, "exit non-zero when any check fails")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *referenceFile != "" {
		cfg.Paths.ReferenceFile = *referenceFile
	}
	if *outDir != "" {
		cfg.Paths.OutputDir = *outDir
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	report, path, err := pipeline.Verify(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("verification failed to run", "error", err)
		os.Exit(1)
	}

	logger.Info("verification complete",
		slog.String("report", path),
		slog.Int("total", report.Total),
		slog.Int("passed", report.Passed),
		slog.Int("failed", report.Failed),
		slog.Float64("pass_rate", report.PassRate))

	if *strict && report.Failed > 0 {
		os.Exit(2)
	}
}
