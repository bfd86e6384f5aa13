package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	"libledger/internal/config"
	apperrors "libledger/internal/errors"
	"libledger/internal/exporter"
	"libledger/internal/quality"
	"libledger/pkg/contracts/domain"
)

// Verify checks a previously exported dataset against the configured
// reference values and writes the check report next to the dataset. It is a
// separate entry point so references can be re-run without regenerating the
// dataset.
func Verify(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*domain.VerificationReport, string, error) {
	if cfg.Paths.ReferenceFile == "" {
		return nil, "", apperrors.NewReferenceError("no reference file configured", nil)
	}

	refs, err := quality.LoadReferences(cfg.Paths.ReferenceFile)
	if err != nil {
		return nil, "", err
	}

	var dataset domain.Dataset
	if err := readJSON(filepath.Join(cfg.Paths.OutputDir, exporter.DatasetFile), &dataset); err != nil {
		return nil, "", err
	}
	var qreport domain.QualityReport
	if err := readJSON(filepath.Join(cfg.Paths.OutputDir, exporter.QualityFile), &qreport); err != nil {
		return nil, "", err
	}

	checker := quality.NewChecker(logger)
	report := checker.Verify(ctx, refs, quality.Metrics(&dataset, &qreport))

	exp := exporter.NewExporter(logger, cfg.Paths.OutputDir)
	path, err := exp.WriteVerificationCSV(ctx, report)
	if err != nil {
		return nil, "", err
	}
	return report, path, nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return apperrors.NewStorageError("failed to read "+filepath.Base(path), err).
			WithContext("path", path)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.NewParsingError("failed to decode "+filepath.Base(path), err).
			WithContext("path", path)
	}
	return nil
}
