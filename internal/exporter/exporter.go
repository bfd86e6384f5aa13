// Package exporter writes the run artifacts: the unified dataset and
// quality report as JSON, the verification checks as CSV, and a plain-text
// summary for quick inspection.
package exporter

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "libledger/internal/errors"
	"libledger/pkg/contracts/domain"
)

const (
	DatasetFile      = "library_dataset.json"
	QualityFile      = "quality_report.json"
	VerificationFile = "verification_report.csv"
	SummaryFile      = "summary.txt"
)

// Exporter writes run artifacts under one output directory.
type Exporter struct {
	logger *slog.Logger
	outDir string
}

// NewExporter creates an exporter rooted at outDir.
func NewExporter(logger *slog.Logger, outDir string) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger, outDir: outDir}
}

// WriteDataset writes the unified dataset document.
func (e *Exporter) WriteDataset(ctx context.Context, ds *domain.Dataset) (string, error) {
	path, err := e.writeJSON(DatasetFile, ds)
	if err != nil {
		return "", err
	}
	e.logger.InfoContext(ctx, "wrote dataset",
		slog.String("path", path),
		slog.Int("transactions", len(ds.Transactions)),
		slog.Int("books", len(ds.Books)),
		slog.Int("borrowers", len(ds.Borrowers)))
	return path, nil
}

// WriteQualityReport writes the quality report document.
func (e *Exporter) WriteQualityReport(ctx context.Context, report *domain.QualityReport) (string, error) {
	path, err := e.writeJSON(QualityFile, report)
	if err != nil {
		return "", err
	}
	e.logger.InfoContext(ctx, "wrote quality report", slog.String("path", path))
	return path, nil
}

func (e *Exporter) writeJSON(name string, v interface{}) (string, error) {
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return "", apperrors.NewStorageError("failed to create output directory", err).
			WithContext("dir", e.outDir)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", apperrors.NewStorageError("failed to encode "+name, err)
	}
	path := filepath.Join(e.outDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperrors.NewStorageError("failed to write "+name, err).
			WithContext("path", path)
	}
	return path, nil
}
