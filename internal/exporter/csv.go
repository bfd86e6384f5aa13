package exporter

import (
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	apperrors "libledger/internal/errors"
	"libledger/pkg/contracts/domain"
)

// verificationHeader is the column layout of the check report.
var verificationHeader = []string{
	"category", "metric", "expected", "actual", "tolerance", "diff", "diff_pct", "pass",
}

// WriteVerificationCSV writes the reference check results as CSV with a
// UTF-8 BOM so Excel opens it cleanly.
func (e *Exporter) WriteVerificationCSV(ctx context.Context, report *domain.VerificationReport) (string, error) {
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return "", apperrors.NewStorageError("failed to create output directory", err).
			WithContext("dir", e.outDir)
	}

	path := filepath.Join(e.outDir, VerificationFile)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", apperrors.NewStorageError("failed to open verification report", err).
			WithContext("path", path)
	}
	defer file.Close()

	if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return "", apperrors.NewStorageError("failed to write BOM", err).
			WithContext("path", path)
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(verificationHeader); err != nil {
		return "", apperrors.NewStorageError("failed to write header", err).
			WithContext("path", path)
	}
	for _, r := range report.Results {
		row := []string{
			r.Category,
			r.Metric,
			formatFloat(r.Expected),
			formatFloat(r.Actual),
			formatFloat(r.Tolerance),
			formatFloat(r.Diff),
			formatFloat(r.DiffPercent),
			strconv.FormatBool(r.Pass),
		}
		if err := writer.Write(row); err != nil {
			return "", apperrors.NewStorageError("failed to write check row", err).
				WithContext("path", path)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", apperrors.NewStorageError("failed to flush verification report", err).
			WithContext("path", path)
	}

	e.logger.InfoContext(ctx, "wrote verification report",
		slog.String("path", path),
		slog.Int("checks", report.Total),
		slog.Float64("pass_rate", report.PassRate))
	return path, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
