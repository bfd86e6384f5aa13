package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "libledger/internal/errors"
	"libledger/pkg/contracts/domain"
)

// WriteSummary writes the human-readable run summary.
func (e *Exporter) WriteSummary(ctx context.Context, ds *domain.Dataset, qr *domain.QualityReport) (string, error) {
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return "", apperrors.NewStorageError("failed to create output directory", err).
			WithContext("dir", e.outDir)
	}

	path := filepath.Join(e.outDir, SummaryFile)
	if err := os.WriteFile(path, []byte(renderSummary(ds, qr)), 0o644); err != nil {
		return "", apperrors.NewStorageError("failed to write summary", err).
			WithContext("path", path)
	}

	e.logger.InfoContext(ctx, "wrote summary", slog.String("path", path))
	return path, nil
}

func renderSummary(ds *domain.Dataset, qr *domain.QualityReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "LIBRARY LEDGER DATASET SUMMARY\n")
	fmt.Fprintf(&b, "==============================\n\n")
	fmt.Fprintf(&b, "Run:       %s\n", ds.Metadata.RunID)
	fmt.Fprintf(&b, "Generated: %s\n\n", ds.Metadata.Generated)

	fmt.Fprintf(&b, "Transactions: %d\n", len(ds.Transactions))
	fmt.Fprintf(&b, "Borrowers:    %d\n", len(ds.Borrowers))
	fmt.Fprintf(&b, "Books:        %d\n", len(ds.Books))
	if ds.Stats.Summary.DateRange.Start != nil && ds.Stats.Summary.DateRange.End != nil {
		fmt.Fprintf(&b, "Date range:   %s to %s\n",
			*ds.Stats.Summary.DateRange.Start, *ds.Stats.Summary.DateRange.End)
	}
	fmt.Fprintf(&b, "\n")

	fmt.Fprintf(&b, "Catalog matching\n")
	fmt.Fprintf(&b, "  matched: %d\n", qr.Ghosts.MatchedCount)
	fmt.Fprintf(&b, "  ghosts:  %d (%.1f%%)\n", qr.Ghosts.GhostCount, qr.Ghosts.GhostPercent)
	fmt.Fprintf(&b, "  orphans: %d\n\n", qr.Ghosts.OrphanCount)

	fmt.Fprintf(&b, "Borrower cohorts\n")
	fmt.Fprintf(&b, "  single-book: %d\n", qr.Borrowers.SingleBookBorrowers)
	fmt.Fprintf(&b, "  power users: %d\n", qr.Borrowers.PowerUsers)
	fmt.Fprintf(&b, "  super users: %d\n\n", qr.Borrowers.SuperUsers)

	fmt.Fprintf(&b, "Gender split (profiles)\n")
	fmt.Fprintf(&b, "  women:   %d (%.1f%% of marked)\n",
		qr.Borrowers.Gender.Women, qr.Borrowers.Gender.WomenPercent)
	fmt.Fprintf(&b, "  men:     %d\n", qr.Borrowers.Gender.Men)
	fmt.Fprintf(&b, "  unknown: %d\n\n", qr.Borrowers.Gender.Unknown)

	fmt.Fprintf(&b, "Yearly activity\n")
	for _, year := range ds.Stats.ByYear {
		fmt.Fprintf(&b, "  %d: %d transactions, %d borrowers, %d books\n",
			year.Year, year.TotalTransactions, year.UniqueBorrowers, year.UniqueBooks)
	}

	return b.String()
}
