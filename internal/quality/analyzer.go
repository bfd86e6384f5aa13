// Package quality derives the data-quality report and verifies computed
// figures against external reference values. Both halves are strictly
// observational: a failed check or a flagged issue never changes anything
// upstream.
package quality

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"libledger/pkg/contracts/domain"
)

const (
	powerUserThreshold = 20
	superUserThreshold = 50
	maxIssueSamples    = 10
)

// Analyzer produces the quality report for one run.
type Analyzer struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewAnalyzer creates an analyzer. The clock is injectable for tests.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: logger, now: time.Now}
}

// Analyze builds the quality report over the canonical transactions and the
// derived profiles.
func (a *Analyzer) Analyze(ctx context.Context, txns []domain.Transaction, borrowers []domain.BorrowerProfile, books []domain.BookProfile, catalogSize int) *domain.QualityReport {
	report := &domain.QualityReport{
		GeneratedAt:  a.now().UTC().Format(time.RFC3339),
		Transactions: transactionQuality(txns),
		Ghosts:       ghostQuality(txns),
		Borrowers:    borrowerQuality(borrowers),
		Books:        bookQuality(books, catalogSize),
	}

	a.collectIssues(report, txns)

	a.logger.InfoContext(ctx, "quality report built",
		slog.Float64("completeness_rate", report.Transactions.CompletenessRate),
		slog.Float64("ghost_percent", report.Ghosts.GhostPercent),
		slog.Int("issues", len(report.Issues)),
		slog.Int("warnings", len(report.Warnings)))

	return report
}

func transactionQuality(txns []domain.Transaction) domain.TransactionQuality {
	q := domain.TransactionQuality{Total: len(txns)}
	complete := 0
	for i := range txns {
		t := &txns[i]
		if t.Date != nil {
			q.WithDates++
		}
		if t.ReturnDate != nil {
			q.WithReturns++
		}
		if t.HasBookReference() {
			q.WithBooks++
		}
		if t.HasBorrower() {
			q.WithBorrowers++
		}
		if t.Date != nil && t.HasBookReference() && t.HasBorrower() {
			complete++
		}
	}
	if q.Total > 0 {
		q.CompletenessRate = percent(complete, q.Total)
	}
	return q
}

func ghostQuality(txns []domain.Transaction) domain.GhostQuality {
	q := domain.GhostQuality{}
	seen := make(map[int64]bool)
	for i := range txns {
		t := &txns[i]
		switch t.Match {
		case domain.MatchClassMatched:
			q.MatchedCount++
		case domain.MatchClassGhost:
			q.GhostCount++
			if t.BookID != nil && !seen[*t.BookID] && len(q.SampleIDs) < maxIssueSamples {
				seen[*t.BookID] = true
				q.SampleIDs = append(q.SampleIDs, *t.BookID)
			}
		case domain.MatchClassOrphan:
			q.OrphanCount++
		}
	}
	if referenced := q.MatchedCount + q.GhostCount; referenced > 0 {
		q.GhostPercent = percent(q.GhostCount, referenced)
	}
	return q
}

func borrowerQuality(borrowers []domain.BorrowerProfile) domain.BorrowerQuality {
	q := domain.BorrowerQuality{Total: len(borrowers)}
	for i := range borrowers {
		b := &borrowers[i]
		if b.UniqueBookCount == 1 {
			q.SingleBookBorrowers++
		}
		if b.TotalTransactions >= powerUserThreshold {
			q.PowerUsers++
		}
		if b.TotalTransactions >= superUserThreshold {
			q.SuperUsers++
		}
		switch b.Gender {
		case domain.GenderWoman:
			q.Gender.Women++
		case domain.GenderMan:
			q.Gender.Men++
		default:
			q.Gender.Unknown++
		}
	}
	if marked := q.Gender.Women + q.Gender.Men; marked > 0 {
		q.Gender.WomenPercent = percent(q.Gender.Women, marked)
	}
	return q
}

func bookQuality(books []domain.BookProfile, catalogSize int) domain.BookQuality {
	q := domain.BookQuality{TotalCataloged: catalogSize, TotalProfiles: len(books)}
	circulating := 0
	for i := range books {
		b := &books[i]
		if b.IsGhost {
			q.GhostRecords++
			continue
		}
		if b.TransactionCount == 0 {
			q.NeverBorrowed++
		} else {
			circulating++
		}
		if b.TransactionCount > q.MostPopularCount {
			q.MostPopularCount = b.TransactionCount
			q.MostPopularTitle = b.Title
		}
	}
	if catalogSize > 0 {
		q.UtilizationRate = percent(circulating, catalogSize)
	}
	return q
}

// collectIssues scans for row-level anomalies. Date-order violations are
// warnings with samples; heavy ghost share is an issue.
func (a *Analyzer) collectIssues(report *domain.QualityReport, txns []domain.Transaction) {
	var inverted []string
	invertedCount := 0
	for i := range txns {
		t := &txns[i]
		if t.Date != nil && t.ReturnDate != nil && *t.ReturnDate < *t.Date {
			invertedCount++
			if len(inverted) < maxIssueSamples {
				inverted = append(inverted, t.TransactionID)
			}
		}
	}
	if invertedCount > 0 {
		report.Warnings = append(report.Warnings, domain.QualityIssue{
			Type:     "inconsistent_date_order",
			Severity: domain.SeverityMedium,
			Count:    invertedCount,
			Message:  fmt.Sprintf("%d transactions returned before they were borrowed", invertedCount),
			Samples:  inverted,
		})
	}

	if report.Ghosts.GhostPercent > 50 {
		report.Issues = append(report.Issues, domain.QualityIssue{
			Type:     "high_ghost_share",
			Severity: domain.SeverityHigh,
			Count:    report.Ghosts.GhostCount,
			Message: fmt.Sprintf("%.1f%% of book references have no catalog entry",
				report.Ghosts.GhostPercent),
		})
	}

	if report.Transactions.Total > 0 && report.Transactions.CompletenessRate < 50 {
		report.Issues = append(report.Issues, domain.QualityIssue{
			Type:     "low_completeness",
			Severity: domain.SeverityHigh,
			Message: fmt.Sprintf("only %.1f%% of transactions carry a date, book and borrower",
				report.Transactions.CompletenessRate),
		})
	}
}

func percent(part, whole int) float64 {
	return round2(float64(part) / float64(whole) * 100)
}
