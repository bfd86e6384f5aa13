package quality

import (
	"context"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	apperrors "libledger/internal/errors"
	"libledger/pkg/contracts/domain"
)

// Reference is one externally supplied expected value with its tolerance.
// Tolerance is absolute and in the metric's own unit; TolerancePct is
// relative, as a percentage of the expected value. When both are set the
// looser bound applies. When neither is set the check allows 1% of the
// expected value with a floor of 1.
type Reference struct {
	Category     string  `yaml:"category"`
	Metric       string  `yaml:"metric"`
	Expected     float64 `yaml:"expected"`
	Tolerance    float64 `yaml:"tolerance"`
	TolerancePct float64 `yaml:"tolerance_pct"`
}

// allowed resolves the reference's tolerance settings into one absolute bound.
func (r Reference) allowed() float64 {
	rel := math.Abs(r.Expected) * r.TolerancePct / 100
	switch {
	case r.Tolerance > 0 && r.TolerancePct > 0:
		return math.Max(r.Tolerance, rel)
	case r.Tolerance > 0:
		return r.Tolerance
	case r.TolerancePct > 0:
		return rel
	default:
		return math.Max(1, math.Abs(r.Expected)*0.01)
	}
}

type referenceFile struct {
	Checks []Reference `yaml:"checks"`
}

// LoadReferences reads the reference-value table from a YAML file.
func LoadReferences(path string) ([]Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewReferenceError("failed to read reference values", err).
			WithContext("path", path)
	}
	var f referenceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, apperrors.NewReferenceError("failed to parse reference values", err).
			WithContext("path", path)
	}
	return f.Checks, nil
}

// Checker verifies computed figures against reference values. Mismatches are
// recorded and reported, never raised.
type Checker struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewChecker creates a checker with an injectable clock for tests.
func NewChecker(logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{logger: logger, now: time.Now}
}

// Check compares one actual value against its reference. The reported
// tolerance is the resolved absolute bound.
func (c *Checker) Check(ref Reference, actual float64) domain.CheckResult {
	diff := actual - ref.Expected
	allowed := ref.allowed()
	result := domain.CheckResult{
		Category:  ref.Category,
		Metric:    ref.Metric,
		Expected:  ref.Expected,
		Actual:    actual,
		Tolerance: allowed,
		Diff:      round2(diff),
		Pass:      math.Abs(diff) <= allowed,
	}
	if ref.Expected != 0 {
		result.DiffPercent = round2(diff / ref.Expected * 100)
	}
	return result
}

// Verify runs every reference against the computed metrics and assembles the
// verification report. A reference naming a metric the run did not compute
// fails that check rather than silently dropping it.
func (c *Checker) Verify(ctx context.Context, refs []Reference, metrics map[string]float64) *domain.VerificationReport {
	report := &domain.VerificationReport{
		GeneratedAt: c.now().UTC().Format(time.RFC3339),
	}
	byCategory := make(map[string]*domain.CategorySummary)

	for _, ref := range refs {
		key := metricKey(ref.Category, ref.Metric)
		actual, ok := metrics[key]

		var result domain.CheckResult
		if ok {
			result = c.Check(ref, actual)
		} else {
			result = domain.CheckResult{
				Category:  ref.Category,
				Metric:    ref.Metric,
				Expected:  ref.Expected,
				Tolerance: ref.allowed(),
			}
			c.logger.WarnContext(ctx, "reference names an uncomputed metric",
				slog.String("metric", key))
		}

		report.Results = append(report.Results, result)
		report.Total++
		if result.Pass {
			report.Passed++
		} else {
			report.Failed++
		}

		cs, found := byCategory[ref.Category]
		if !found {
			cs = &domain.CategorySummary{Category: ref.Category}
			byCategory[ref.Category] = cs
		}
		cs.Total++
		if result.Pass {
			cs.Passed++
		}
	}

	for _, cs := range byCategory {
		report.Categories = append(report.Categories, *cs)
	}
	sort.Slice(report.Categories, func(i, j int) bool {
		return report.Categories[i].Category < report.Categories[j].Category
	})

	if report.Total > 0 {
		report.PassRate = percent(report.Passed, report.Total)
	}

	c.logger.InfoContext(ctx, "verification finished",
		slog.Int("total", report.Total),
		slog.Int("passed", report.Passed),
		slog.Int("failed", report.Failed),
		slog.Float64("pass_rate", report.PassRate))

	return report
}

// Metrics flattens a dataset and its quality report into the keyed scalars
// the reference table can address.
func Metrics(ds *domain.Dataset, qr *domain.QualityReport) map[string]float64 {
	m := make(map[string]float64)
	m["transactions.total"] = float64(len(ds.Transactions))
	m["transactions.with_dates"] = float64(qr.Transactions.WithDates)
	m["transactions.with_borrowers"] = float64(qr.Transactions.WithBorrowers)
	m["transactions.with_books"] = float64(qr.Transactions.WithBooks)
	m["transactions.completeness_rate"] = qr.Transactions.CompletenessRate
	m["ghosts.matched_count"] = float64(qr.Ghosts.MatchedCount)
	m["ghosts.ghost_count"] = float64(qr.Ghosts.GhostCount)
	m["ghosts.orphan_count"] = float64(qr.Ghosts.OrphanCount)
	m["ghosts.ghost_percent"] = qr.Ghosts.GhostPercent
	m["borrowers.total"] = float64(qr.Borrowers.Total)
	m["borrowers.single_book"] = float64(qr.Borrowers.SingleBookBorrowers)
	m["borrowers.power_users"] = float64(qr.Borrowers.PowerUsers)
	m["borrowers.super_users"] = float64(qr.Borrowers.SuperUsers)
	m["borrowers.women_percent"] = qr.Borrowers.Gender.WomenPercent
	m["books.total_profiles"] = float64(qr.Books.TotalProfiles)
	m["books.ghost_records"] = float64(qr.Books.GhostRecords)
	m["books.never_borrowed"] = float64(qr.Books.NeverBorrowed)
	m["books.utilization_rate"] = qr.Books.UtilizationRate
	m["summary.avg_transactions_per_borrower"] = ds.Stats.Summary.AvgTransactionsPerBorrower
	m["summary.avg_transactions_per_book"] = ds.Stats.Summary.AvgTransactionsPerBook
	for _, year := range ds.Stats.ByYear {
		m[metricKey("by_year", strconv.Itoa(year.Year))] = float64(year.TotalTransactions)
	}
	return m
}

func metricKey(category, metric string) string {
	return category + "." + metric
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
