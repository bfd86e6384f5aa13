package quality

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "libledger/internal/errors"
	"libledger/pkg/contracts/domain"
)

func TestChecker_Check(t *testing.T) {
	c := NewChecker(quietLogger())

	tests := []struct {
		name     string
		ref      Reference
		actual   float64
		wantPass bool
		wantDiff float64
	}{
		{
			name:     "exact match",
			ref:      Reference{Category: "transactions", Metric: "total", Expected: 100},
			actual:   100,
			wantPass: true,
		},
		{
			name:     "inside tolerance",
			ref:      Reference{Category: "transactions", Metric: "total", Expected: 100, Tolerance: 5},
			actual:   104,
			wantPass: true,
			wantDiff: 4,
		},
		{
			name:     "outside tolerance",
			ref:      Reference{Category: "transactions", Metric: "total", Expected: 100, Tolerance: 5},
			actual:   106,
			wantPass: false,
			wantDiff: 6,
		},
		{
			name:     "negative diff inside tolerance",
			ref:      Reference{Category: "ghosts", Metric: "ghost_percent", Expected: 40, Tolerance: 2},
			actual:   38.5,
			wantPass: true,
			wantDiff: -1.5,
		},
		{
			name:     "relative tolerance inside",
			ref:      Reference{Category: "transactions", Metric: "total", Expected: 200, TolerancePct: 5},
			actual:   209,
			wantPass: true,
			wantDiff: 9,
		},
		{
			name:     "relative tolerance outside",
			ref:      Reference{Category: "transactions", Metric: "total", Expected: 200, TolerancePct: 5},
			actual:   211,
			wantPass: false,
			wantDiff: 11,
		},
		{
			name:     "looser of absolute and relative applies",
			ref:      Reference{Category: "transactions", Metric: "total", Expected: 100, Tolerance: 2, TolerancePct: 10},
			actual:   108,
			wantPass: true,
			wantDiff: 8,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := c.Check(tt.ref, tt.actual)
			assert.Equal(t, tt.wantPass, result.Pass)
			assert.InDelta(t, tt.wantDiff, result.Diff, 0.001)
			if tt.ref.Expected != 0 {
				assert.InDelta(t, tt.wantDiff/tt.ref.Expected*100, result.DiffPercent, 0.01)
			}
		})
	}
}

func TestChecker_Check_DefaultTolerance(t *testing.T) {
	c := NewChecker(quietLogger())

	// With no tolerance given, 1% of the expected value is allowed, never
	// less than 1.
	tests := []struct {
		name     string
		expected float64
		actual   float64
		wantPass bool
	}{
		{name: "floor of one on small counts", expected: 3, actual: 4, wantPass: true},
		{name: "floor exceeded", expected: 3, actual: 5, wantPass: false},
		{name: "one percent on large counts", expected: 1000, actual: 1008, wantPass: true},
		{name: "one percent exceeded", expected: 1000, actual: 1011, wantPass: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := Reference{Category: "transactions", Metric: "total", Expected: tt.expected}
			result := c.Check(ref, tt.actual)
			assert.Equal(t, tt.wantPass, result.Pass)
		})
	}
}

func TestChecker_Verify(t *testing.T) {
	refs := []Reference{
		{Category: "transactions", Metric: "total", Expected: 3},
		{Category: "transactions", Metric: "with_dates", Expected: 5, Tolerance: 1},
		{Category: "ghosts", Metric: "ghost_count", Expected: 1},
		{Category: "ghosts", Metric: "not_computed", Expected: 7},
	}
	metrics := map[string]float64{
		"transactions.total":      3,
		"transactions.with_dates": 2,
		"ghosts.ghost_count":      1,
	}

	report := NewChecker(quietLogger()).Verify(context.Background(), refs, metrics)

	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 2, report.Passed)
	assert.Equal(t, 2, report.Failed)
	assert.InDelta(t, 50.0, report.PassRate, 0.001)

	require.Len(t, report.Categories, 2)
	assert.Equal(t, "ghosts", report.Categories[0].Category)
	assert.Equal(t, 1, report.Categories[0].Passed)
	assert.Equal(t, "transactions", report.Categories[1].Category)
	assert.Equal(t, 2, report.Categories[1].Total)
}

func TestLoadReferences(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reference.yaml")
	content := `checks:
  - category: transactions
    metric: total
    expected: 6543
    tolerance: 10
  - category: ghosts
    metric: ghost_percent
    expected: 38.2
    tolerance: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	refs, err := LoadReferences(path)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, "transactions", refs[0].Category)
	assert.InDelta(t, 6543, refs[0].Expected, 0.001)
	assert.InDelta(t, 0.5, refs[1].Tolerance, 0.001)
}

func TestLoadReferences_Errors(t *testing.T) {
	_, err := LoadReferences(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeReference))

	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("checks: [oops"), 0o644))
	_, err = LoadReferences(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeReference))
}

func TestMetrics(t *testing.T) {
	ds := &domain.Dataset{
		Transactions: make([]domain.Transaction, 3),
		Stats: domain.Stats{
			ByYear: []domain.YearStats{{Year: 1902, TotalTransactions: 3}},
			Summary: domain.StatsSummary{
				AvgTransactionsPerBorrower: 1.5,
			},
		},
	}
	qr := &domain.QualityReport{
		Transactions: domain.TransactionQuality{WithDates: 2},
		Ghosts:       domain.GhostQuality{GhostCount: 1, GhostPercent: 33.33},
	}

	m := Metrics(ds, qr)
	assert.InDelta(t, 3, m["transactions.total"], 0.001)
	assert.InDelta(t, 2, m["transactions.with_dates"], 0.001)
	assert.InDelta(t, 33.33, m["ghosts.ghost_percent"], 0.001)
	assert.InDelta(t, 1.5, m["summary.avg_transactions_per_borrower"], 0.001)
	assert.InDelta(t, 3, m["by_year.1902"], 0.001)
}
