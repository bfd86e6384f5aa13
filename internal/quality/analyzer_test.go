package quality

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libledger/pkg/contracts/domain"
)

func strPtr(s string) *string { return &s }
func int64Ptr(v int64) *int64 { return &v }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAnalyzer_GhostScenario(t *testing.T) {
	// One catalog hit, one unknown id, one name-only reference.
	txns := []domain.Transaction{
		{TransactionID: "a", BookID: int64Ptr(100), BorrowerName: strPtr("Chaim Levin"), Date: strPtr("1902-01-03"), Match: domain.MatchClassMatched},
		{TransactionID: "b", BookID: int64Ptr(999), BorrowerName: strPtr("Sara Katz"), Date: strPtr("1902-01-04"), Match: domain.MatchClassGhost},
		{TransactionID: "c", BookName: strPtr("Geshikhte"), BorrowerName: strPtr("Moshe Berg"), Date: strPtr("1902-01-05"), Match: domain.MatchClassGhost},
	}

	report := NewAnalyzer(quietLogger()).Analyze(context.Background(), txns, nil, nil, 1)

	assert.Equal(t, 1, report.Ghosts.MatchedCount)
	assert.Equal(t, 2, report.Ghosts.GhostCount)
	assert.Equal(t, 0, report.Ghosts.OrphanCount)
	assert.InDelta(t, 66.67, report.Ghosts.GhostPercent, 0.01)
	assert.Equal(t, []int64{999}, report.Ghosts.SampleIDs)

	// Two thirds ghosts crosses the high-share threshold.
	require.NotEmpty(t, report.Issues)
	assert.Equal(t, "high_ghost_share", report.Issues[0].Type)
}

func TestAnalyzer_Completeness(t *testing.T) {
	txns := []domain.Transaction{
		{TransactionID: "a", BookID: int64Ptr(1), BorrowerName: strPtr("X"), Date: strPtr("1902-01-03"), ReturnDate: strPtr("1902-01-10"), Match: domain.MatchClassMatched},
		{TransactionID: "b", BorrowerName: strPtr("Y"), Match: domain.MatchClassOrphan},
	}

	report := NewAnalyzer(quietLogger()).Analyze(context.Background(), txns, nil, nil, 0)

	assert.Equal(t, 2, report.Transactions.Total)
	assert.Equal(t, 1, report.Transactions.WithDates)
	assert.Equal(t, 1, report.Transactions.WithReturns)
	assert.Equal(t, 1, report.Transactions.WithBooks)
	assert.Equal(t, 2, report.Transactions.WithBorrowers)
	assert.InDelta(t, 50.0, report.Transactions.CompletenessRate, 0.001)
}

func TestAnalyzer_DateOrderWarning(t *testing.T) {
	txns := []domain.Transaction{
		{TransactionID: "ok", Date: strPtr("1902-01-03"), ReturnDate: strPtr("1902-01-10")},
		{TransactionID: "bad", Date: strPtr("1902-01-10"), ReturnDate: strPtr("1902-01-03")},
	}

	report := NewAnalyzer(quietLogger()).Analyze(context.Background(), txns, nil, nil, 0)

	require.Len(t, report.Warnings, 1)
	w := report.Warnings[0]
	assert.Equal(t, "inconsistent_date_order", w.Type)
	assert.Equal(t, 1, w.Count)
	assert.Equal(t, []string{"bad"}, w.Samples)
}

func TestAnalyzer_BorrowerCohorts(t *testing.T) {
	mk := func(name string, total, uniqueBooks int, gender domain.Gender) domain.BorrowerProfile {
		return domain.BorrowerProfile{
			BorrowerName:      name,
			TotalTransactions: total,
			UniqueBookCount:   uniqueBooks,
			Gender:            gender,
		}
	}
	borrowers := []domain.BorrowerProfile{
		mk("single", 3, 1, domain.GenderWoman),
		mk("casual", 5, 4, domain.GenderMan),
		mk("power", 25, 20, domain.GenderMan),
		mk("super", 60, 40, domain.GenderWoman),
	}

	report := NewAnalyzer(quietLogger()).Analyze(context.Background(), nil, borrowers, nil, 0)

	assert.Equal(t, 4, report.Borrowers.Total)
	assert.Equal(t, 1, report.Borrowers.SingleBookBorrowers)
	assert.Equal(t, 2, report.Borrowers.PowerUsers)
	assert.Equal(t, 1, report.Borrowers.SuperUsers)
	assert.Equal(t, 2, report.Borrowers.Gender.Women)
	assert.Equal(t, 2, report.Borrowers.Gender.Men)
	assert.InDelta(t, 50.0, report.Borrowers.Gender.WomenPercent, 0.001)
}

func TestAnalyzer_BookUtilization(t *testing.T) {
	books := []domain.BookProfile{
		{BookID: 1, Title: "Popular", TransactionCount: 9},
		{BookID: 2, Title: "Quiet", TransactionCount: 1},
		{BookID: 3, Title: "Shelf Warmer", TransactionCount: 0},
		{BookID: 99, Title: "Unknown Book #99", IsGhost: true, TransactionCount: 4},
	}

	report := NewAnalyzer(quietLogger()).Analyze(context.Background(), nil, nil, books, 3)

	assert.Equal(t, 3, report.Books.TotalCataloged)
	assert.Equal(t, 4, report.Books.TotalProfiles)
	assert.Equal(t, 1, report.Books.GhostRecords)
	assert.Equal(t, 1, report.Books.NeverBorrowed)
	assert.InDelta(t, 66.67, report.Books.UtilizationRate, 0.01)
	assert.Equal(t, "Popular", report.Books.MostPopularTitle)
	assert.Equal(t, 9, report.Books.MostPopularCount)
}
