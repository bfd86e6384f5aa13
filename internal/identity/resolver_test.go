package identity

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libledger/internal/ledger"
	"libledger/pkg/contracts/domain"
)

func quietResolver(catalog *CatalogIndex, rules []RewriteRule) *Resolver {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewResolver(logger, catalog, NewBorrowerCanonicalizer(rules), 1800, 2025)
}

func TestResolver_Classification(t *testing.T) {
	catalog := NewCatalogIndex([]domain.CatalogEntry{
		{BookID: 100, Title: "Der Yid"},
	})

	// One row matches the catalog, one references an unknown id, one
	// references a book by name only, one has no book reference at all.
	records := []ledger.Record{
		{RecordID: "a", Borrower: "Chaim Levin", BookIDRaw: "100", DateRaw: "03/01/1902", Period: "1902"},
		{RecordID: "b", Borrower: "Sara Katz", BookIDRaw: "999", DateRaw: "04/01/1902", Period: "1902"},
		{RecordID: "c", Borrower: "Moshe Berg", BookName: "Geshikhte", DateRaw: "05/01/1902", Period: "1902"},
		{RecordID: "d", Borrower: "Rivka Stein", DateRaw: "06/01/1902", Period: "1902"},
	}

	txns, report := quietResolver(catalog, nil).Canonicalize(context.Background(), records, false)
	require.Len(t, txns, 4)

	assert.Equal(t, domain.MatchClassMatched, txns[0].Match)
	assert.Equal(t, domain.MatchClassGhost, txns[1].Match)
	assert.Equal(t, domain.MatchClassGhost, txns[2].Match)
	assert.Equal(t, domain.MatchClassOrphan, txns[3].Match)

	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 2, report.Ghost)
	assert.Equal(t, 1, report.Orphan)
}

func TestResolver_BookIDMergeAndMalformed(t *testing.T) {
	tests := []struct {
		name          string
		bookIDCol     string
		bareIDCol     string
		wantID        *int64
		wantMalformed int
	}{
		{name: "book id column wins", bookIDCol: "7", bareIDCol: "8", wantID: int64Ptr(7)},
		{name: "bare id fills null", bookIDCol: "", bareIDCol: "8", wantID: int64Ptr(8)},
		{name: "float coerces", bookIDCol: "7.0", wantID: int64Ptr(7)},
		{name: "malformed book id falls through", bookIDCol: "seven", bareIDCol: "8", wantID: int64Ptr(8), wantMalformed: 1},
		{name: "both malformed", bookIDCol: "seven", bareIDCol: "eight", wantMalformed: 2},
		{name: "both empty", wantID: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := []ledger.Record{{RecordID: "r", BookIDRaw: tt.bookIDCol, BookIDAltRaw: tt.bareIDCol}}
			txns, report := quietResolver(nil, nil).Canonicalize(context.Background(), records, false)
			require.Len(t, txns, 1)
			if tt.wantID == nil {
				assert.Nil(t, txns[0].BookID)
			} else {
				require.NotNil(t, txns[0].BookID)
				assert.Equal(t, *tt.wantID, *txns[0].BookID)
			}
			assert.Equal(t, tt.wantMalformed, report.MalformedBookIDs)
		})
	}
}

func TestResolver_BookIDMergeDrivesClassification(t *testing.T) {
	catalog := NewCatalogIndex([]domain.CatalogEntry{
		{BookID: 200, Title: "Der Yid"},
	})

	// Both id columns populated with different values, and only the book-id
	// column's value exists in the catalog. The merge must keep that value,
	// so the row matches instead of turning into a ghost.
	records := []ledger.Record{
		{RecordID: "r", Borrower: "Chaim Levin", BookIDRaw: "200", BookIDAltRaw: "100"},
	}

	txns, _ := quietResolver(catalog, nil).Canonicalize(context.Background(), records, false)
	require.Len(t, txns, 1)
	require.NotNil(t, txns[0].BookID)
	assert.Equal(t, int64(200), *txns[0].BookID)
	assert.Equal(t, domain.MatchClassMatched, txns[0].Match)
}

func TestResolver_Gender(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		resolved bool
		want     domain.Gender
	}{
		{name: "marker x", raw: "x", resolved: true, want: domain.GenderWoman},
		{name: "marker F upper", raw: "F", resolved: true, want: domain.GenderWoman},
		{name: "marker female", raw: "Female", resolved: true, want: domain.GenderWoman},
		{name: "unmarked is a man", raw: "", resolved: true, want: domain.GenderMan},
		{name: "odd marker is a man", raw: "yes", resolved: true, want: domain.GenderMan},
		{name: "no marker column", raw: "", resolved: false, want: domain.GenderUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := []ledger.Record{{RecordID: "r", GenderRaw: tt.raw}}
			txns, _ := quietResolver(nil, nil).Canonicalize(context.Background(), records, tt.resolved)
			assert.Equal(t, tt.want, txns[0].Gender)
		})
	}
}

func TestResolver_DatesAndYear(t *testing.T) {
	records := []ledger.Record{
		{RecordID: "a", DateRaw: "03/01/1902", ReturnDateRaw: "17/01/1902", Period: "1902"},
		{RecordID: "b", DateRaw: "not a date", Period: "1934"},
		{RecordID: "c", Period: "1903-1904"},
		{RecordID: "d", DateRaw: "01/01/1700", Period: "unknown"},
	}

	txns, report := quietResolver(nil, nil).Canonicalize(context.Background(), records, false)

	require.NotNil(t, txns[0].Date)
	assert.Equal(t, "1902-01-03", *txns[0].Date)
	require.NotNil(t, txns[0].ReturnDate)
	assert.Equal(t, "1902-01-17", *txns[0].ReturnDate)
	require.NotNil(t, txns[0].Year)
	assert.Equal(t, 1902, *txns[0].Year)

	// Unparseable date falls back to the single-year period.
	assert.Nil(t, txns[1].Date)
	require.NotNil(t, txns[1].Year)
	assert.Equal(t, 1934, *txns[1].Year)

	// A span period gives no single year.
	assert.Nil(t, txns[2].Year)

	// Out-of-range years null out even when the date parsed.
	assert.Nil(t, txns[3].Year)

	assert.Equal(t, 1, report.MalformedDates)
}

func TestResolver_GeneratesMissingIDs(t *testing.T) {
	records := []ledger.Record{
		{RecordID: "", Borrower: "Chaim Levin"},
		{RecordID: "", Borrower: "Sara Katz"},
	}

	txns, report := quietResolver(nil, nil).Canonicalize(context.Background(), records, false)
	assert.Equal(t, 2, report.GeneratedIDs)
	assert.NotEmpty(t, txns[0].TransactionID)
	assert.NotEmpty(t, txns[1].TransactionID)
	assert.NotEqual(t, txns[0].TransactionID, txns[1].TransactionID)
}

func TestBorrowerCanonicalizer(t *testing.T) {
	rules := []RewriteRule{
		{From: "Ch. Levin", To: "Chaim Levin"},
		{From: "  S.   Katz ", To: "Sara Katz"},
	}
	c := NewBorrowerCanonicalizer(rules)

	tests := []struct {
		raw  string
		want string
	}{
		{"Ch. Levin", "Chaim Levin"},
		{"  Ch.   Levin  ", "Chaim Levin"},
		{"S. Katz", "Sara Katz"},
		{"Moshe   Berg", "Moshe Berg"},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.Canonicalize(tt.raw), "raw %q", tt.raw)
	}
}

func TestCatalogIndex_DuplicateIDsKeepFirst(t *testing.T) {
	idx := NewCatalogIndex([]domain.CatalogEntry{
		{BookID: 1, Title: "First"},
		{BookID: 2, Title: "Second"},
		{BookID: 1, Title: "Repeat"},
		{BookID: 1, Title: "Repeat Again"},
	})

	assert.Equal(t, 2, idx.Len())
	entry, ok := idx.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "First", entry.Title)
	assert.Equal(t, []int64{1}, idx.DuplicateIDs)
	assert.Equal(t, []int64{1, 2}, idx.IDs())
}

func int64Ptr(v int64) *int64 { return &v }
