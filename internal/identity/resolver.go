package identity

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"libledger/internal/dates"
	"libledger/internal/ledger"
	"libledger/pkg/contracts/domain"
)

// Report counts what canonicalization absorbed. Malformed cells never abort
// the run; they null out and show up here.
type Report struct {
	Total            int `json:"total"`
	Matched          int `json:"matched"`
	Ghost            int `json:"ghost"`
	Orphan           int `json:"orphan"`
	MalformedBookIDs int `json:"malformed_book_ids"`
	MalformedDates   int `json:"malformed_dates"`
	GeneratedIDs     int `json:"generated_ids"`
}

// Resolver turns raw ledger records into canonical transactions.
type Resolver struct {
	logger    *slog.Logger
	catalog   *CatalogIndex
	borrowers *BorrowerCanonicalizer
	yearMin   int
	yearMax   int
}

// NewResolver wires the resolver. yearMin/yearMax bound plausible activity
// years; anything outside nulls out.
func NewResolver(logger *slog.Logger, catalog *CatalogIndex, borrowers *BorrowerCanonicalizer, yearMin, yearMax int) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	if borrowers == nil {
		borrowers = NewBorrowerCanonicalizer(nil)
	}
	return &Resolver{
		logger:    logger,
		catalog:   catalog,
		borrowers: borrowers,
		yearMin:   yearMin,
		yearMax:   yearMax,
	}
}

// Canonicalize converts every record in input order. genderResolved reports
// whether the source tables carried a gender marker column at all: without
// one, every row is Unknown rather than defaulting to men.
func (r *Resolver) Canonicalize(ctx context.Context, records []ledger.Record, genderResolved bool) ([]domain.Transaction, *Report) {
	report := &Report{Total: len(records)}
	txns := make([]domain.Transaction, 0, len(records))

	for _, rec := range records {
		txn := domain.Transaction{
			Period:     rec.Period,
			SourceFile: rec.Source,
		}

		txn.TransactionID = rec.RecordID
		if txn.TransactionID == "" {
			txn.TransactionID = uuid.NewString()
			report.GeneratedIDs++
		}

		txn.BookID = r.mergeBookID(rec, report)
		if rec.BookName != "" {
			name := rec.BookName
			txn.BookName = &name
		}
		if borrower := r.borrowers.Canonicalize(rec.Borrower); borrower != "" {
			txn.BorrowerName = &borrower
		}

		txn.Date = r.normalizeDate(rec.DateRaw, report)
		txn.ReturnDate = r.normalizeDate(rec.ReturnDateRaw, report)
		txn.Year = r.deriveYear(txn.Date, rec.Period)
		txn.Gender = resolveGender(rec.GenderRaw, genderResolved)
		txn.Match = r.classify(&txn)

		switch txn.Match {
		case domain.MatchClassMatched:
			report.Matched++
		case domain.MatchClassGhost:
			report.Ghost++
		case domain.MatchClassOrphan:
			report.Orphan++
		}

		txns = append(txns, txn)
	}

	r.logger.InfoContext(ctx, "canonicalized transactions",
		slog.Int("total", report.Total),
		slog.Int("matched", report.Matched),
		slog.Int("ghost", report.Ghost),
		slog.Int("orphan", report.Orphan),
		slog.Int("malformed_book_ids", report.MalformedBookIDs),
		slog.Int("malformed_dates", report.MalformedDates))

	return txns, report
}

// mergeBookID prefers the dedicated book-id column and lets the bare id
// column fill its empty cells. A non-numeric cell in either counts as
// malformed and nulls out.
func (r *Resolver) mergeBookID(rec ledger.Record, report *Report) *int64 {
	for _, raw := range []string{rec.BookIDRaw, rec.BookIDAltRaw} {
		if raw == "" {
			continue
		}
		if id, ok := ledger.CoerceBookID(raw); ok {
			return &id
		}
		report.MalformedBookIDs++
	}
	return nil
}

func (r *Resolver) normalizeDate(raw string, report *Report) *string {
	if raw == "" {
		return nil
	}
	iso, ok := dates.Normalize(raw)
	if !ok {
		report.MalformedDates++
		return nil
	}
	return &iso
}

// deriveYear takes the year from the normalized date when present, else from
// a single-year period tag. Out-of-range years null out.
func (r *Resolver) deriveYear(isoDate *string, period string) *int {
	if isoDate != nil && len(*isoDate) >= 4 {
		if year, ok := dates.NormalizeYear((*isoDate)[:4], r.yearMin, r.yearMax); ok {
			return &year
		}
	}
	if year, ok := dates.NormalizeYear(period, r.yearMin, r.yearMax); ok {
		return &year
	}
	return nil
}

// resolveGender interprets the women's marker column. Women are marked,
// men are the unmarked rest; a corpus without the column yields Unknown.
func resolveGender(raw string, columnResolved bool) domain.Gender {
	if !columnResolved {
		return domain.GenderUnknown
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "x", "f", "female":
		return domain.GenderWoman
	default:
		return domain.GenderMan
	}
}

// classify assigns the match class: a catalog hit is matched, any other book
// reference is a ghost, no reference at all is an orphan.
func (r *Resolver) classify(txn *domain.Transaction) domain.MatchClass {
	if txn.BookID != nil && r.catalog != nil {
		if _, ok := r.catalog.Lookup(*txn.BookID); ok {
			return domain.MatchClassMatched
		}
	}
	if txn.HasBookReference() {
		return domain.MatchClassGhost
	}
	return domain.MatchClassOrphan
}
