package domain

// Gender is the borrower gender marker carried on every transaction.
type Gender string

const (
	GenderMan     Gender = "M"
	GenderWoman   Gender = "W"
	GenderUnknown Gender = "Unknown"
)

// MatchClass describes how a transaction's book reference resolved against
// the master catalog. Every transaction gets exactly one class.
type MatchClass string

const (
	// MatchClassMatched means the book id resolved to a catalog entry.
	MatchClassMatched MatchClass = "matched"
	// MatchClassGhost means a book reference exists (by name or by an id the
	// catalog does not know) but no catalog entry matches it.
	MatchClassGhost MatchClass = "ghost"
	// MatchClassOrphan means the row carries neither a book name nor an id.
	MatchClassOrphan MatchClass = "orphan"
)

// Transaction is one canonicalized ledger row. Nullable source attributes are
// pointer-typed so a missing value survives the round trip to JSON as null
// instead of collapsing into a zero value.
type Transaction struct {
	TransactionID string     `json:"transaction_id"`
	BookID        *int64     `json:"book_id"`
	BookName      *string    `json:"book_name"`
	BorrowerName  *string    `json:"borrower_name"`
	Date          *string    `json:"date"`        // ISO 8601 (YYYY-MM-DD)
	ReturnDate    *string    `json:"return_date"` // ISO 8601 (YYYY-MM-DD)
	Year          *int       `json:"year"`
	Gender        Gender     `json:"gender"`
	Period        string     `json:"period"`
	SourceFile    string     `json:"source_file"`
	Match         MatchClass `json:"match,omitempty"`
}

// HasBookReference reports whether the row references a book at all, by name
// or by id. Rows without any reference classify as orphans.
func (t *Transaction) HasBookReference() bool {
	return t.BookID != nil || (t.BookName != nil && *t.BookName != "")
}

// HasBorrower reports whether the row names a borrower.
func (t *Transaction) HasBorrower() bool {
	return t.BorrowerName != nil && *t.BorrowerName != ""
}
