package domain

// BorrowerProfile is the accumulated reading history of one canonical
// borrower name. Profiles are derived views: they are recomputed from the
// transaction set and never mutated independently.
type BorrowerProfile struct {
	BorrowerName      string        `json:"borrower_name"`
	Gender            Gender        `json:"gender"`
	FirstSeen         *string       `json:"first_seen"` // ISO 8601
	LastSeen          *string       `json:"last_seen"`  // ISO 8601
	Transactions      []Transaction `json:"transactions"`
	UniqueBooks       []int64       `json:"unique_books"`
	YearsActive       []int         `json:"years_active"`
	TotalTransactions int           `json:"total_transactions"`
	UniqueBookCount   int           `json:"unique_book_count"`
	ReadingVelocity   float64       `json:"reading_velocity"`
	MostActiveMonth   *int          `json:"most_active_month"`
}

// BookProfile joins a catalog entry (or a ghost id synthesized from the
// ledgers) to its transaction history.
type BookProfile struct {
	BookID              int64         `json:"book_id"`
	Title               string        `json:"title,omitempty"`
	Author              string        `json:"author,omitempty"`
	Publisher           string        `json:"publisher,omitempty"`
	Language            string        `json:"language,omitempty"`
	Link                string        `json:"link,omitempty"`
	IsGhost             bool          `json:"is_ghost"`
	Transactions        []Transaction `json:"transactions"`
	TransactionCount    int           `json:"transaction_count"`
	UniqueBorrowers     []string      `json:"unique_borrowers"`
	UniqueBorrowerCount int           `json:"unique_borrower_count"`
}
