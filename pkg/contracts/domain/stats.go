package domain

// YearStats aggregates transactions for one calendar year.
type YearStats struct {
	Year              int `json:"year"`
	TotalTransactions int `json:"total_transactions"`
	MenTransactions   int `json:"men_transactions"`
	WomenTransactions int `json:"women_transactions"`
	UniqueBorrowers   int `json:"unique_borrowers"`
	UniqueBooks       int `json:"unique_books"`
}

// GenderStats aggregates transactions for one gender marker.
type GenderStats struct {
	Gender            Gender `json:"gender"`
	TotalTransactions int    `json:"total_transactions"`
	UniqueBorrowers   int    `json:"unique_borrowers"`
}

// LanguageStats aggregates catalog-joined transactions per language.
type LanguageStats struct {
	Language          string `json:"language"`
	TotalTransactions int    `json:"total_transactions"`
	UniqueBooks       int    `json:"unique_books"`
}

// MonthStats aggregates transactions per calendar month across all years.
type MonthStats struct {
	Month             int `json:"month"`
	TotalTransactions int `json:"total_transactions"`
}

// DateRange is the span of valid transaction dates in the dataset.
type DateRange struct {
	Start *string `json:"start"` // ISO 8601
	End   *string `json:"end"`   // ISO 8601
}

// StatsSummary holds the dataset-level headline figures.
type StatsSummary struct {
	TotalTransactions          int       `json:"total_transactions"`
	TotalBorrowers             int       `json:"total_borrowers"`
	TotalBooks                 int       `json:"total_books"`
	DateRange                  DateRange `json:"date_range"`
	AvgTransactionsPerBorrower float64   `json:"avg_transactions_per_borrower"`
	AvgTransactionsPerBook     float64   `json:"avg_transactions_per_book"`
}

// Stats bundles every cross-sectional aggregate derived from the
// canonicalized transaction set.
type Stats struct {
	ByYear     []YearStats     `json:"by_year"`
	ByGender   []GenderStats   `json:"by_gender"`
	ByLanguage []LanguageStats `json:"by_language"`
	ByMonth    []MonthStats    `json:"by_month"`
	Summary    StatsSummary    `json:"summary"`
}
