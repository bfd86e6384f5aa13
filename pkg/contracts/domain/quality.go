package domain

// IssueSeverity ranks quality findings.
type IssueSeverity string

const (
	SeverityLow    IssueSeverity = "low"
	SeverityMedium IssueSeverity = "medium"
	SeverityHigh   IssueSeverity = "high"
)

// QualityIssue records one data-quality finding with optional samples so a
// reviewer can locate the offending rows.
type QualityIssue struct {
	Type     string        `json:"type"`
	Severity IssueSeverity `json:"severity,omitempty"`
	Count    int           `json:"count,omitempty"`
	Message  string        `json:"message"`
	Samples  []string      `json:"samples,omitempty"`
}

// TransactionQuality summarizes per-field completeness of the merged ledger.
type TransactionQuality struct {
	Total            int     `json:"total"`
	WithDates        int     `json:"with_dates"`
	WithReturns      int     `json:"with_returns"`
	WithBooks        int     `json:"with_books"`
	WithBorrowers    int     `json:"with_borrowers"`
	CompletenessRate float64 `json:"completeness_rate"`
}

// GhostQuality summarizes the ghost-record situation against a fixed catalog
// snapshot.
type GhostQuality struct {
	MatchedCount int     `json:"matched_count"`
	GhostCount   int     `json:"ghost_count"`
	OrphanCount  int     `json:"orphan_count"`
	GhostPercent float64 `json:"ghost_percent"`
	SampleIDs    []int64 `json:"sample_ids,omitempty"`
}

// GenderDistribution breaks borrower profiles down by gender marker.
type GenderDistribution struct {
	Women        int     `json:"women"`
	Men          int     `json:"men"`
	Unknown      int     `json:"unknown"`
	WomenPercent float64 `json:"women_percent"`
}

// BorrowerQuality summarizes reading cohorts over the borrower profiles.
type BorrowerQuality struct {
	Total               int                `json:"total"`
	SingleBookBorrowers int                `json:"single_book_borrowers"`
	PowerUsers          int                `json:"power_users"`
	SuperUsers          int                `json:"super_users"`
	Gender              GenderDistribution `json:"gender_distribution"`
}

// BookQuality summarizes catalog utilization.
type BookQuality struct {
	TotalCataloged   int     `json:"total_cataloged"`
	TotalProfiles    int     `json:"total_profiles"`
	GhostRecords     int     `json:"ghost_records"`
	NeverBorrowed    int     `json:"never_borrowed"`
	UtilizationRate  float64 `json:"utilization_rate"`
	MostPopularTitle string  `json:"most_popular_title,omitempty"`
	MostPopularCount int     `json:"most_popular_count"`
}

// QualityReport is the structured data-quality document emitted alongside the
// dataset. It is observational: producing it never mutates upstream entities.
type QualityReport struct {
	GeneratedAt  string             `json:"generated_at"`
	Transactions TransactionQuality `json:"transactions"`
	Ghosts       GhostQuality       `json:"ghosts"`
	Borrowers    BorrowerQuality    `json:"borrowers"`
	Books        BookQuality        `json:"books"`
	Issues       []QualityIssue     `json:"issues"`
	Warnings     []QualityIssue     `json:"warnings"`
}

// CheckResult is one verification of a computed scalar against a reference
// value within tolerance.
type CheckResult struct {
	Category    string  `json:"category"`
	Metric      string  `json:"metric"`
	Expected    float64 `json:"expected"`
	Actual      float64 `json:"actual"`
	Tolerance   float64 `json:"tolerance"`
	Diff        float64 `json:"diff"`
	DiffPercent float64 `json:"diff_percent"`
	Pass        bool    `json:"pass"`
}

// CategorySummary aggregates check outcomes for one category.
type CategorySummary struct {
	Category string `json:"category"`
	Total    int    `json:"total"`
	Passed   int    `json:"passed"`
}

// VerificationReport collects every reference check from a run.
type VerificationReport struct {
	GeneratedAt string            `json:"generated_at"`
	Total       int               `json:"total"`
	Passed      int               `json:"passed"`
	Failed      int               `json:"failed"`
	PassRate    float64           `json:"pass_rate"`
	Categories  []CategorySummary `json:"categories"`
	Results     []CheckResult     `json:"results"`
}
