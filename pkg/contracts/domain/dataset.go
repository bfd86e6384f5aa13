package domain

// DatasetMetadata describes one generation run of the unified dataset.
type DatasetMetadata struct {
	RunID             string  `json:"run_id"`
	Generated         string  `json:"generated"` // RFC 3339
	Version           string  `json:"version"`
	Source            string  `json:"source"`
	TotalTransactions int     `json:"total_transactions"`
	TotalBorrowers    int     `json:"total_borrowers"`
	TotalBooks        int     `json:"total_books"`
	CompletenessRate  float64 `json:"completeness_rate"`
}

// Dataset is the single output snapshot consumed by the visualization layer:
// canonical transactions plus every derived view, generated in one pass.
type Dataset struct {
	Metadata     DatasetMetadata         `json:"metadata"`
	Transactions []Transaction           `json:"transactions"`
	Books        []BookProfile           `json:"books"`
	Borrowers    []BorrowerProfile       `json:"borrowers"`
	Stats        Stats                   `json:"stats"`
	Networks     map[string]NetworkGraph `json:"network_data"`
}
