package ledger

import (
	"strings"

	"libledger/internal/schema"
)

// Record is one merged ledger row projected onto the resolved schema.
// All fields are raw strings exactly as they appeared in the source;
// normalization happens downstream.
type Record struct {
	RecordID      string
	Borrower      string
	BookName      string
	BookIDRaw     string
	BookIDAltRaw  string
	DateRaw       string
	ReturnDateRaw string
	GenderRaw     string
	Period        string
	Source        string
}

// BuildRecords projects every merged row onto the resolved field mapping.
// Unresolved fields come back empty; cell whitespace is trimmed.
func BuildRecords(m *MergedTable, mapping schema.Mapping) []Record {
	records := make([]Record, 0, m.Len())
	for i, row := range m.Rows {
		records = append(records, Record{
			RecordID:      cell(mapping, schema.FieldRecordID, row),
			Borrower:      cell(mapping, schema.FieldBorrower, row),
			BookName:      cell(mapping, schema.FieldBookName, row),
			BookIDRaw:     cell(mapping, schema.FieldBookID, row),
			BookIDAltRaw:  cell(mapping, schema.FieldBookIDAlt, row),
			DateRaw:       cell(mapping, schema.FieldDate, row),
			ReturnDateRaw: cell(mapping, schema.FieldReturnDate, row),
			GenderRaw:     cell(mapping, schema.FieldGender, row),
			Period:        m.Period[i],
			Source:        m.Source[i],
		})
	}
	return records
}

func cell(mapping schema.Mapping, field schema.Field, row []string) string {
	return strings.TrimSpace(mapping.Value(field, row))
}
