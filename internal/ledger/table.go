package ledger

import (
	"strings"
)

// Table is one raw source table: a trimmed header row plus string cells,
// tagged with where it came from and the period inferred for it.
type Table struct {
	Source string
	Period string
	Header []string
	Rows   [][]string
}

// MergedTable is the concatenation of every source table with columns
// aligned by header name. Source and Period run parallel to Rows so each row
// keeps its provenance through dedup.
type MergedTable struct {
	Header []string
	Rows   [][]string
	Source []string
	Period []string
}

// Len returns the row count.
func (m *MergedTable) Len() int {
	return len(m.Rows)
}

// merge concatenates tables into one header-aligned table. Column order is
// first-seen order across the inputs, which is deterministic because the
// caller iterates tables in sorted path order.
func merge(tables []*Table) *MergedTable {
	merged := &MergedTable{}
	colIndex := make(map[string]int)

	for _, tbl := range tables {
		for _, col := range tbl.Header {
			key := columnKey(col)
			if key == "" {
				continue
			}
			if _, ok := colIndex[key]; !ok {
				colIndex[key] = len(merged.Header)
				merged.Header = append(merged.Header, strings.TrimSpace(col))
			}
		}
	}

	for _, tbl := range tables {
		// Per-table projection from local column position to merged position.
		proj := make([]int, len(tbl.Header))
		for i, col := range tbl.Header {
			key := columnKey(col)
			if key == "" {
				proj[i] = -1
				continue
			}
			proj[i] = colIndex[key]
		}

		for _, row := range tbl.Rows {
			aligned := make([]string, len(merged.Header))
			for i, cell := range row {
				if i >= len(proj) || proj[i] < 0 {
					continue
				}
				aligned[proj[i]] = cell
			}
			merged.Rows = append(merged.Rows, aligned)
			merged.Source = append(merged.Source, tbl.Source)
			merged.Period = append(merged.Period, tbl.Period)
		}
	}

	return merged
}

// columnKey normalizes a header cell for cross-file alignment. Transcribers
// were inconsistent about surrounding whitespace but not about names.
func columnKey(col string) string {
	return strings.ToLower(strings.TrimSpace(col))
}

// rowFingerprint joins a row's cells with an unprintable separator for exact
// duplicate detection.
func rowFingerprint(row []string) string {
	return strings.Join(row, "\x1f")
}
