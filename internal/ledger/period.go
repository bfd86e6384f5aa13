package ledger

import (
	"strconv"
	"strings"

	"libledger/internal/dates"
	"libledger/internal/schema"
)

// PeriodUnknown tags tables whose transcription batch could not be inferred.
const PeriodUnknown = "unknown"

// detectPeriod infers the transcription batch of one table: first from the
// filename conventions the corpus uses, else from the most frequent calendar
// year in the table's date column.
func detectPeriod(tbl *Table) string {
	name := strings.ToLower(tbl.Source)

	switch {
	case strings.Contains(name, "1902"):
		return "1902"
	case strings.Contains(name, "vol_1_1"), strings.Contains(name, "vol 1_1"):
		return "1903-1904"
	case strings.Contains(name, "1934"):
		return "1934"
	case strings.Contains(name, "1940"):
		return "1940"
	}

	if year, ok := modalYear(tbl); ok {
		switch year {
		case 1903, 1904:
			return "1903-1904"
		default:
			return strconv.Itoa(year)
		}
	}

	return PeriodUnknown
}

// modalYear parses the table's date column and returns its most frequent
// calendar year. Ties resolve to the lower year for determinism.
func modalYear(tbl *Table) (int, bool) {
	mapping := schema.Resolve(tbl.Header, tbl.Rows, []schema.FieldSpec{
		{Field: schema.FieldDate, Keywords: []string{"date"}, Exclude: []string{"return", "transcription"}},
	})

	idx, ok := mapping.Index(schema.FieldDate)
	if !ok {
		return 0, false
	}

	counts := make(map[int]int)
	for _, row := range tbl.Rows {
		if idx >= len(row) {
			continue
		}
		if t, ok := dates.Parse(row[idx]); ok {
			counts[t.Year()]++
		}
	}

	best, bestCount := 0, 0
	for year, count := range counts {
		if count > bestCount || (count == bestCount && year < best) {
			best, bestCount = year, count
		}
	}
	return best, bestCount > 0
}
