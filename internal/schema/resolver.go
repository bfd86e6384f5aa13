// Package schema infers canonical column roles from the inconsistent headers
// of historical ledger tables. Resolution is a pure scoring pass over the
// header row: keyword hits score a column in, exclusion keywords score it
// out, and non-null density breaks ties. It never fails; unresolved fields
// are reported, not raised, so the pipeline can decide to degrade.
package schema

import (
	"sort"
	"strings"
)

// Field is one of the fixed semantic roles every heterogeneous source column
// must map onto.
type Field string

const (
	FieldRecordID Field = "transaction_id"
	FieldBorrower Field = "borrower_name"
	FieldBookName Field = "book_name"
	// FieldBookID is the dedicated "book id" column. FieldBookIDAlt is the
	// bare catalog-style "id" column that fills its gaps.
	FieldBookID     Field = "book_id"
	FieldBookIDAlt  Field = "book_id_alt"
	FieldDate       Field = "date"
	FieldReturnDate Field = "return_date"
	FieldGender     Field = "gender"
)

// FieldSpec carries the keyword hints and exclusion keywords used to locate
// one canonical field among the source columns.
type FieldSpec struct {
	Field    Field
	Keywords []string
	Exclude  []string
	// Mandatory marks fields whose absence degrades the run. Book identity
	// is mandatory as a pair (id or name) and is checked separately.
	Mandatory bool
}

// DefaultFieldSpecs returns the hint table tuned to the transcription
// conventions seen in the source corpus ("ID - record", "person's name",
// "book name", sparse "book id" next to the catalog "id", "<F>" gender
// markers).
func DefaultFieldSpecs() []FieldSpec {
	return []FieldSpec{
		{
			Field:    FieldRecordID,
			Keywords: []string{"id", "record"},
			Exclude:  []string{"book", "person", "name"},
		},
		{
			Field:     FieldBorrower,
			Keywords:  []string{"person", "borrower", "patron", "name"},
			Exclude:   []string{"book", "return", "image"},
			Mandatory: true,
		},
		{
			Field:    FieldBookName,
			Keywords: []string{"book", "title", "item"},
			Exclude:  []string{"person", "borrower", "id"},
		},
		{
			Field:    FieldBookID,
			Keywords: []string{"book", "id"},
			Exclude:  []string{"record", "person", "name"},
		},
		{
			Field:    FieldBookIDAlt,
			Keywords: []string{"id"},
			Exclude:  []string{"record", "book", "person", "name", "return"},
		},
		{
			Field:     FieldDate,
			Keywords:  []string{"date"},
			Exclude:   []string{"return", "transcription"},
			Mandatory: true,
		},
		{
			Field:    FieldReturnDate,
			Keywords: []string{"return"},
			Exclude:  []string{"transcription"},
		},
		{
			Field:    FieldGender,
			Keywords: []string{"<f>", "gender", "sex"},
		},
	}
}

// ColumnMatch is the chosen source column for one canonical field.
// Confidence is the column's non-null fraction, exposed so downstream stages
// can choose to degrade rather than silently trust a sparse match.
type ColumnMatch struct {
	Column     string  `json:"column"`
	Index      int     `json:"index"`
	Score      int     `json:"score"`
	Confidence float64 `json:"confidence"`
}

// Mapping is the resolution result: canonical field to source column,
// computed once per merged table.
type Mapping struct {
	Columns map[Field]ColumnMatch `json:"columns"`
}

// Resolved reports whether the field mapped onto a source column.
func (m Mapping) Resolved(f Field) bool {
	_, ok := m.Columns[f]
	return ok
}

// Index returns the source column index for a field.
func (m Mapping) Index(f Field) (int, bool) {
	match, ok := m.Columns[f]
	if !ok {
		return 0, false
	}
	return match.Index, true
}

// Value extracts the trimmed cell for a field from one row, or "" when the
// field is unmapped or the row is short.
func (m Mapping) Value(f Field, row []string) string {
	idx, ok := m.Index(f)
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// MissingMandatory lists the mandatory fields that did not resolve. Book
// identity counts as a single mandatory requirement satisfied by any of the
// id columns or the book name column.
func (m Mapping) MissingMandatory(specs []FieldSpec) []Field {
	var missing []Field
	for _, spec := range specs {
		if spec.Mandatory && !m.Resolved(spec.Field) {
			missing = append(missing, spec.Field)
		}
	}
	if !m.Resolved(FieldBookID) && !m.Resolved(FieldBookIDAlt) && !m.Resolved(FieldBookName) {
		missing = append(missing, FieldBookID)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}

type candidate struct {
	column  string
	index   int
	score   int
	nonNull float64
}

// Resolve maps each field spec onto its best-scoring source column. Pure
// function: the inputs are never modified and identical inputs always yield
// the identical mapping.
func Resolve(header []string, rows [][]string, specs []FieldSpec) Mapping {
	nonNull := nonNullFractions(header, rows)

	mapping := Mapping{Columns: make(map[Field]ColumnMatch, len(specs))}
	for _, spec := range specs {
		best, ok := bestColumn(header, nonNull, spec)
		if !ok {
			continue
		}
		mapping.Columns[spec.Field] = ColumnMatch{
			Column:     best.column,
			Index:      best.index,
			Score:      best.score,
			Confidence: best.nonNull,
		}
	}
	return mapping
}

func bestColumn(header []string, nonNull []float64, spec FieldSpec) (candidate, bool) {
	var candidates []candidate

	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		if name == "" {
			continue
		}

		if containsAny(name, spec.Exclude) {
			continue
		}

		score := 0
		for _, kw := range spec.Keywords {
			if strings.Contains(name, kw) {
				score++
			}
		}
		if score == 0 {
			continue
		}

		candidates = append(candidates, candidate{
			column:  col,
			index:   i,
			score:   score,
			nonNull: nonNull[i],
		})
	}

	if len(candidates) == 0 {
		return candidate{}, false
	}

	// Highest keyword score wins; ties go to the denser column; the stable
	// sort keeps source order as the final tie break.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].nonNull > candidates[j].nonNull
	})
	return candidates[0], true
}

func containsAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

func nonNullFractions(header []string, rows [][]string) []float64 {
	fractions := make([]float64, len(header))
	if len(rows) == 0 {
		return fractions
	}
	for i := range header {
		filled := 0
		for _, row := range rows {
			if i < len(row) && strings.TrimSpace(row[i]) != "" {
				filled++
			}
		}
		fractions[i] = float64(filled) / float64(len(rows))
	}
	return fractions
}
