// Package ledger loads, tags, concatenates and deduplicates the raw
// transaction tables. Files load in parallel but always merge in sorted
// path order, so two runs over the same inputs produce identical row order
// and identical removal counts.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	apperrors "libledger/internal/errors"
	"libledger/internal/schema"
)

// FileLoadInfo reports the outcome for one source file.
type FileLoadInfo struct {
	Path              string `json:"path"`
	Period            string `json:"period"`
	Rows              int    `json:"rows"`
	DuplicatesRemoved int    `json:"duplicates_removed"`
}

// LoadReport accounts for every row the merger admitted or removed.
type LoadReport struct {
	Files                  []FileLoadInfo `json:"files"`
	TotalRows              int            `json:"total_rows"`
	ExactDuplicatesRemoved int            `json:"exact_duplicates_removed"`
	IDDuplicatesRemoved    int            `json:"id_duplicates_removed"`
	MissingMandatory       []schema.Field `json:"missing_mandatory,omitempty"`
}

// Loader reads and merges ledger tables.
type Loader struct {
	logger         *slog.Logger
	specs          []schema.FieldSpec
	maxConcurrency int
}

// NewLoader creates a loader. Field specs drive the post-merge column
// resolution; maxConcurrency bounds parallel file reads.
func NewLoader(logger *slog.Logger, specs []schema.FieldSpec, maxConcurrency int) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if len(specs) == 0 {
		specs = schema.DefaultFieldSpecs()
	}
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Loader{logger: logger, specs: specs, maxConcurrency: maxConcurrency}
}

// Load reads every path, tags periods, merges and deduplicates. Zero paths
// is fatal: an empty ledger set must abort the pipeline, not flow through as
// an empty dataset.
func (l *Loader) Load(ctx context.Context, paths []string) (*MergedTable, schema.Mapping, *LoadReport, error) {
	if len(paths) == 0 {
		return nil, schema.Mapping{}, nil, apperrors.NewMissingSourceError(
			"no ledger tables found; at least one source file is required", nil)
	}

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	tables := make([]*Table, len(sorted))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.maxConcurrency)

	for i, path := range sorted {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			tbl, err := ReadTable(path)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			tbl.Period = detectPeriod(tbl)
			tables[i] = tbl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, schema.Mapping{}, nil, err
	}

	report := &LoadReport{}
	for _, tbl := range tables {
		report.Files = append(report.Files, FileLoadInfo{
			Path:   tbl.Source,
			Period: tbl.Period,
			Rows:   len(tbl.Rows),
		})
		l.logger.InfoContext(ctx, "loaded ledger table",
			slog.String("source", tbl.Source),
			slog.String("period", tbl.Period),
			slog.Int("rows", len(tbl.Rows)))
	}

	merged := merge(tables)

	removedBySource := make(map[string]int)
	report.ExactDuplicatesRemoved = dedupeExact(merged, removedBySource)
	for i := range report.Files {
		report.Files[i].DuplicatesRemoved = removedBySource[report.Files[i].Path]
	}

	mapping := schema.Resolve(merged.Header, merged.Rows, l.specs)
	report.MissingMandatory = mapping.MissingMandatory(l.specs)

	report.IDDuplicatesRemoved = dedupeByRecordID(merged, mapping)
	report.TotalRows = merged.Len()

	l.logger.InfoContext(ctx, "merged ledger tables",
		slog.Int("files", len(tables)),
		slog.Int("total_rows", report.TotalRows),
		slog.Int("exact_duplicates_removed", report.ExactDuplicatesRemoved),
		slog.Int("id_duplicates_removed", report.IDDuplicatesRemoved))

	return merged, mapping, report, nil
}

// dedupeExact removes rows of the concatenated table that repeat an earlier
// row cell for cell, whichever file either copy came from. First occurrence
// in merge order wins. Removals are tallied per source into bySource.
func dedupeExact(m *MergedTable, bySource map[string]int) int {
	seen := make(map[string]bool, len(m.Rows))
	removed := 0
	keptRows := m.Rows[:0]
	keptSource := m.Source[:0]
	keptPeriod := m.Period[:0]

	for i, row := range m.Rows {
		fp := rowFingerprint(row)
		if seen[fp] {
			removed++
			bySource[m.Source[i]]++
			continue
		}
		seen[fp] = true
		keptRows = append(keptRows, row)
		keptSource = append(keptSource, m.Source[i])
		keptPeriod = append(keptPeriod, m.Period[i])
	}

	m.Rows = keptRows
	m.Source = keptSource
	m.Period = keptPeriod
	return removed
}

// dedupeByRecordID removes rows repeating an earlier transaction id, keeping
// the first occurrence in source-iteration order. Rows without an id are
// always kept.
func dedupeByRecordID(m *MergedTable, mapping schema.Mapping) int {
	idx, ok := mapping.Index(schema.FieldRecordID)
	if !ok {
		return 0
	}

	seen := make(map[string]bool, len(m.Rows))
	removed := 0
	keptRows := m.Rows[:0]
	keptSource := m.Source[:0]
	keptPeriod := m.Period[:0]

	for i, row := range m.Rows {
		id := ""
		if idx < len(row) {
			id = row[idx]
		}
		if id != "" && seen[id] {
			removed++
			continue
		}
		if id != "" {
			seen[id] = true
		}
		keptRows = append(keptRows, row)
		keptSource = append(keptSource, m.Source[i])
		keptPeriod = append(keptPeriod, m.Period[i])
	}

	m.Rows = keptRows
	m.Source = keptSource
	m.Period = keptPeriod
	return removed
}
