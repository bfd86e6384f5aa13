// Package aggregate derives the analytical views from the canonical
// transaction set: borrower and book profiles, cross-sectional statistics
// and the per-window interaction graphs. Everything here is a pure fold over
// the transactions plus the read-shared catalog index; nothing mutates its
// inputs.
package aggregate

import (
	"context"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"libledger/internal/identity"
	"libledger/pkg/contracts/domain"
)

// Window is one time slice for the interaction graphs. A zero StartYear
// means the window spans the whole dataset; a zero EndYear means the window
// covers StartYear alone.
type Window struct {
	Label     string
	StartYear int
	EndYear   int
}

// Contains reports whether a transaction year falls inside the window.
// The all-time window admits rows without a year as well.
func (w Window) Contains(year *int) bool {
	if w.StartYear == 0 {
		return true
	}
	if year == nil {
		return false
	}
	end := w.EndYear
	if end == 0 {
		end = w.StartYear
	}
	return *year >= w.StartYear && *year <= end
}

// Result bundles every derived view for one run.
type Result struct {
	Borrowers []domain.BorrowerProfile
	Books     []domain.BookProfile
	Stats     domain.Stats
	Networks  map[string]domain.NetworkGraph
}

// Engine computes the derived views.
type Engine struct {
	logger         *slog.Logger
	catalog        *identity.CatalogIndex
	windows        []Window
	maxConcurrency int
}

// NewEngine wires the aggregation engine. The catalog index is read-only
// here; windows drive the interaction graphs.
func NewEngine(logger *slog.Logger, catalog *identity.CatalogIndex, windows []Window, maxConcurrency int) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Engine{logger: logger, catalog: catalog, windows: windows, maxConcurrency: maxConcurrency}
}

// Build derives every aggregate from the transaction set. Window graphs are
// independent of each other and fold in parallel; profiles and stats are
// single sequential passes.
func (e *Engine) Build(ctx context.Context, txns []domain.Transaction) (*Result, error) {
	result := &Result{
		Borrowers: e.BorrowerProfiles(txns),
		Books:     e.BookProfiles(txns),
	}
	result.Stats = e.BuildStats(txns, result.Borrowers, result.Books)

	titles := bookTitles(result.Books)
	graphs := make([]domain.NetworkGraph, len(e.windows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)
	for i, window := range e.windows {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			graphs[i] = e.BuildNetwork(window, txns, titles)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.Networks = make(map[string]domain.NetworkGraph, len(graphs))
	for _, graph := range graphs {
		result.Networks[graph.Window] = graph
	}

	e.logger.InfoContext(ctx, "built aggregates",
		slog.Int("borrowers", len(result.Borrowers)),
		slog.Int("books", len(result.Books)),
		slog.Int("networks", len(result.Networks)))

	return result, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
