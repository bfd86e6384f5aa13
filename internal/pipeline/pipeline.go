// Package pipeline orchestrates one reconciliation run: source discovery,
// ledger ingestion, canonicalization, aggregation, quality analysis and
// export, in that fixed order. Recoverable anomalies are absorbed and
// counted by their stages; a stage error aborts the run with a diagnostic
// naming what was missing.
package pipeline

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"libledger/internal/aggregate"
	"libledger/internal/config"
	apperrors "libledger/internal/errors"
	"libledger/internal/exporter"
	"libledger/internal/identity"
	"libledger/internal/ledger"
	"libledger/internal/quality"
	"libledger/internal/schema"
	"libledger/pkg/contracts/domain"
)

// Version identifies the dataset format this pipeline emits.
const Version = "1.0.0"

// StageResult records one stage's outcome.
type StageResult struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// RunSummary is what a completed run reports back to the caller.
type RunSummary struct {
	RunID       string        `json:"run_id"`
	Stages      []StageResult `json:"stages"`
	DatasetPath string        `json:"dataset_path"`
	QualityPath string        `json:"quality_path"`
	SummaryPath string        `json:"summary_path"`
	Degraded    bool          `json:"degraded"`
}

// Pipeline wires the stages for one run.
type Pipeline struct {
	logger *slog.Logger
	cfg    *config.Config
	tracer trace.Tracer
}

// New creates a pipeline from validated configuration.
func New(logger *slog.Logger, cfg *config.Config) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger: logger,
		cfg:    cfg,
		tracer: otel.Tracer(tracerName),
	}
}

// Run executes the full reconciliation.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	runID := uuid.NewString()
	summary := &RunSummary{RunID: runID}

	ctx, span := p.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	p.logger.InfoContext(ctx, "starting reconciliation run",
		slog.String("run_id", runID),
		slog.String("data_dir", p.cfg.Paths.DataDir))

	var (
		catalogIdx *identity.CatalogIndex
		merged     *ledger.MergedTable
		mapping    schema.Mapping
		loadReport *ledger.LoadReport
		txns       []domain.Transaction
		canonRep   *identity.Report
		aggregates *aggregate.Result
		qreport    *domain.QualityReport
		dataset    *domain.Dataset
	)

	err := p.stage(ctx, summary, "load_catalog", func(ctx context.Context) error {
		var err error
		catalogIdx, err = p.loadCatalog(ctx)
		return err
	})
	if err == nil {
		err = p.stage(ctx, summary, "load_ledgers", func(ctx context.Context) error {
			var stageErr error
			merged, mapping, loadReport, stageErr = p.loadLedgers(ctx)
			return stageErr
		})
	}
	if err == nil {
		err = p.stage(ctx, summary, "canonicalize", func(ctx context.Context) error {
			var stageErr error
			txns, canonRep, stageErr = p.canonicalize(ctx, merged, mapping, loadReport, catalogIdx)
			summary.Degraded = len(loadReport.MissingMandatory) > 0
			return stageErr
		})
	}
	if err == nil {
		err = p.stage(ctx, summary, "aggregate", func(ctx context.Context) error {
			var stageErr error
			aggregates, stageErr = p.aggregate(ctx, txns, catalogIdx)
			return stageErr
		})
	}
	if err == nil {
		err = p.stage(ctx, summary, "quality", func(ctx context.Context) error {
			analyzer := quality.NewAnalyzer(p.logger)
			qreport = analyzer.Analyze(ctx, txns, aggregates.Borrowers, aggregates.Books, catalogIdx.Len())
			return nil
		})
	}
	if err == nil {
		err = p.stage(ctx, summary, "export", func(ctx context.Context) error {
			dataset = p.assemble(runID, txns, aggregates, qreport)
			return p.export(ctx, summary, dataset, qreport)
		})
	}

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return summary, err
	}

	p.logger.InfoContext(ctx, "run finished",
		slog.String("run_id", runID),
		slog.String("dataset", summary.DatasetPath),
		slog.Int("matched", canonRep.Matched),
		slog.Int("ghosts", canonRep.Ghost),
		slog.Int("orphans", canonRep.Orphan),
		slog.Bool("degraded", summary.Degraded))
	return summary, nil
}

// stage runs one pipeline stage inside its own span and records the result.
func (p *Pipeline) stage(ctx context.Context, summary *RunSummary, name string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "pipeline.stage."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	summary.Stages = append(summary.Stages, StageResult{Name: name, Duration: elapsed, Err: err})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		p.logger.ErrorContext(ctx, "stage failed",
			slog.String("stage", name),
			slog.Duration("duration", elapsed),
			slog.String("error", err.Error()))
		return err
	}

	p.logger.InfoContext(ctx, "stage finished",
		slog.String("stage", name),
		slog.Duration("duration", elapsed))
	return nil
}

// loadCatalog finds and indexes the master catalog. A missing catalog is a
// degraded run, not a fatal one: every book reference then classifies as a
// ghost.
func (p *Pipeline) loadCatalog(ctx context.Context) (*identity.CatalogIndex, error) {
	if p.cfg.Paths.CatalogGlob == "" {
		p.logger.WarnContext(ctx, "no catalog configured, all book references will be ghosts")
		return identity.NewCatalogIndex(nil), nil
	}

	matches, err := filepath.Glob(filepath.Join(p.cfg.Paths.DataDir, p.cfg.Paths.CatalogGlob))
	if err != nil {
		return nil, apperrors.NewConfigError("invalid catalog glob", err).
			WithContext("glob", p.cfg.Paths.CatalogGlob)
	}
	if len(matches) == 0 {
		p.logger.WarnContext(ctx, "catalog not found, all book references will be ghosts",
			slog.String("glob", p.cfg.Paths.CatalogGlob))
		return identity.NewCatalogIndex(nil), nil
	}

	entries, skipped, err := ledger.LoadCatalog(matches[0])
	if err != nil {
		return nil, err
	}
	idx := identity.NewCatalogIndex(entries)
	p.logger.InfoContext(ctx, "catalog loaded",
		slog.String("path", matches[0]),
		slog.Int("entries", idx.Len()),
		slog.Int("skipped_rows", skipped),
		slog.Int("duplicate_ids", len(idx.DuplicateIDs)))
	return idx, nil
}

func (p *Pipeline) loadLedgers(ctx context.Context) (*ledger.MergedTable, schema.Mapping, *ledger.LoadReport, error) {
	paths, err := filepath.Glob(filepath.Join(p.cfg.Paths.DataDir, p.cfg.Paths.LedgerGlob))
	if err != nil {
		return nil, schema.Mapping{}, nil, apperrors.NewConfigError("invalid ledger glob", err).
			WithContext("glob", p.cfg.Paths.LedgerGlob)
	}

	loader := ledger.NewLoader(p.logger, schema.DefaultFieldSpecs(), p.cfg.Pipeline.MaxConcurrency)
	merged, mapping, report, err := loader.Load(ctx, paths)
	if err != nil {
		return nil, schema.Mapping{}, nil, err
	}

	if len(report.MissingMandatory) > 0 {
		p.logger.WarnContext(ctx, "mandatory fields unresolved, run degrades",
			slog.Any("missing", report.MissingMandatory))
	}
	return merged, mapping, report, nil
}

func (p *Pipeline) canonicalize(ctx context.Context, merged *ledger.MergedTable, mapping schema.Mapping, report *ledger.LoadReport, catalogIdx *identity.CatalogIndex) ([]domain.Transaction, *identity.Report, error) {
	rules, err := identity.LoadRewriteRules(p.cfg.Paths.RewriteRules)
	if err != nil {
		return nil, nil, err
	}

	resolver := identity.NewResolver(p.logger, catalogIdx,
		identity.NewBorrowerCanonicalizer(rules),
		p.cfg.Pipeline.YearMin, p.cfg.Pipeline.YearMax)

	records := ledger.BuildRecords(merged, mapping)
	txns, canonReport := resolver.Canonicalize(ctx, records, mapping.Resolved(schema.FieldGender))
	return txns, canonReport, nil
}

func (p *Pipeline) aggregate(ctx context.Context, txns []domain.Transaction, catalogIdx *identity.CatalogIndex) (*aggregate.Result, error) {
	windows := make([]aggregate.Window, 0, len(p.cfg.Pipeline.Windows))
	for _, w := range p.cfg.Pipeline.Windows {
		windows = append(windows, aggregate.Window{
			Label:     w.Label,
			StartYear: w.StartYear,
			EndYear:   w.EndYear,
		})
	}

	engine := aggregate.NewEngine(p.logger, catalogIdx, windows, p.cfg.Pipeline.MaxConcurrency)
	return engine.Build(ctx, txns)
}

func (p *Pipeline) assemble(runID string, txns []domain.Transaction, aggregates *aggregate.Result, qreport *domain.QualityReport) *domain.Dataset {
	return &domain.Dataset{
		Metadata: domain.DatasetMetadata{
			RunID:             runID,
			Generated:         time.Now().UTC().Format(time.RFC3339),
			Version:           Version,
			Source:            p.cfg.Paths.DataDir,
			TotalTransactions: len(txns),
			TotalBorrowers:    len(aggregates.Borrowers),
			TotalBooks:        len(aggregates.Books),
			CompletenessRate:  qreport.Transactions.CompletenessRate,
		},
		Transactions: txns,
		Books:        aggregates.Books,
		Borrowers:    aggregates.Borrowers,
		Stats:        aggregates.Stats,
		Networks:     aggregates.Networks,
	}
}

func (p *Pipeline) export(ctx context.Context, summary *RunSummary, dataset *domain.Dataset, qreport *domain.QualityReport) error {
	exp := exporter.NewExporter(p.logger, p.cfg.Paths.OutputDir)

	path, err := exp.WriteDataset(ctx, dataset)
	if err != nil {
		return err
	}
	summary.DatasetPath = path

	path, err = exp.WriteQualityReport(ctx, qreport)
	if err != nil {
		return err
	}
	summary.QualityPath = path

	path, err = exp.WriteSummary(ctx, dataset, qreport)
	if err != nil {
		return err
	}
	summary.SummaryPath = path
	return nil
}
