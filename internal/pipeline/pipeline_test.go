package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"libledger/internal/config"
	apperrors "libledger/internal/errors"
	"libledger/internal/exporter"
	"libledger/pkg/contracts/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dataDir := t.TempDir()
	cfg := &config.Config{}
	cfg.Paths.DataDir = dataDir
	cfg.Paths.LedgerGlob = "*record*.csv"
	cfg.Paths.CatalogGlob = "*unique*books*.csv"
	cfg.Paths.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.Pipeline.YearMin = 1800
	cfg.Pipeline.YearMax = 2025
	cfg.Pipeline.MaxConcurrency = 2
	cfg.Pipeline.Windows = config.DefaultWindows()
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedCorpus(t *testing.T, dataDir string) {
	writeFile(t, dataDir, "records_1902.csv",
		" ID - record,person's name,book name,id,book id,date,return date,<F>\n"+
			"r1,Chaim Levin,Der Yid,100,,03/01/1902,17/01/1902,\n"+
			"r2,Sara Katz,,,,04/01/1902,,x\n"+
			"r3,Ch. Levin,Geshikhte,999,,05/01/1902,,\n"+
			"r3,Ch. Levin,Geshikhte,999,,05/01/1902,,\n")
	writeFile(t, dataDir, "records_1934.csv",
		"ID - record,person's name,date,book id,<F>\n"+
			"r4,Moshe Berg,06/02/1934,101,\n"+
			"r5,Rivka Stein,07/02/1934,101,f\n")
	writeFile(t, dataDir, "unique_books.csv",
		"id,title,author,language_nli\n"+
			"100,Der Yid,A. Goldberg,Yiddish\n"+
			"101,Geshikhte fun Lite,B. Katz,Hebrew\n")
}

func TestPipeline_Run(t *testing.T) {
	cfg := testConfig(t)
	seedCorpus(t, cfg.Paths.DataDir)

	rules := `rules:
  - from: "Ch. Levin"
    to: "Chaim Levin"
`
	cfg.Paths.RewriteRules = writeFile(t, t.TempDir(), "rewrites.yaml", rules)

	summary, err := New(quietLogger(), cfg).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.Degraded)
	assert.NotEmpty(t, summary.RunID)
	require.Len(t, summary.Stages, 6)
	for _, stage := range summary.Stages {
		assert.NoError(t, stage.Err, stage.Name)
	}

	data, err := os.ReadFile(summary.DatasetPath)
	require.NoError(t, err)

	var ds domain.Dataset
	require.NoError(t, json.Unmarshal(data, &ds))

	// The duplicated r3 row collapses during loading.
	assert.Len(t, ds.Transactions, 5)
	assert.Equal(t, summary.RunID, ds.Metadata.RunID)

	// Rewrite rules merge name variants into one profile.
	names := make(map[string]int)
	for _, b := range ds.Borrowers {
		names[b.BorrowerName] = b.TotalTransactions
	}
	assert.Equal(t, 2, names["Chaim Levin"])
	assert.NotContains(t, names, "Ch. Levin")

	// Catalog entries plus the ghost id 999.
	assert.Len(t, ds.Books, 3)

	// Every configured window produced a graph.
	assert.Len(t, ds.Networks, len(cfg.Pipeline.Windows))

	// Gender flows from the marker column.
	byID := make(map[string]domain.Transaction)
	for _, txn := range ds.Transactions {
		byID[txn.TransactionID] = txn
	}
	assert.Equal(t, domain.GenderWoman, byID["r2"].Gender)
	assert.Equal(t, domain.GenderMan, byID["r1"].Gender)
	assert.Equal(t, domain.MatchClassMatched, byID["r1"].Match)
	assert.Equal(t, domain.MatchClassGhost, byID["r3"].Match)
	assert.Equal(t, domain.MatchClassOrphan, byID["r2"].Match)

	// Quality and summary artifacts exist.
	_, err = os.Stat(summary.QualityPath)
	require.NoError(t, err)
	_, err = os.Stat(summary.SummaryPath)
	require.NoError(t, err)
}

func TestPipeline_Run_GhostScenario(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.Paths.DataDir, "records_1902.csv",
		"ID - record,person's name,book name,id,date\n"+
			"a,Moshe,Alef,10,01/02/1902\n"+
			"b,Moshe,Bet,,03/02/1902\n"+
			"c,Sara,Gimel,99,15/13/1902\n")
	writeFile(t, cfg.Paths.DataDir, "unique_books.csv",
		"id,title\n10,Alef\n")

	summary, err := New(quietLogger(), cfg).Run(context.Background())
	require.NoError(t, err)

	var ds domain.Dataset
	data, err := os.ReadFile(summary.DatasetPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &ds))

	var qr domain.QualityReport
	data, err = os.ReadFile(summary.QualityPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &qr))

	// One catalog hit, a name-only reference and an unknown id.
	assert.Equal(t, 1, qr.Ghosts.MatchedCount)
	assert.Equal(t, 2, qr.Ghosts.GhostCount)
	assert.Equal(t, 0, qr.Ghosts.OrphanCount)
	assert.InDelta(t, 66.67, qr.Ghosts.GhostPercent, 0.01)

	byID := make(map[string]domain.Transaction)
	for _, txn := range ds.Transactions {
		byID[txn.TransactionID] = txn
	}
	// Month 13 does not parse; the date nulls out but the row survives.
	assert.Nil(t, byID["c"].Date)
	assert.Equal(t, domain.MatchClassGhost, byID["c"].Match)

	profiles := make(map[string]domain.BorrowerProfile)
	for _, b := range ds.Borrowers {
		profiles[b.BorrowerName] = b
	}
	assert.Equal(t, 2, profiles["Moshe"].TotalTransactions)
	assert.Equal(t, 1, profiles["Moshe"].UniqueBookCount)
	assert.Equal(t, 1, profiles["Sara"].TotalTransactions)
}

func TestPipeline_Run_NoLedgers(t *testing.T) {
	cfg := testConfig(t)

	_, err := New(quietLogger(), cfg).Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMissingSource))
}

func TestPipeline_Run_MissingCatalogDegradesToGhosts(t *testing.T) {
	cfg := testConfig(t)
	writeFile(t, cfg.Paths.DataDir, "records_1902.csv",
		"ID - record,person's name,book id,date\n"+
			"r1,Chaim Levin,100,03/01/1902\n")

	summary, err := New(quietLogger(), cfg).Run(context.Background())
	require.NoError(t, err)

	var ds domain.Dataset
	data, err := os.ReadFile(summary.DatasetPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &ds))

	require.Len(t, ds.Transactions, 1)
	assert.Equal(t, domain.MatchClassGhost, ds.Transactions[0].Match)
}

func TestVerify(t *testing.T) {
	cfg := testConfig(t)
	seedCorpus(t, cfg.Paths.DataDir)

	_, err := New(quietLogger(), cfg).Run(context.Background())
	require.NoError(t, err)

	reference := `checks:
  - category: transactions
    metric: total
    expected: 5
  - category: ghosts
    metric: ghost_count
    expected: 3
`
	cfg.Paths.ReferenceFile = writeFile(t, t.TempDir(), "reference.yaml", reference)

	report, path, err := Verify(context.Background(), quietLogger(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, filepath.Join(cfg.Paths.OutputDir, exporter.VerificationFile), path)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestVerify_NoReferenceFile(t *testing.T) {
	cfg := testConfig(t)
	_, _, err := Verify(context.Background(), quietLogger(), cfg)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeReference))
}
