package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"schemata/internal/analysis"
	"schemata/internal/config"
	"schemata/internal/db"
	"schemata/internal/report"
	"schemata/internal/validator"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DBKind:    "sqlite",
		Seed:      7,
		Schema:    "inventory",
		Criterion: "constraint",
		Search: config.SearchConfig{
			MaxEvaluations: 5000,
			MaxRestarts:    10,
			DefaultRange:   1000,
			Workers:        2,
			Reuse:          true,
		},
		Analysis: config.AnalysisConfig{
			Technique:        config.TechniqueSchemata,
			Workers:          1,
			RemoveEquivalent: true,
			RemoveRedundant:  true,
		},
		Report: config.ReportConfig{OutputDir: t.TempDir(), Archive: true},
	}
}

func TestRunWritesArtifacts(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "run.sqlite")
	d, err := db.Open("sqlite", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	out, err := New(cfg, d).Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, out.Mutants)
	require.Equal(t, len(out.Mutants), out.Result.Total())

	for _, name := range []string{"schema.sql", "inserts.sql", "mutants.sql", report.SummaryFile, report.RunArchiveName} {
		_, err := os.Stat(filepath.Join(out.Run.Dir, name))
		require.NoError(t, err, name)
	}
	summary, err := report.ReadSummary(filepath.Join(out.Run.Dir, report.SummaryFile))
	require.NoError(t, err)
	require.Equal(t, out.Run.ID, summary.RunID)
	require.Equal(t, "inventory", summary.Schema)
	require.Equal(t, report.RunArchiveName, summary.ArchiveName)
	require.Equal(t, len(out.Mutants), summary.Mutants)
	total := 0
	for _, n := range summary.Counts {
		total += n
	}
	require.Equal(t, summary.Mutants, total)
	require.Len(t, summary.Verdicts, summary.Mutants)
	require.Len(t, summary.Cases, len(out.Suite.Cases))
	require.Equal(t, out.Suite.Coverage(), summary.Coverage)
	criteria, ok := summary.Details["criteria_coverage"].(map[string]any)
	require.True(t, ok, "criteria_coverage missing")
	require.Contains(t, criteria, "constraint")
	require.Contains(t, criteria, "nullcolumn")
}

func TestGenerateWithoutDatabase(t *testing.T) {
	r := New(testConfig(t), nil)
	s, err := r.Schema()
	require.NoError(t, err)
	suite, err := r.Generate(context.Background(), s)
	require.NoError(t, err)
	require.NotEmpty(t, suite.Cases)

	mutants, err := r.Mutants(s)
	require.NoError(t, err)
	_, err = r.Analyse(context.Background(), s, mutants, suite)
	require.ErrorIs(t, err, analysis.ErrNoConnection)
}

func TestUnknownSchemaAndOperator(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schema = "nope"
	_, err := New(cfg, nil).Schema()
	require.Error(t, err)

	cfg = testConfig(t)
	cfg.Operators = []string{"XYZ"}
	r := New(cfg, nil)
	s, err := r.Schema()
	require.NoError(t, err)
	_, err = r.Mutants(s)
	require.Error(t, err)
}

func TestMutantsSQLUsesPrefixedTables(t *testing.T) {
	r := New(testConfig(t), nil)
	s, err := r.Schema()
	require.NoError(t, err)
	mutants, err := r.Mutants(s)
	require.NoError(t, err)
	sql, err := mutantsSQL(mutants[:1])
	require.NoError(t, err)
	require.Contains(t, sql, "-- ")
	require.Contains(t, sql, "CREATE TABLE mutant_1_Inventory (")
}

func TestValidateStatementsRejectsBadSQL(t *testing.T) {
	v := validator.New()
	require.NoError(t, validateStatements(v, []string{"CREATE TABLE t (a INT)"}))
	err := validateStatements(v, []string{"CREATE TABLE t (a INT)", "CREATE TABLE select (a INT)"})
	require.ErrorContains(t, err, "CREATE TABLE select")
}
