// Package runner wires one end-to-end run: schema lookup, test data
// generation, mutant generation, mutation analysis and reporting.
package runner

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"schemata/internal/analysis"
	"schemata/internal/casestudy"
	"schemata/internal/config"
	"schemata/internal/coverage"
	"schemata/internal/db"
	"schemata/internal/mutation"
	"schemata/internal/report"
	"schemata/internal/schema"
	"schemata/internal/search"
	"schemata/internal/sqlwriter"
	"schemata/internal/testgen"
	"schemata/internal/uploader"
	"schemata/internal/util"
	"schemata/internal/validator"
)

// Runner orchestrates generation, analysis, and reporting.
type Runner struct {
	cfg      config.Config
	exec     db.Interactor
	reporter *report.Reporter
	uploader uploader.Uploader
}

// New constructs a Runner for the given config. exec may be nil when only
// generation is needed.
func New(cfg config.Config, exec db.Interactor) *Runner {
	up, err := uploader.New(cfg.Storage)
	if err != nil {
		util.Warnf("storage upload disabled: %v", err)
		up = uploader.NoopUploader{}
	}
	return &Runner{
		cfg:      cfg,
		exec:     exec,
		reporter: report.New(cfg.Report.OutputDir),
		uploader: up,
	}
}

// Outcome is everything one run produced.
type Outcome struct {
	Schema  *schema.Schema
	Suite   *testgen.TestSuite
	Mutants []mutation.Mutant[*schema.Schema]
	Result  *analysis.Result
	Summary report.Summary
	Run     report.Run
}

// Schema builds the configured case-study schema.
func (r *Runner) Schema() (*schema.Schema, error) {
	return casestudy.Lookup(r.cfg.Schema)
}

// Generate searches test data for every requirement of the configured
// criterion.
func (r *Runner) Generate(ctx context.Context, s *schema.Schema) (*testgen.TestSuite, error) {
	reqs, err := coverage.Requirements(s, r.cfg.Criterion)
	if err != nil {
		return nil, err
	}
	gen := testgen.New(s, testgen.Config{
		Search: search.Config{
			Seed:               r.cfg.Seed,
			MaxEvaluations:     r.cfg.Search.MaxEvaluations,
			MaxRestarts:        r.cfg.Search.MaxRestarts,
			NullProbability:    r.cfg.Search.NullProbability,
			LibraryProbability: r.cfg.Search.LibraryProbability,
			DefaultRange:       r.cfg.Search.DefaultRange,
			MaxStringLength:    r.cfg.Search.MaxStringLength,
		},
		Workers: r.cfg.Search.Workers,
		Reuse:   r.cfg.Search.Reuse,
	})
	return gen.Generate(ctx, reqs)
}

// Mutants applies the configured operators, or all of them when none are set.
func (r *Runner) Mutants(s *schema.Schema) ([]mutation.Mutant[*schema.Schema], error) {
	return mutation.Generate(s, r.cfg.Operators...)
}

// Analyse runs mutation analysis against the configured database.
func (r *Runner) Analyse(ctx context.Context, s *schema.Schema, mutants []mutation.Mutant[*schema.Schema], suite *testgen.TestSuite) (*analysis.Result, error) {
	if r.exec == nil {
		return nil, analysis.ErrNoConnection
	}
	engine := analysis.New(analysis.Config{
		Technique:        r.cfg.Analysis.Technique,
		Workers:          r.cfg.Analysis.Workers,
		MutantTimeout:    time.Duration(r.cfg.Analysis.MutantTimeoutMs) * time.Millisecond,
		RemoveEquivalent: r.cfg.Analysis.RemoveEquivalent,
		RemoveRedundant:  r.cfg.Analysis.RemoveRedundant,
		CompareNames:     r.cfg.Analysis.CompareNames,
	}, r.exec)
	return engine.Analyse(ctx, s, mutants, suite)
}

// Run performs a full run and persists its artifacts.
func (r *Runner) Run(ctx context.Context) (*Outcome, error) {
	start := time.Now()
	util.Infof("run start schema=%s criterion=%s technique=%s db=%s seed=%d ci=%s",
		r.cfg.Schema, r.cfg.Criterion, r.cfg.Analysis.Technique, r.cfg.DBKind, r.cfg.Seed, r.cfg.RunInfo.Summary())
	s, err := r.Schema()
	if err != nil {
		return nil, err
	}
	suite, err := r.Generate(ctx, s)
	if err != nil {
		return nil, errors.Wrap(err, "generate test suite")
	}
	mutants, err := r.Mutants(s)
	if err != nil {
		return nil, err
	}
	res, err := r.Analyse(ctx, s, mutants, suite)
	if err != nil {
		return nil, errors.Wrap(err, "mutation analysis")
	}
	out := &Outcome{Schema: s, Suite: suite, Mutants: mutants, Result: res}
	out.Summary = r.summarize(s, suite, mutants, res, time.Since(start))
	if err := r.persist(ctx, out); err != nil {
		return out, err
	}
	return out, nil
}

// persist writes the run directory, archives it and uploads it.
func (r *Runner) persist(ctx context.Context, out *Outcome) error {
	run, err := r.reporter.NewRun()
	if err != nil {
		return errors.Wrap(err, "create run dir")
	}
	out.Run = run
	out.Summary.RunID = run.ID
	out.Summary.RunDir = run.Dir
	schemaSQL := sqlwriter.CreateTableStatements(out.Schema)
	if err := validateStatements(validator.New(), schemaSQL); err != nil {
		return errors.Wrap(err, "schema.sql")
	}
	if err := r.reporter.WriteSQL(run, "schema.sql", schemaSQL); err != nil {
		return err
	}
	if err := r.reporter.WriteText(run, "inserts.sql", out.Suite.SQL()); err != nil {
		return err
	}
	mutantSQL, err := mutantsSQL(out.Mutants)
	if err != nil {
		return errors.Wrap(err, "mutants.sql")
	}
	if err := r.reporter.WriteText(run, "mutants.sql", mutantSQL); err != nil {
		return err
	}
	if r.cfg.Report.Archive {
		// The archive must hold the summary too, so it is written twice.
		if err := r.reporter.WriteSummary(run, out.Summary); err != nil {
			return err
		}
		name, codec, err := r.reporter.WriteArchive(run)
		if err != nil {
			return errors.Wrap(err, "archive run")
		}
		out.Summary.ArchiveName = name
		out.Summary.ArchiveCodec = codec
	}
	if r.uploader.Enabled() {
		loc, err := r.uploader.UploadDir(ctx, run.Dir)
		if err != nil {
			util.Warnf("upload run %s failed: %v", run.ID, err)
		} else {
			out.Summary.UploadLocation = loc
		}
	}
	if err := r.reporter.WriteSummary(run, out.Summary); err != nil {
		return err
	}
	util.Highlightf("run %s: coverage %.1f%% mutation score %.1f%% (%d mutants)",
		run.ID, out.Summary.Coverage*100, out.Summary.Score*100, out.Summary.Mutants)
	util.Infof("run %s written to %s", run.ID, run.Dir)
	return nil
}
