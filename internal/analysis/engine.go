// Package analysis runs a test suite against schema mutants hosted side by
// side in one database and classifies each mutant as killed or alive.
package analysis

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"schemata/internal/db"
	"schemata/internal/equivalence"
	"schemata/internal/mutation"
	"schemata/internal/schema"
	"schemata/internal/sqlwriter"
	"schemata/internal/testgen"
	"schemata/internal/util"
	"schemata/internal/validator"
)

// Mutant hosting techniques.
const (
	// TechniqueSchemata creates every mutant before running the suite and
	// drops them all at the end.
	TechniqueSchemata = "schemata"
	// TechniqueJustInTime creates each mutant right before its run and drops
	// it right after.
	TechniqueJustInTime = "justintime"
)

const defaultWorkers = 4

var (
	// ErrNoMutants aborts an analysis that has nothing to analyse.
	ErrNoMutants = errors.New("no mutants supplied")
	// ErrNoConnection aborts an analysis without a template connection.
	ErrNoConnection = errors.New("no template connection available")
)

// Config controls an analysis.
type Config struct {
	Technique string
	// Workers bounds concurrent mutant runs; zero means four.
	Workers int
	// MutantTimeout bounds one mutant's run; zero disables it.
	MutantTimeout    time.Duration
	RemoveEquivalent bool
	RemoveRedundant  bool
	CompareNames     bool
}

// Engine executes mutation analysis over a template connection. Every task
// duplicates the template and owns the duplicate until it finishes.
type Engine struct {
	cfg      Config
	template db.Interactor
	checker  equivalence.Checker[*schema.Schema]
}

// New creates an engine.
func New(cfg Config, template db.Interactor) *Engine {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Technique == "" {
		cfg.Technique = TechniqueSchemata
	}
	return &Engine{
		cfg:      cfg,
		template: template,
		checker:  equivalence.NewSchemaChecker(equivalence.Options{CompareNames: cfg.CompareNames}),
	}
}

// Analyse runs suite against original and every mutant. A failure to set up
// or run the original schema is fatal; mutant failures become verdicts.
func (e *Engine) Analyse(ctx context.Context, original *schema.Schema, mutants []mutation.Mutant[*schema.Schema], suite *testgen.TestSuite) (*Result, error) {
	if len(mutants) == 0 {
		return nil, ErrNoMutants
	}
	if e.template == nil {
		return nil, ErrNoConnection
	}
	technique := strings.ToLower(e.cfg.Technique)
	if technique != TechniqueSchemata && technique != TechniqueJustInTime {
		return nil, errors.Errorf("unknown analysis technique %q", e.cfg.Technique)
	}
	start := time.Now()

	reduced := equivalence.Reduce(e.checker, original, mutants, equivalence.ReduceOptions{
		RemoveEquivalent: e.cfg.RemoveEquivalent,
		RemoveRedundant:  e.cfg.RemoveRedundant,
	})
	var verdicts []Verdict
	for _, m := range reduced.Equivalent {
		verdicts = append(verdicts, Verdict{Mutant: m, Status: Equivalent})
	}
	for _, m := range reduced.Redundant {
		verdicts = append(verdicts, Verdict{Mutant: m, Status: Redundant})
	}
	util.Infof("analysing %d of %d mutants (%d equivalent, %d redundant) technique=%s workers=%d",
		len(reduced.Retained), len(mutants), len(reduced.Equivalent), len(reduced.Redundant), technique, e.cfg.Workers)

	baseline, err := e.runOriginal(ctx, original, suite)
	if err != nil {
		return nil, err
	}

	hosted := make([]*schema.Schema, len(reduced.Retained))
	for i, m := range reduced.Retained {
		hosted[i] = m.Artefact.WithTablePrefix(m.Prefix())
	}
	stillBorn := make([]error, len(reduced.Retained))
	if technique == TechniqueSchemata {
		defer e.dropAll(hosted)
		if err := e.createAll(ctx, hosted, stillBorn); err != nil {
			return nil, err
		}
	}

	run := make([]Verdict, len(reduced.Retained))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(e.cfg.Workers)
	for i, m := range reduced.Retained {
		if stillBorn[i] != nil {
			run[i] = Verdict{Mutant: m, Status: StillBorn, Err: stillBorn[i]}
			continue
		}
		eg.Go(func() error {
			v, err := e.runMutant(ectx, m, hosted[i], suite, baseline, technique == TechniqueJustInTime)
			if err != nil {
				return errors.Wrapf(err, "mutant %d", m.ID)
			}
			run[i] = v
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	verdicts = append(verdicts, run...)
	sortByID(verdicts)
	for _, v := range verdicts {
		mutantVerdicts.WithLabelValues(technique, v.Status.String()).Inc()
	}
	res := newResult(technique, baseline, verdicts, time.Since(start))
	util.Infof("%s", res)
	return res, nil
}

// runOriginal creates the original tables, runs the suite and drops them.
func (e *Engine) runOriginal(ctx context.Context, original *schema.Schema, suite *testgen.TestSuite) ([]StatementResult, error) {
	conn, err := e.template.Duplicate(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "original schema")
	}
	defer util.CloseWithErr(conn, "original schema connection")
	if err := execAll(ctx, conn, sqlwriter.DropTableStatements(original)); err != nil {
		return nil, errors.Wrap(err, "drop stale original tables")
	}
	if err := execAll(ctx, conn, sqlwriter.CreateTableStatements(original)); err != nil {
		return nil, errors.Wrap(err, "create original schema")
	}
	defer func() {
		if err := execAll(context.WithoutCancel(ctx), conn, sqlwriter.DropTableStatements(original)); err != nil {
			util.Warnf("drop original schema: %v", err)
		}
	}()
	results, err := runSuite(ctx, conn, validator.New(), original, suite, "")
	if err != nil {
		return nil, errors.Wrap(err, "run suite on original schema")
	}
	return results, nil
}

// createAll creates every hosted mutant on one connection. A failing CREATE
// marks that mutant still-born and removes whatever part of it was created.
func (e *Engine) createAll(ctx context.Context, hosted []*schema.Schema, stillBorn []error) error {
	conn, err := e.template.Duplicate(ctx)
	if err != nil {
		return errors.Wrap(err, "create mutants")
	}
	defer util.CloseWithErr(conn, "mutant setup connection")
	for i, s := range hosted {
		if err := ctx.Err(); err != nil {
			return err
		}
		stillBorn[i] = createSchema(ctx, conn, s)
	}
	return nil
}

func (e *Engine) dropAll(hosted []*schema.Schema) {
	ctx := context.Background()
	conn, err := e.template.Duplicate(ctx)
	if err != nil {
		util.Warnf("drop mutants: %v", err)
		return
	}
	defer util.CloseWithErr(conn, "mutant teardown connection")
	for _, s := range hosted {
		if err := execAll(ctx, conn, sqlwriter.DropTableStatements(s)); err != nil {
			util.Warnf("drop mutant tables: %v", err)
		}
	}
}

// runMutant executes the suite against one hosted mutant on a duplicated
// connection. The returned error is reserved for infrastructure failures.
func (e *Engine) runMutant(ctx context.Context, m mutation.Mutant[*schema.Schema], hosted *schema.Schema, suite *testgen.TestSuite, baseline []StatementResult, create bool) (Verdict, error) {
	conn, err := e.template.Duplicate(ctx)
	if err != nil {
		return Verdict{}, err
	}
	defer util.CloseWithErr(conn, "mutant connection")
	start := time.Now()
	verdict := Verdict{Mutant: m}
	// The mutant timeout covers creating the mutant as well as running the suite.
	mctx, cancel := ctx, context.CancelFunc(func() {})
	if e.cfg.MutantTimeout > 0 {
		mctx, cancel = context.WithTimeout(ctx, e.cfg.MutantTimeout)
	}
	defer cancel()
	if create {
		if err := createSchema(mctx, conn, hosted); err != nil {
			verdict.Elapsed = time.Since(start)
			switch {
			case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
				verdict.Status, verdict.Err = TimedOut, err
			case ctx.Err() != nil:
				return Verdict{}, ctx.Err()
			default:
				verdict.Status, verdict.Err = StillBorn, err
			}
			util.Detailf("mutant %d (%s): %s", m.ID, m.Description, verdict.Status)
			return verdict, nil
		}
		defer func() {
			if err := execAll(context.WithoutCancel(ctx), conn, sqlwriter.DropTableStatements(hosted)); err != nil {
				util.Warnf("drop mutant %d: %v", m.ID, err)
			}
		}()
	}

	results, err := runSuite(mctx, conn, validator.New(), hosted, suite, m.Prefix())
	verdict.Elapsed = time.Since(start)
	mutantDuration.WithLabelValues(strings.ToLower(e.cfg.Technique)).Observe(verdict.Elapsed.Seconds())
	switch {
	case err == nil:
		verdict.Results = results
		verdict.Status = Classify(baseline, results)
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		verdict.Status, verdict.Err = TimedOut, err
	default:
		return Verdict{}, err
	}
	util.Detailf("mutant %d (%s): %s", m.ID, m.Description, verdict.Status)
	return verdict, nil
}

// runSuite executes the suite's inserts case by case, emptying the tables
// before each case. Statement failures are results; other errors abort.
func runSuite(ctx context.Context, conn db.Interactor, v *validator.Validator, hosted *schema.Schema, suite *testgen.TestSuite, prefix string) ([]StatementResult, error) {
	var out []StatementResult
	resets := sqlwriter.DeleteStatements(hosted)
	for _, group := range suite.CaseInserts() {
		if err := execAll(ctx, conn, resets); err != nil {
			return nil, errors.Wrap(err, "reset tables")
		}
		for _, ins := range group {
			stmt := ins.SQL
			if prefix != "" {
				var err error
				if stmt, err = v.PrefixTables(ins.SQL, prefix); err != nil {
					return nil, err
				}
			}
			n, err := conn.ExecuteUpdate(ctx, stmt)
			var execErr *db.ExecutionError
			switch {
			case err == nil:
				out = append(out, StatementResult{Count: n})
			case errors.As(err, &execErr):
				out = append(out, StatementResult{Failed: true, Code: execErr.Code})
			default:
				return nil, err
			}
			if prefix != "" {
				statementOutcomes.WithLabelValues(outcome(err)).Inc()
			}
		}
	}
	return out, nil
}

// createSchema creates the tables of s. On failure the tables already created
// are dropped again, even when ctx is done.
func createSchema(ctx context.Context, conn db.Interactor, s *schema.Schema) error {
	if err := execAll(ctx, conn, sqlwriter.DropTableStatements(s)); err != nil {
		return err
	}
	if err := execAll(ctx, conn, sqlwriter.CreateTableStatements(s)); err != nil {
		if dropErr := execAll(context.WithoutCancel(ctx), conn, sqlwriter.DropTableStatements(s)); dropErr != nil {
			util.Warnf("clean up after failed create: %v", dropErr)
		}
		return err
	}
	return nil
}

func execAll(ctx context.Context, conn db.Interactor, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := conn.ExecuteUpdate(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "failed"
	}
	return "ok"
}

func sortByID(vs []Verdict) {
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].Mutant.ID < vs[j].Mutant.ID })
}
