// Package testgen searches test data for coverage requirements and assembles
// it into an executable test suite.
package testgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"schemata/internal/coverage"
	"schemata/internal/data"
	"schemata/internal/objective"
	"schemata/internal/schema"
	"schemata/internal/search"
	"schemata/internal/sqlwriter"
	"schemata/internal/util"
	"schemata/internal/validator"
)

// Info records how a case's search went.
type Info struct {
	Value       objective.Value
	Evaluations int
	Restarts    int
	Err         error
}

// TestCase is the outcome of one requirement. State rows must be inserted
// before Data.
type TestCase struct {
	Requirement coverage.Requirement
	Data        *data.Data
	State       *data.Data
	Success     bool
	Info        Info
	// Reused marks a case met by the rows of an earlier case. It adds no
	// inserts of its own.
	Reused bool
}

func (c *TestCase) String() string {
	status := "ok"
	switch {
	case c.Reused:
		status = "reused"
	case !c.Success:
		status = "failed"
	}
	return fmt.Sprintf("%s [%s, %d evaluations]: %s", c.Requirement.Description, status, c.Info.Evaluations, c.Data)
}

// Insert is one statement of the suite, tagged with the case it belongs to.
type Insert struct {
	Case  int
	Table string
	SQL   string
	State bool
}

// TestSuite holds every case, including failed ones, and the ordered inserts
// of the successful ones.
type TestSuite struct {
	Schema  *schema.Schema
	Cases   []*TestCase
	Inserts []Insert
}

// Coverage is the fraction of attempted requirements that were met.
func (s *TestSuite) Coverage() float64 {
	if len(s.Cases) == 0 {
		return 0
	}
	covered := 0
	for _, c := range s.Cases {
		if c.Success {
			covered++
		}
	}
	return float64(covered) / float64(len(s.Cases))
}

// CoverageOf is the fraction of reqs met by the rows of some case that
// contributes inserts, so a suite can be scored against any criterion.
func (s *TestSuite) CoverageOf(reqs []coverage.Requirement) float64 {
	if len(reqs) == 0 {
		return 0
	}
	met := 0
	for _, r := range reqs {
		for _, c := range s.Cases {
			if c.Success && !c.Reused && Satisfies(c, r) {
				met++
				break
			}
		}
	}
	return float64(met) / float64(len(reqs))
}

// Satisfies reports whether the rows of tc, inserted after its state, already
// meet req. A case without rows of req's table meets nothing.
func Satisfies(tc *TestCase, req coverage.Requirement) bool {
	if tc == nil || tc.Data == nil || len(tc.Data.Rows(req.Table)) == 0 {
		return false
	}
	state := tc.State
	if state == nil {
		state = data.New()
	}
	v, err := objective.Evaluate(req.Predicate, tc.Data, state, req.Goal, req.NullPolicy)
	return err == nil && v.IsOptimal()
}

// CaseInserts groups the inserts by case, in case order. Cases without
// inserts are omitted.
func (s *TestSuite) CaseInserts() [][]Insert {
	var out [][]Insert
	last := -1
	for _, ins := range s.Inserts {
		if ins.Case != last {
			out = append(out, nil)
			last = ins.Case
		}
		out[len(out)-1] = append(out[len(out)-1], ins)
	}
	return out
}

// SQL renders the inserts as a script, one case per block.
func (s *TestSuite) SQL() string {
	var b strings.Builder
	for _, group := range s.CaseInserts() {
		fmt.Fprintf(&b, "-- %s\n", s.Cases[group[0].Case].Requirement.Description)
		for _, ins := range group {
			b.WriteString(ins.SQL)
			b.WriteString(";\n")
		}
	}
	return b.String()
}

// Config controls generation.
type Config struct {
	Search search.Config
	// Workers bounds concurrent searches; zero or less means one.
	Workers int
	// Reuse skips the search for requirements the accepted rows already
	// meet, and folds requirements met by an earlier case into that case.
	Reuse bool
}

// Generator produces suites for one schema.
type Generator struct {
	schema  *schema.Schema
	cfg     Config
	domains search.DomainFunc
}

// New creates a generator.
func New(s *schema.Schema, cfg Config) *Generator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Generator{schema: s, cfg: cfg, domains: search.SchemaDomains(s, cfg.Search)}
}

// Generate finds an accepted row per table, then searches every requirement
// on top of those rows. Each requirement is searched with its own seed, so the
// suite does not depend on worker scheduling.
func (g *Generator) Generate(ctx context.Context, reqs []coverage.Requirement) (*TestSuite, error) {
	state, err := g.acceptedState(ctx)
	if err != nil {
		return nil, err
	}
	cases := make([]*TestCase, len(reqs))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)
	for i, req := range reqs {
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			if g.cfg.Reuse {
				if tc, ok := g.fromState(req, state); ok {
					cases[i] = tc
					return nil
				}
			}
			cases[i] = g.runCase(req, g.cfg.Search.Seed+int64(i), state)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, errors.Wrap(err, "generate test cases")
	}
	if g.cfg.Reuse {
		reuseCases(cases)
	}
	suite := &TestSuite{Schema: g.schema, Cases: cases}
	v := validator.New()
	reused := 0
	for i, c := range cases {
		switch {
		case c.Reused:
			reused++
			continue
		case !c.Success:
			util.Warnf("requirement not covered: %s (%v)", c.Requirement.Description, c.Info.Value)
			continue
		}
		if suite.Inserts, err = appendInserts(v, suite.Inserts, i, c.State.AllRows(), true); err != nil {
			return nil, err
		}
		if suite.Inserts, err = appendInserts(v, suite.Inserts, i, c.Data.AllRows(), false); err != nil {
			return nil, err
		}
	}
	util.Infof("generated %d test cases (%d reused), coverage %.1f%%", len(cases), reused, suite.Coverage()*100)
	return suite, nil
}

// reuseCases replaces every case whose requirement an earlier case with
// inserts already meets by a reused case sharing that case's rows.
func reuseCases(cases []*TestCase) {
	for i, c := range cases {
		for _, prev := range cases[:i] {
			if !prev.Success || prev.Reused || !Satisfies(prev, c.Requirement) {
				continue
			}
			cases[i] = &TestCase{
				Requirement: c.Requirement,
				Data:        prev.Data,
				State:       prev.State,
				Success:     true,
				Info:        c.Info,
				Reused:      true,
			}
			util.Detailf("%s met by %s", c.Requirement.Description, prev.Requirement.Description)
			break
		}
	}
}

// appendInserts renders rows and checks that each statement parses and
// targets the row's own table.
func appendInserts(v *validator.Validator, out []Insert, caseIdx int, rows []*data.Row, state bool) ([]Insert, error) {
	for _, row := range rows {
		stmt := sqlwriter.InsertStatement(row)
		target, err := v.TargetTable(stmt)
		if err != nil {
			return nil, errors.Wrapf(err, "render case %d", caseIdx)
		}
		if !strings.EqualFold(target, row.Table()) {
			return nil, errors.Errorf("render case %d: %q targets %s, not %s", caseIdx, stmt, target, row.Table())
		}
		out = append(out, Insert{Case: caseIdx, Table: row.Table(), SQL: stmt, State: state})
	}
	return out, nil
}

// acceptedState searches one accepted row per table in dependency order.
// Tables whose search fails contribute no row.
func (g *Generator) acceptedState(ctx context.Context) (*data.Data, error) {
	state := data.New()
	for i, t := range g.schema.DependencyOrder() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cfg := g.cfg.Search
		cfg.Seed = cfg.Seed - int64(i) - 1
		fn := objective.Bind(coverage.Acceptance(g.schema, t.Name), state, objective.Satisfy, objective.NullFails)
		res, err := search.New(cfg, g.domains).Run(g.template(t), fn)
		if err != nil {
			util.Warnf("state row for %s: %v", t.Name, err)
			continue
		}
		if !res.Success {
			util.Warnf("no accepted row for %s after %d evaluations (%v)", t.Name, res.Evaluations, res.Value)
			continue
		}
		util.Detailf("state row for %s: %s", t.Name, res.Best)
		state = state.Merge(res.Best)
	}
	return state, nil
}

// fromState builds a case from the accepted row of req's table when that row
// already meets req. Only the rows of referenced tables serve as its state.
func (g *Generator) fromState(req coverage.Requirement, state *data.Data) (*TestCase, bool) {
	rows := state.Rows(req.Table)
	if len(rows) == 0 {
		return nil, false
	}
	d := data.New()
	for _, row := range rows {
		d.AddRow(row.Clone())
	}
	tc := &TestCase{Requirement: req, Data: d, State: g.stateFor(req.Table, state, false)}
	v, err := objective.Evaluate(req.Predicate, tc.Data, tc.State, req.Goal, req.NullPolicy)
	if err != nil || !v.IsOptimal() {
		return nil, false
	}
	tc.Success = true
	tc.Info = Info{Value: v, Evaluations: 1}
	util.Detailf("%s", tc)
	return tc, true
}

func (g *Generator) runCase(req coverage.Requirement, seed int64, state *data.Data) *TestCase {
	tc := &TestCase{Requirement: req, State: g.stateFor(req.Table, state, true)}
	t, ok := g.schema.TableByName(req.Table)
	if !ok {
		tc.Data = data.New()
		tc.Info.Err = errors.Errorf("unknown table %s", req.Table)
		return tc
	}
	cfg := g.cfg.Search
	cfg.Seed = seed
	fn := objective.Bind(req.Predicate, tc.State, req.Goal, req.NullPolicy)
	res, err := search.New(cfg, g.domains).Run(g.template(t), fn)
	tc.Data = res.Best
	tc.Success = err == nil && res.Success
	tc.Info = Info{Value: res.Value, Evaluations: res.Evaluations, Restarts: res.Restarts, Err: err}
	if err != nil {
		util.Warnf("requirement %q: %v", req.Description, err)
	}
	util.Detailf("%s", tc)
	return tc
}

// stateFor keeps the accepted rows of the tables table references, and of
// table itself when self is set.
func (g *Generator) stateFor(table string, state *data.Data, self bool) *data.Data {
	keep := map[string]struct{}{}
	if self {
		keep[strings.ToLower(table)] = struct{}{}
	}
	for _, a := range g.schema.Ancestors(table) {
		keep[strings.ToLower(a.Name)] = struct{}{}
	}
	out := data.New()
	for _, row := range state.AllRows() {
		if _, ok := keep[strings.ToLower(row.Table())]; ok {
			out.AddRow(row.Clone())
		}
	}
	return out
}

func (g *Generator) template(t *schema.Table) *data.Data {
	cells := make([]data.Value, len(t.Columns))
	for i, c := range t.Columns {
		cells[i] = data.Null(c.Type.Kind())
	}
	d := data.New()
	d.AddRow(data.NewRow(t.Name, t.ColumnNames(), cells))
	return d
}
