package runner

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"schemata/internal/analysis"
	"schemata/internal/coverage"
	"schemata/internal/mutation"
	"schemata/internal/report"
	"schemata/internal/schema"
	"schemata/internal/sqlwriter"
	"schemata/internal/testgen"
	"schemata/internal/validator"
)

func (r *Runner) summarize(s *schema.Schema, suite *testgen.TestSuite, mutants []mutation.Mutant[*schema.Schema], res *analysis.Result, elapsed time.Duration) report.Summary {
	summary := report.Summary{
		Schema:    s.Name,
		DBKind:    r.cfg.DBKind,
		Criterion: r.cfg.Criterion,
		Technique: res.Technique(),
		Seed:      r.cfg.Seed,
		Coverage:  suite.Coverage(),
		Cases:     caseSummaries(suite),
		Mutants:   len(mutants),
		Counts:    map[string]int{},
		Score:     res.Score(),
		Verdicts:  verdictSummaries(res),
		ElapsedMs: elapsed.Milliseconds(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RunInfo:   r.cfg.RunInfo,
		Details: map[string]any{
			"operators":         operatorCounts(mutants),
			"workers":           r.cfg.Analysis.Workers,
			"mutant_timeout_ms": r.cfg.Analysis.MutantTimeoutMs,
			"remove_equivalent": r.cfg.Analysis.RemoveEquivalent,
			"remove_redundant":  r.cfg.Analysis.RemoveRedundant,
			"analysis_ms":       res.Elapsed().Milliseconds(),
			"reuse":             r.cfg.Search.Reuse,
			"criteria_coverage": criteriaCoverage(s, suite),
		},
	}
	for _, status := range analysis.Statuses() {
		summary.Counts[status.String()] = res.Count(status)
	}
	return summary
}

func caseSummaries(suite *testgen.TestSuite) []report.CaseSummary {
	out := make([]report.CaseSummary, 0, len(suite.Cases))
	for _, c := range suite.Cases {
		cs := report.CaseSummary{
			Requirement: c.Requirement.Description,
			Table:       c.Requirement.Table,
			Success:     c.Success,
			Objective:   c.Info.Value.String(),
			Evaluations: c.Info.Evaluations,
			Restarts:    c.Info.Restarts,
			Reused:      c.Reused,
		}
		if c.Data != nil {
			cs.Data = c.Data.String()
		}
		if c.Info.Err != nil {
			cs.Error = c.Info.Err.Error()
		}
		out = append(out, cs)
	}
	return out
}

func verdictSummaries(res *analysis.Result) []report.MutantSummary {
	verdicts := res.Verdicts()
	out := make([]report.MutantSummary, 0, len(verdicts))
	for _, v := range verdicts {
		ms := report.MutantSummary{
			ID:          v.Mutant.ID,
			Operator:    v.Mutant.Operator,
			Description: v.Mutant.Description,
			Status:      v.Status.String(),
			ElapsedMs:   v.Elapsed.Milliseconds(),
		}
		for _, sr := range v.Results {
			ms.Results = append(ms.Results, sr.String())
		}
		if v.Err != nil {
			ms.Error = v.Err.Error()
		}
		out = append(out, ms)
	}
	return out
}

// criteriaCoverage scores the suite against every registered criterion.
func criteriaCoverage(s *schema.Schema, suite *testgen.TestSuite) map[string]any {
	out := map[string]any{}
	for _, name := range coverage.Names() {
		reqs, err := coverage.Requirements(s, name)
		if err != nil {
			continue
		}
		out[name] = suite.CoverageOf(reqs)
	}
	return out
}

func operatorCounts(mutants []mutation.Mutant[*schema.Schema]) map[string]any {
	out := map[string]any{}
	for _, m := range mutants {
		n, _ := out[m.Operator].(int)
		out[m.Operator] = n + 1
	}
	return out
}

// mutantsSQL renders every mutant's CREATE statements under a header line.
func mutantsSQL(mutants []mutation.Mutant[*schema.Schema]) (string, error) {
	var b strings.Builder
	v := validator.New()
	for _, m := range mutants {
		stmts := sqlwriter.CreateTableStatements(m.Artefact.WithTablePrefix(m.Prefix()))
		if err := validateStatements(v, stmts); err != nil {
			return "", errors.Wrapf(err, "mutant %d", m.ID)
		}
		fmt.Fprintf(&b, "-- %s\n", m)
		for _, stmt := range stmts {
			b.WriteString(stmt)
			b.WriteString(";\n")
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// validateStatements parses every statement before it is written out.
func validateStatements(v *validator.Validator, stmts []string) error {
	for _, stmt := range stmts {
		if err := v.Validate(stmt); err != nil {
			return errors.Wrapf(err, "invalid statement %q", stmt)
		}
	}
	return nil
}
