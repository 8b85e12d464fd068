// Package coverage turns a schema into test requirements.
package coverage

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"schemata/internal/objective"
	"schemata/internal/predicate"
	"schemata/internal/schema"
	"schemata/internal/util"
)

// Requirement is one condition the generator tries to meet with rows of Table.
type Requirement struct {
	Table       string
	Predicate   predicate.Predicate
	Goal        objective.Goal
	NullPolicy  objective.NullPolicy
	Description string
}

func (r Requirement) String() string {
	return r.Description
}

// Criterion derives requirements from a schema.
type Criterion func(s *schema.Schema) []Requirement

var criteria = []struct {
	name string
	fn   Criterion
}{
	{"constraint", constraintCoverage},
	{"nullcolumn", nullColumnCoverage},
	{"uniquecolumn", uniqueColumnCoverage},
	{"constraint+null+unique", combined},
}

// Names lists the registered criteria.
func Names() []string {
	out := make([]string, len(criteria))
	for i, c := range criteria {
		out[i] = c.name
	}
	return out
}

// Lookup resolves a criterion by name.
func Lookup(name string) (Criterion, error) {
	for _, c := range criteria {
		if strings.EqualFold(c.name, strings.TrimSpace(name)) {
			return c.fn, nil
		}
	}
	return nil, errors.Errorf("unknown coverage criterion %q (known: %s)", name, strings.Join(Names(), ", "))
}

// Requirements applies the named criterion to s, then drops duplicate and
// infeasible requirements.
func Requirements(s *schema.Schema, name string) ([]Requirement, error) {
	fn, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	all := fn(s)
	reqs := Reduce(all)
	feasible, infeasible := Filter(reqs)
	for _, r := range infeasible {
		util.Detailf("infeasible requirement dropped: %s", r.Description)
	}
	util.Detailf("criterion %s: %d requirements (%d duplicate, %d infeasible dropped)",
		name, len(feasible), len(all)-len(reqs), len(infeasible))
	return feasible, nil
}

// Acceptance is the predicate a row of table must meet to be accepted by
// every constraint declared on it.
func Acceptance(s *schema.Schema, table string) predicate.Predicate {
	parts := constraintParts(s, table)
	preds := make([]predicate.Predicate, len(parts))
	for i, p := range parts {
		preds[i] = p.pred
	}
	return predicate.And{Preds: preds}
}

type part struct {
	label string
	pred  predicate.Predicate
}

func constraintParts(s *schema.Schema, table string) []part {
	var out []part
	if pk := s.PrimaryKeyOf(table); pk != nil {
		for _, col := range pk.Columns {
			out = append(out, part{
				label: "PRIMARY KEY column " + col + " NOT NULL",
				pred:  predicate.Null{Table: table, Column: col, Not: true},
			})
		}
		out = append(out, part{label: "PRIMARY KEY (" + strings.Join(pk.Columns, ", ") + ")", pred: distinct(table, pk.Columns)})
	}
	for _, nn := range s.NotNullsOf(table) {
		out = append(out, part{
			label: "NOT NULL " + nn.Column,
			pred:  predicate.Null{Table: table, Column: nn.Column, Not: true},
		})
	}
	for _, u := range s.UniquesOf(table) {
		out = append(out, part{label: "UNIQUE (" + strings.Join(u.Columns, ", ") + ")", pred: distinct(table, u.Columns)})
	}
	for _, fk := range s.ForeignKeysOf(table) {
		preds := []predicate.Predicate{
			predicate.Match{Table: table, Columns: fk.Columns, RefTable: fk.RefTable, RefColumns: fk.RefColumns},
		}
		for _, col := range fk.Columns {
			preds = append(preds, predicate.Null{Table: table, Column: col})
		}
		out = append(out, part{
			label: fmt.Sprintf("FOREIGN KEY (%s) -> %s", strings.Join(fk.Columns, ", "), fk.RefTable),
			pred:  predicate.Or{Preds: preds},
		})
	}
	for _, ck := range s.ChecksOf(table) {
		out = append(out, part{
			label: "CHECK (" + predicate.Render(ck.Expr) + ")",
			pred:  predicate.Expression{Table: table, Expr: ck.Expr},
		})
	}
	return out
}

// distinct asks for no earlier row with the same key. Rows with a null key
// column never collide; NOT NULL is a separate part.
func distinct(table string, cols []string) predicate.Predicate {
	preds := []predicate.Predicate{
		predicate.Match{Table: table, Columns: cols, RefTable: table, RefColumns: cols, Not: true},
	}
	for _, col := range cols {
		preds = append(preds, predicate.Null{Table: table, Column: col})
	}
	return predicate.Or{Preds: preds}
}

func accept(table string, preds []predicate.Predicate, extra predicate.Predicate, desc string) Requirement {
	all := append(append([]predicate.Predicate(nil), preds...), extra)
	return Requirement{
		Table:       table,
		Predicate:   predicate.And{Preds: all},
		Goal:        objective.Satisfy,
		NullPolicy:  objective.NullFails,
		Description: desc,
	}
}

// constraintCoverage asks for one accepted row per table and, per
// constraint, a row violating exactly that constraint.
func constraintCoverage(s *schema.Schema) []Requirement {
	var out []Requirement
	for _, t := range s.DependencyOrder() {
		parts := constraintParts(s, t.Name)
		preds := make([]predicate.Predicate, len(parts))
		for i, p := range parts {
			preds[i] = p.pred
		}
		out = append(out, Requirement{
			Table:       t.Name,
			Predicate:   predicate.And{Preds: preds},
			Goal:        objective.Satisfy,
			NullPolicy:  objective.NullFails,
			Description: t.Name + ": all constraints satisfied",
		})
		for i, p := range parts {
			others := make([]predicate.Predicate, 0, len(preds)-1)
			others = append(others, preds[:i]...)
			others = append(others, preds[i+1:]...)
			out = append(out, accept(t.Name, others, predicate.Not(p.pred), t.Name+": "+p.label+" violated"))
		}
	}
	return out
}

func nullColumnCoverage(s *schema.Schema) []Requirement {
	var out []Requirement
	for _, t := range s.DependencyOrder() {
		acc := Acceptance(s, t.Name).(predicate.And).Preds
		for _, col := range t.Columns {
			out = append(out,
				accept(t.Name, acc, predicate.Null{Table: t.Name, Column: col.Name}, t.Name+": "+col.Name+" IS NULL"),
				accept(t.Name, acc, predicate.Null{Table: t.Name, Column: col.Name, Not: true}, t.Name+": "+col.Name+" IS NOT NULL"))
		}
	}
	return out
}

func uniqueColumnCoverage(s *schema.Schema) []Requirement {
	var out []Requirement
	for _, t := range s.DependencyOrder() {
		acc := Acceptance(s, t.Name).(predicate.And).Preds
		for _, col := range t.Columns {
			cols := []string{col.Name}
			out = append(out,
				accept(t.Name, acc, predicate.Match{Table: t.Name, Columns: cols, RefTable: t.Name, RefColumns: cols},
					t.Name+": "+col.Name+" duplicated"),
				accept(t.Name, acc, predicate.Match{Table: t.Name, Columns: cols, RefTable: t.Name, RefColumns: cols, Not: true},
					t.Name+": "+col.Name+" unique"))
		}
	}
	return out
}

// combined concatenates the other criteria without repeating a requirement.
func combined(s *schema.Schema) []Requirement {
	var out []Requirement
	for _, fn := range []Criterion{constraintCoverage, nullColumnCoverage, uniqueColumnCoverage} {
		out = append(out, fn(s)...)
	}
	return Reduce(out)
}
