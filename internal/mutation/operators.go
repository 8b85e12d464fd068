package mutation

import (
	"fmt"
	"strings"

	"schemata/internal/expr"
	"schemata/internal/predicate"
	"schemata/internal/schema"
)

func checkRemoval(s *schema.Schema) []Variant {
	var out []Variant
	for i, c := range s.Checks {
		m := s.Clone()
		m.Checks = remove(m.Checks, i)
		out = append(out, Variant{Schema: m, Description: fmt.Sprintf("removed CHECK %s on %s", describeCheck(c), c.Table)})
	}
	return out
}

// checkRelationalReplacement swaps every relational operator of every CHECK
// for each other operator.
func checkRelationalReplacement(s *schema.Schema) []Variant {
	var out []Variant
	for i, c := range s.Checks {
		n := countRelational(c.Expr)
		for pos := 0; pos < n; pos++ {
			for op := expr.Equals; op <= expr.GreaterOrEquals; op++ {
				counter := 0
				replaced, changed := replaceOp(c.Expr, pos, op, &counter)
				if !changed {
					continue
				}
				m := s.Clone()
				m.Checks[i] = &schema.Check{Name: c.Name, Table: c.Table, Expr: replaced}
				out = append(out, Variant{Schema: m, Description: fmt.Sprintf("CHECK %s on %s becomes %s",
					describeCheck(c), c.Table, predicate.Render(replaced))})
			}
		}
	}
	return out
}

func notNullAddition(s *schema.Schema) []Variant {
	var out []Variant
	for _, t := range s.Tables {
		for _, col := range t.Columns {
			if s.IsNotNull(t.Name, col.Name) {
				continue
			}
			m := s.Clone()
			m.NotNulls = append(m.NotNulls, &schema.NotNull{Table: t.Name, Column: col.Name})
			out = append(out, Variant{Schema: m, Description: "added NOT NULL on " + schema.ColumnRef(t.Name, col.Name)})
		}
	}
	return out
}

func notNullRemoval(s *schema.Schema) []Variant {
	var out []Variant
	for i, nn := range s.NotNulls {
		m := s.Clone()
		m.NotNulls = remove(m.NotNulls, i)
		out = append(out, Variant{Schema: m, Description: "removed NOT NULL on " + schema.ColumnRef(nn.Table, nn.Column)})
	}
	return out
}

func uniqueAddition(s *schema.Schema) []Variant {
	var out []Variant
	for _, t := range s.Tables {
		for _, col := range t.Columns {
			if hasSingleColumnUnique(s, t.Name, col.Name) {
				continue
			}
			m := s.Clone()
			m.Uniques = append(m.Uniques, &schema.Unique{Table: t.Name, Columns: []string{col.Name}})
			out = append(out, Variant{Schema: m, Description: "added UNIQUE on " + schema.ColumnRef(t.Name, col.Name)})
		}
	}
	return out
}

func uniqueRemoval(s *schema.Schema) []Variant {
	var out []Variant
	for i, u := range s.Uniques {
		m := s.Clone()
		m.Uniques = remove(m.Uniques, i)
		out = append(out, Variant{Schema: m, Description: fmt.Sprintf("removed UNIQUE (%s) on %s", strings.Join(u.Columns, ", "), u.Table)})
	}
	return out
}

// primaryKeyColumnAddition widens an existing primary key by one column, or
// creates a single-column key on tables without one.
func primaryKeyColumnAddition(s *schema.Schema) []Variant {
	var out []Variant
	for _, t := range s.Tables {
		pk := s.PrimaryKeyOf(t.Name)
		for _, col := range t.Columns {
			if pk != nil && containsFold(pk.Columns, col.Name) {
				continue
			}
			m := s.Clone()
			if pk == nil {
				m.PrimaryKeys = append(m.PrimaryKeys, &schema.PrimaryKey{Table: t.Name, Columns: []string{col.Name}})
				out = append(out, Variant{Schema: m, Description: "added PRIMARY KEY (" + col.Name + ") on " + t.Name})
				continue
			}
			mpk := m.PrimaryKeyOf(t.Name)
			mpk.Columns = append(mpk.Columns, col.Name)
			out = append(out, Variant{Schema: m, Description: "added " + col.Name + " to PRIMARY KEY of " + t.Name})
		}
	}
	return out
}

// primaryKeyColumnRemoval drops one column from a primary key; a
// single-column key is dropped entirely.
func primaryKeyColumnRemoval(s *schema.Schema) []Variant {
	var out []Variant
	for i, pk := range s.PrimaryKeys {
		for j, col := range pk.Columns {
			m := s.Clone()
			if len(pk.Columns) == 1 {
				m.PrimaryKeys = remove(m.PrimaryKeys, i)
				out = append(out, Variant{Schema: m, Description: "removed PRIMARY KEY (" + col + ") on " + pk.Table})
				continue
			}
			m.PrimaryKeys[i].Columns = remove(m.PrimaryKeys[i].Columns, j)
			out = append(out, Variant{Schema: m, Description: "removed " + col + " from PRIMARY KEY of " + pk.Table})
		}
	}
	return out
}

func foreignKeyRemoval(s *schema.Schema) []Variant {
	var out []Variant
	for i, fk := range s.ForeignKeys {
		m := s.Clone()
		m.ForeignKeys = remove(m.ForeignKeys, i)
		out = append(out, Variant{Schema: m, Description: fmt.Sprintf("removed FOREIGN KEY %s(%s) -> %s(%s)",
			fk.Table, strings.Join(fk.Columns, ", "), fk.RefTable, strings.Join(fk.RefColumns, ", "))})
	}
	return out
}

func hasSingleColumnUnique(s *schema.Schema, table, column string) bool {
	for _, u := range s.UniquesOf(table) {
		if len(u.Columns) == 1 && strings.EqualFold(u.Columns[0], column) {
			return true
		}
	}
	if pk := s.PrimaryKeyOf(table); pk != nil && len(pk.Columns) == 1 && strings.EqualFold(pk.Columns[0], column) {
		return true
	}
	return false
}

func describeCheck(c *schema.Check) string {
	if c.Name != "" {
		return c.Name
	}
	return predicate.Render(c.Expr)
}

func countRelational(e expr.Expr) int {
	n := 0
	expr.Walk(e, func(node expr.Expr) {
		if _, ok := node.(expr.RelationalExpr); ok {
			n++
		}
	})
	return n
}

// replaceOp rebuilds e with the pos-th relational node (pre-order) using op.
// changed is false when that node already uses op.
func replaceOp(e expr.Expr, pos int, op expr.Op, counter *int) (expr.Expr, bool) {
	switch x := e.(type) {
	case expr.RelationalExpr:
		idx := *counter
		*counter++
		if idx == pos {
			if x.Op == op {
				return x, false
			}
			return expr.RelationalExpr{LHS: x.LHS, Op: op, RHS: x.RHS}, true
		}
		return x, false
	case expr.AndExpr:
		subs, changed := replaceAll(x.Subs, pos, op, counter)
		return expr.AndExpr{Subs: subs}, changed
	case expr.OrExpr:
		subs, changed := replaceAll(x.Subs, pos, op, counter)
		return expr.OrExpr{Subs: subs}, changed
	case expr.NotExpr:
		sub, changed := replaceOp(x.Sub, pos, op, counter)
		return expr.NotExpr{Sub: sub}, changed
	case expr.ParenExpr:
		sub, changed := replaceOp(x.Sub, pos, op, counter)
		return expr.ParenExpr{Sub: sub}, changed
	default:
		return e, false
	}
}

func replaceAll(subs []expr.Expr, pos int, op expr.Op, counter *int) ([]expr.Expr, bool) {
	out := make([]expr.Expr, len(subs))
	changed := false
	for i, s := range subs {
		var c bool
		out[i], c = replaceOp(s, pos, op, counter)
		changed = changed || c
	}
	return out, changed
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func remove[T any](in []T, i int) []T {
	out := make([]T, 0, len(in)-1)
	out = append(out, in[:i]...)
	return append(out, in[i+1:]...)
}
