// Package predicate describes conditions over whole tables of candidate data.
package predicate

import (
	"fmt"
	"strings"

	"schemata/internal/expr"
)

// Predicate is a condition over candidate data and existing state.
type Predicate interface {
	predicateNode()
	String() string
}

// And holds when every part holds.
type And struct {
	Preds []Predicate
}

// Or holds when any part holds.
type Or struct {
	Preds []Predicate
}

// Expression holds when Expr holds for every row of Table.
type Expression struct {
	Table string
	Expr  expr.Expr
}

// Match holds when each row of Table has a counterpart in RefTable agreeing on
// every Columns[i] = RefColumns[i]. With Not set, no counterpart may exist.
// When RefTable equals Table only preceding rows are counterparts.
type Match struct {
	Table      string
	Columns    []string
	RefTable   string
	RefColumns []string
	Not        bool
}

// Null holds when Column is null in every row of Table, or non-null with Not set.
type Null struct {
	Table  string
	Column string
	Not    bool
}

func (And) predicateNode()        {}
func (Or) predicateNode()         {}
func (Expression) predicateNode() {}
func (Match) predicateNode()      {}
func (Null) predicateNode()       {}

func (p And) String() string {
	return joinPreds("AND", p.Preds)
}

func (p Or) String() string {
	return joinPreds("OR", p.Preds)
}

func (p Expression) String() string {
	return fmt.Sprintf("%s: %s", p.Table, Render(p.Expr))
}

func (p Match) String() string {
	kw := "MATCH"
	if p.Not {
		kw = "NOT MATCH"
	}
	return fmt.Sprintf("%s %s(%s) -> %s(%s)", kw, p.Table, strings.Join(p.Columns, ", "),
		p.RefTable, strings.Join(p.RefColumns, ", "))
}

func (p Null) String() string {
	if p.Not {
		return fmt.Sprintf("%s.%s IS NOT NULL", p.Table, p.Column)
	}
	return fmt.Sprintf("%s.%s IS NULL", p.Table, p.Column)
}

func joinPreds(op string, preds []Predicate) string {
	if len(preds) == 0 {
		return "(" + op + ")"
	}
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, " "+op+" ") + ")"
}

// Not returns the complement of p, pushing negation down to the leaves.
func Not(p Predicate) Predicate {
	switch x := p.(type) {
	case And:
		return Or{Preds: negateAll(x.Preds)}
	case Or:
		return And{Preds: negateAll(x.Preds)}
	case Expression:
		if n, ok := x.Expr.(expr.NotExpr); ok {
			return Expression{Table: x.Table, Expr: n.Sub}
		}
		return Expression{Table: x.Table, Expr: expr.NotExpr{Sub: x.Expr}}
	case Match:
		x.Not = !x.Not
		return x
	case Null:
		x.Not = !x.Not
		return x
	default:
		return p
	}
}

func negateAll(preds []Predicate) []Predicate {
	out := make([]Predicate, len(preds))
	for i, p := range preds {
		out[i] = Not(p)
	}
	return out
}

// Tables lists the tables a predicate reads, in first-seen order.
func Tables(p Predicate) []string {
	var out []string
	seen := make(map[string]struct{})
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	var visit func(Predicate)
	visit = func(p Predicate) {
		switch x := p.(type) {
		case And:
			for _, s := range x.Preds {
				visit(s)
			}
		case Or:
			for _, s := range x.Preds {
				visit(s)
			}
		case Expression:
			add(x.Table)
		case Match:
			add(x.Table)
			add(x.RefTable)
		case Null:
			add(x.Table)
		}
	}
	visit(p)
	return out
}

// Render formats an expression in SQL-like syntax for diagnostics.
func Render(e expr.Expr) string {
	switch x := e.(type) {
	case expr.ColumnExpr:
		return x.Name
	case expr.ConstantExpr:
		return x.Value.String()
	case expr.RelationalExpr:
		return Render(x.LHS) + " " + x.Op.String() + " " + Render(x.RHS)
	case expr.AndExpr:
		return renderList(x.Subs, " AND ")
	case expr.OrExpr:
		return renderList(x.Subs, " OR ")
	case expr.NotExpr:
		return "NOT " + Render(x.Sub)
	case expr.BetweenExpr:
		kw := " BETWEEN "
		if x.Not {
			kw = " NOT BETWEEN "
		}
		return Render(x.Subject) + kw + Render(x.Low) + " AND " + Render(x.High)
	case expr.InExpr:
		kw := " IN "
		if x.Not {
			kw = " NOT IN "
		}
		return Render(x.LHS) + kw + renderList(x.List, ", ")
	case expr.NullExpr:
		if x.Not {
			return Render(x.Sub) + " IS NOT NULL"
		}
		return Render(x.Sub) + " IS NULL"
	case expr.ParenExpr:
		return "(" + Render(x.Sub) + ")"
	default:
		return "?"
	}
}

func renderList(subs []expr.Expr, sep string) string {
	parts := make([]string, len(subs))
	for i, s := range subs {
		parts[i] = Render(s)
	}
	return "(" + strings.Join(parts, sep) + ")"
}
