// Package expr models the boolean expressions found in CHECK constraints.
package expr

import (
	"strings"

	"schemata/internal/data"
)

// Op is a relational operator.
type Op int

// Relational operators.
const (
	Equals Op = iota
	NotEquals
	Less
	LessOrEquals
	Greater
	GreaterOrEquals
)

// Inverse returns the operator that holds exactly when o does not.
func (o Op) Inverse() Op {
	switch o {
	case Equals:
		return NotEquals
	case NotEquals:
		return Equals
	case Less:
		return GreaterOrEquals
	case LessOrEquals:
		return Greater
	case Greater:
		return LessOrEquals
	default:
		return Less
	}
}

// Ordering reports whether o is one of <, <=, >, >=.
func (o Op) Ordering() bool {
	return o != Equals && o != NotEquals
}

func (o Op) String() string {
	switch o {
	case Equals:
		return "="
	case NotEquals:
		return "<>"
	case Less:
		return "<"
	case LessOrEquals:
		return "<="
	case Greater:
		return ">"
	default:
		return ">="
	}
}

// Expr is a node of an expression tree.
type Expr interface {
	exprNode()
}

// ColumnExpr references a column of the row under evaluation.
type ColumnExpr struct {
	Name string
}

// ConstantExpr is a literal.
type ConstantExpr struct {
	Value data.Value
}

// RelationalExpr compares two operands.
type RelationalExpr struct {
	LHS Expr
	Op  Op
	RHS Expr
}

// AndExpr holds when every sub-expression holds.
type AndExpr struct {
	Subs []Expr
}

// OrExpr holds when any sub-expression holds.
type OrExpr struct {
	Subs []Expr
}

// NotExpr negates its sub-expression.
type NotExpr struct {
	Sub Expr
}

// BetweenExpr is Subject [NOT] BETWEEN Low AND High.
type BetweenExpr struct {
	Subject Expr
	Low     Expr
	High    Expr
	Not     bool
}

// InExpr is LHS [NOT] IN (List...).
type InExpr struct {
	LHS  Expr
	List []Expr
	Not  bool
}

// NullExpr is Sub IS [NOT] NULL.
type NullExpr struct {
	Sub Expr
	Not bool
}

// ParenExpr is a parenthesised sub-expression.
type ParenExpr struct {
	Sub Expr
}

func (ColumnExpr) exprNode()     {}
func (ConstantExpr) exprNode()   {}
func (RelationalExpr) exprNode() {}
func (AndExpr) exprNode()        {}
func (OrExpr) exprNode()         {}
func (NotExpr) exprNode()        {}
func (BetweenExpr) exprNode()    {}
func (InExpr) exprNode()         {}
func (NullExpr) exprNode()       {}
func (ParenExpr) exprNode()      {}

// Col is shorthand for a column reference.
func Col(name string) ColumnExpr {
	return ColumnExpr{Name: name}
}

// Const is shorthand for a literal.
func Const(v data.Value) ConstantExpr {
	return ConstantExpr{Value: v}
}

// Compare is shorthand for a relational expression.
func Compare(lhs Expr, op Op, rhs Expr) RelationalExpr {
	return RelationalExpr{LHS: lhs, Op: op, RHS: rhs}
}

// Equal reports structural equality. Column names compare case-insensitively.
func Equal(a, b Expr) bool {
	switch x := a.(type) {
	case ColumnExpr:
		y, ok := b.(ColumnExpr)
		return ok && strings.EqualFold(x.Name, y.Name)
	case ConstantExpr:
		y, ok := b.(ConstantExpr)
		return ok && x.Value.Equal(y.Value)
	case RelationalExpr:
		y, ok := b.(RelationalExpr)
		return ok && x.Op == y.Op && Equal(x.LHS, y.LHS) && Equal(x.RHS, y.RHS)
	case AndExpr:
		y, ok := b.(AndExpr)
		return ok && equalList(x.Subs, y.Subs)
	case OrExpr:
		y, ok := b.(OrExpr)
		return ok && equalList(x.Subs, y.Subs)
	case NotExpr:
		y, ok := b.(NotExpr)
		return ok && Equal(x.Sub, y.Sub)
	case BetweenExpr:
		y, ok := b.(BetweenExpr)
		return ok && x.Not == y.Not && Equal(x.Subject, y.Subject) && Equal(x.Low, y.Low) && Equal(x.High, y.High)
	case InExpr:
		y, ok := b.(InExpr)
		return ok && x.Not == y.Not && Equal(x.LHS, y.LHS) && equalList(x.List, y.List)
	case NullExpr:
		y, ok := b.(NullExpr)
		return ok && x.Not == y.Not && Equal(x.Sub, y.Sub)
	case ParenExpr:
		y, ok := b.(ParenExpr)
		return ok && Equal(x.Sub, y.Sub)
	default:
		return false
	}
}

func equalList(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Columns lists referenced column names in first-seen order.
func Columns(e Expr) []string {
	var out []string
	seen := make(map[string]struct{})
	Walk(e, func(node Expr) {
		if c, ok := node.(ColumnExpr); ok {
			key := strings.ToLower(c.Name)
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				out = append(out, c.Name)
			}
		}
	})
	return out
}

// Constants lists every literal in the tree.
func Constants(e Expr) []data.Value {
	var out []data.Value
	Walk(e, func(node Expr) {
		if c, ok := node.(ConstantExpr); ok {
			out = append(out, c.Value)
		}
	})
	return out
}

// Walk visits e and its descendants in pre-order.
func Walk(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch x := e.(type) {
	case RelationalExpr:
		Walk(x.LHS, fn)
		Walk(x.RHS, fn)
	case AndExpr:
		for _, s := range x.Subs {
			Walk(s, fn)
		}
	case OrExpr:
		for _, s := range x.Subs {
			Walk(s, fn)
		}
	case NotExpr:
		Walk(x.Sub, fn)
	case BetweenExpr:
		Walk(x.Subject, fn)
		Walk(x.Low, fn)
		Walk(x.High, fn)
	case InExpr:
		Walk(x.LHS, fn)
		for _, s := range x.List {
			Walk(s, fn)
		}
	case NullExpr:
		Walk(x.Sub, fn)
	case ParenExpr:
		Walk(x.Sub, fn)
	}
}
