package objective

import (
	"strings"

	"github.com/pkg/errors"

	"schemata/internal/data"
	"schemata/internal/expr"
	"schemata/internal/predicate"
)

// Function scores a candidate. Implementations must not modify it.
type Function func(candidate *data.Data) (Value, error)

// Bind fixes everything but the candidate.
func Bind(p predicate.Predicate, state *data.Data, goal Goal, policy NullPolicy) Function {
	return func(candidate *data.Data) (Value, error) {
		return Evaluate(p, candidate, state, goal, policy)
	}
}

// Evaluate scores how far candidate is from meeting goal for p. Rows in state
// are already in the database and only serve as Match counterparts.
//
// Connectives combine by Sum when every part must hold and by Best when any
// part may hold; the goal flips that role at every connective.
func Evaluate(p predicate.Predicate, candidate, state *data.Data, goal Goal, policy NullPolicy) (Value, error) {
	switch x := p.(type) {
	case predicate.And:
		return combine(len(x.Preds), goal == Satisfy, func(i int) (Value, error) {
			return Evaluate(x.Preds[i], candidate, state, goal, policy)
		})
	case predicate.Or:
		return combine(len(x.Preds), goal == Negate, func(i int) (Value, error) {
			return Evaluate(x.Preds[i], candidate, state, goal, policy)
		})
	case predicate.Expression:
		rows := candidate.Rows(x.Table)
		v, err := combine(len(rows), goal == Satisfy, func(i int) (Value, error) {
			return EvaluateExpr(x.Expr, rows[i], goal, policy)
		})
		return v, errors.Wrapf(err, "table %s", x.Table)
	case predicate.Null:
		return evaluateNull(x, candidate, goal)
	case predicate.Match:
		return evaluateMatch(x, candidate, state, goal, policy)
	default:
		return Value{}, &Error{Reason: "unsupported predicate " + p.String()}
	}
}

// combine evaluates n parts and folds them with Sum when all is set, Best otherwise.
func combine(n int, all bool, part func(int) (Value, error)) (Value, error) {
	vals := make([]Value, 0, n)
	for i := 0; i < n; i++ {
		v, err := part(i)
		if err != nil {
			return Value{}, err
		}
		vals = append(vals, v)
	}
	if all {
		return Sum(vals...), nil
	}
	return Best(vals...), nil
}

func evaluateNull(p predicate.Null, candidate *data.Data, goal Goal) (Value, error) {
	rows := candidate.Rows(p.Table)
	wantNull := !p.Not
	if goal == Negate {
		wantNull = !wantNull
	}
	return combine(len(rows), goal == Satisfy, func(i int) (Value, error) {
		v, ok := rows[i].Value(p.Column)
		if !ok {
			return Value{}, &Error{Reason: "unknown column " + p.Table + "." + p.Column}
		}
		desc := p.Table + "." + p.Column + " = " + v.String()
		if v.IsNull() == wantNull {
			return Optimal().Describe(desc), nil
		}
		return Worst().Describe(desc), nil
	})
}

// evaluateMatch scores "every row has a counterpart" (or "no row has one" with
// Not set). A negated goal asks for at least one row to break that.
func evaluateMatch(p predicate.Match, candidate, state *data.Data, goal Goal, policy NullPolicy) (Value, error) {
	if len(p.Columns) != len(p.RefColumns) {
		return Value{}, &Error{Reason: "match column count mismatch: " + p.String()}
	}
	rows := candidate.Rows(p.Table)
	wantMatch := !p.Not
	if goal == Negate {
		wantMatch = !wantMatch
	}
	return combine(len(rows), goal == Satisfy, func(i int) (Value, error) {
		peers := matchCandidates(p, candidate, state, i)
		if wantMatch {
			// Some peer must agree on every column.
			return combine(len(peers), false, func(j int) (Value, error) {
				return comparePair(p, rows[i], peers[j], expr.Equals, true, policy)
			})
		}
		// Every peer must differ on some column.
		return combine(len(peers), true, func(j int) (Value, error) {
			return comparePair(p, rows[i], peers[j], expr.NotEquals, false, policy)
		})
	})
}

func comparePair(p predicate.Match, row, peer *data.Row, op expr.Op, all bool, policy NullPolicy) (Value, error) {
	return combine(len(p.Columns), all, func(k int) (Value, error) {
		l, ok := row.Value(p.Columns[k])
		if !ok {
			return Value{}, &Error{Reason: "unknown column " + p.Table + "." + p.Columns[k]}
		}
		r, ok := peer.Value(p.RefColumns[k])
		if !ok {
			return Value{}, &Error{Reason: "unknown column " + p.RefTable + "." + p.RefColumns[k]}
		}
		return Relational(l, op, r, policy)
	})
}

// matchCandidates lists the rows the i-th row of p.Table may match: every
// state row of the referenced table plus candidate rows of it. Within one
// table only rows inserted earlier count.
func matchCandidates(p predicate.Match, candidate, state *data.Data, i int) []*data.Row {
	out := append([]*data.Row(nil), state.Rows(p.RefTable)...)
	rows := candidate.Rows(p.RefTable)
	if strings.EqualFold(p.Table, p.RefTable) {
		rows = rows[:min(i, len(rows))]
	}
	return append(out, rows...)
}

// EvaluateExpr scores a single row against an expression tree.
func EvaluateExpr(e expr.Expr, row *data.Row, goal Goal, policy NullPolicy) (Value, error) {
	switch x := e.(type) {
	case expr.ParenExpr:
		return EvaluateExpr(x.Sub, row, goal, policy)
	case expr.NotExpr:
		return EvaluateExpr(x.Sub, row, goal.Flip(), policy)
	case expr.AndExpr:
		return combine(len(x.Subs), goal == Satisfy, func(i int) (Value, error) {
			return EvaluateExpr(x.Subs[i], row, goal, policy)
		})
	case expr.OrExpr:
		return combine(len(x.Subs), goal == Negate, func(i int) (Value, error) {
			return EvaluateExpr(x.Subs[i], row, goal, policy)
		})
	case expr.RelationalExpr:
		l, err := operand(x.LHS, row)
		if err != nil {
			return Value{}, err
		}
		r, err := operand(x.RHS, row)
		if err != nil {
			return Value{}, err
		}
		op := x.Op
		if goal == Negate {
			op = op.Inverse()
		}
		return Relational(l, op, r, policy)
	case expr.BetweenExpr:
		expanded := expr.AndExpr{Subs: []expr.Expr{
			expr.Compare(x.Subject, expr.GreaterOrEquals, x.Low),
			expr.Compare(x.Subject, expr.LessOrEquals, x.High),
		}}
		if x.Not {
			goal = goal.Flip()
		}
		return EvaluateExpr(expanded, row, goal, policy)
	case expr.InExpr:
		subs := make([]expr.Expr, len(x.List))
		for i, item := range x.List {
			subs[i] = expr.Compare(x.LHS, expr.Equals, item)
		}
		if x.Not {
			goal = goal.Flip()
		}
		return EvaluateExpr(expr.OrExpr{Subs: subs}, row, goal, policy)
	case expr.NullExpr:
		v, err := operand(x.Sub, row)
		if err != nil {
			return Value{}, err
		}
		holds := v.IsNull() != x.Not
		if goal == Negate {
			holds = !holds
		}
		if holds {
			return Optimal(), nil
		}
		return Worst().Describe(v.String() + " null check"), nil
	case expr.ColumnExpr, expr.ConstantExpr:
		// A bare numeric operand is true when non-zero.
		v, err := operand(x, row)
		if err != nil {
			return Value{}, err
		}
		if v.Kind() == data.KindNumeric {
			return EvaluateExpr(expr.Compare(x, expr.NotEquals, expr.Const(data.Int(0))), row, goal, policy)
		}
		return EvaluateExpr(expr.Compare(x, expr.Equals, expr.Const(data.Bool(true))), row, goal, policy)
	default:
		return Value{}, &Error{Reason: "unsupported expression"}
	}
}

func operand(e expr.Expr, row *data.Row) (data.Value, error) {
	switch x := e.(type) {
	case expr.ColumnExpr:
		v, ok := row.Value(x.Name)
		if !ok {
			return data.Value{}, &Error{Reason: "unknown column " + row.Table() + "." + x.Name}
		}
		return v, nil
	case expr.ConstantExpr:
		return x.Value, nil
	case expr.ParenExpr:
		return operand(x.Sub, row)
	default:
		return data.Value{}, &Error{Reason: "unsupported operand " + predicate.Render(e)}
	}
}
