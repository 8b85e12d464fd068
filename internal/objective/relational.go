package objective

import (
	"math"

	"schemata/internal/data"
	"schemata/internal/expr"
)

// Relational scores lhs op rhs. Operator legality is checked before the null
// policy applies, so an illegal comparison fails even with a null operand.
func Relational(lhs data.Value, op expr.Op, rhs data.Value, policy NullPolicy) (Value, error) {
	if err := checkOperands(lhs, op, rhs); err != nil {
		return Value{}, err
	}
	desc := lhs.String() + " " + op.String() + " " + rhs.String()
	if lhs.IsNull() || rhs.IsNull() {
		if policy == NullSatisfies {
			return Optimal().Describe(desc), nil
		}
		return Worst().Describe(desc), nil
	}
	switch {
	case lhs.Kind() == data.KindBoolean:
		return booleanDistance(lhs.Bool(), op, rhs.Bool(), desc), nil
	case lhs.Kind().Numeric():
		return numericDistance(lhs.Int(), op, rhs.Int(), desc), nil
	default:
		return compoundDistance(lhs, op, rhs, desc), nil
	}
}

func checkOperands(lhs data.Value, op expr.Op, rhs data.Value) error {
	lk, rk := lhs.Kind(), rhs.Kind()
	switch {
	case lk == data.KindBoolean && rk == data.KindBoolean:
		if op.Ordering() {
			return &Error{Op: op, LHS: lk, RHS: rk}
		}
		return nil
	case lk.Numeric() && rk.Numeric():
		return nil
	case lk.Compound() && lk == rk:
		return nil
	default:
		return &Error{Op: op, LHS: lk, RHS: rk}
	}
}

func booleanDistance(l bool, op expr.Op, r bool, desc string) Value {
	holds := l == r
	if op == expr.NotEquals {
		holds = !holds
	}
	if holds {
		return Optimal().Describe(desc)
	}
	return Worst().Describe(desc)
}

func numericDistance(l int64, op expr.Op, r int64, desc string) Value {
	diff := float64(l) - float64(r)
	switch op {
	case expr.Equals:
		return Distance(math.Abs(diff), desc)
	case expr.NotEquals:
		if l == r {
			return Worst().Describe(desc)
		}
		return Optimal().Describe(desc)
	case expr.Less:
		if l < r {
			return Optimal().Describe(desc)
		}
		return Distance(diff+1, desc)
	case expr.LessOrEquals:
		if l <= r {
			return Optimal().Describe(desc)
		}
		return Distance(diff, desc)
	case expr.Greater:
		if l > r {
			return Optimal().Describe(desc)
		}
		return Distance(-diff+1, desc)
	default:
		if l >= r {
			return Optimal().Describe(desc)
		}
		return Distance(-diff, desc)
	}
}

// compoundDistance compares element sequences lexicographically. Equality
// distance accumulates over every element; ordering distance is measured at
// the first differing element, or by the length difference for a prefix.
func compoundDistance(lhs data.Value, op expr.Op, rhs data.Value, desc string) Value {
	cmp, gap := lexCompare(lhs, rhs)
	switch op {
	case expr.Equals:
		if cmp == 0 {
			return Optimal().Describe(desc)
		}
		return Distance(equalityGap(lhs, rhs), desc)
	case expr.NotEquals:
		if cmp == 0 {
			return Worst().Describe(desc)
		}
		return Optimal().Describe(desc)
	case expr.Less:
		if cmp < 0 {
			return Optimal().Describe(desc)
		}
		return Distance(gap+1, desc)
	case expr.LessOrEquals:
		if cmp <= 0 {
			return Optimal().Describe(desc)
		}
		return Distance(gap, desc)
	case expr.Greater:
		if cmp > 0 {
			return Optimal().Describe(desc)
		}
		return Distance(gap+1, desc)
	default:
		if cmp >= 0 {
			return Optimal().Describe(desc)
		}
		return Distance(gap, desc)
	}
}

func lexCompare(lhs, rhs data.Value) (int, float64) {
	n := min(lhs.Len(), rhs.Len())
	for i := 0; i < n; i++ {
		a, b := lhs.Element(i), rhs.Element(i)
		if a == b {
			continue
		}
		gap := math.Abs(float64(a) - float64(b))
		if a < b {
			return -1, gap
		}
		return 1, gap
	}
	gap := math.Abs(float64(lhs.Len() - rhs.Len()))
	switch {
	case lhs.Len() < rhs.Len():
		return -1, gap
	case lhs.Len() > rhs.Len():
		return 1, gap
	default:
		return 0, 0
	}
}

func equalityGap(lhs, rhs data.Value) float64 {
	n := min(lhs.Len(), rhs.Len())
	total := math.Abs(float64(lhs.Len() - rhs.Len()))
	for i := 0; i < n; i++ {
		total += normalise(math.Abs(float64(lhs.Element(i)) - float64(rhs.Element(i))))
	}
	return total
}
