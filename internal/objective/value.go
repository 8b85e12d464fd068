// Package objective turns predicates over candidate data into distances that
// a search can minimise.
package objective

import (
	"math"
	"strconv"
)

// Goal selects whether the predicate should hold or fail.
type Goal int

// Goals.
const (
	Satisfy Goal = iota
	Negate
)

// Flip returns the opposite goal.
func (g Goal) Flip() Goal {
	if g == Satisfy {
		return Negate
	}
	return Satisfy
}

func (g Goal) String() string {
	if g == Negate {
		return "negate"
	}
	return "satisfy"
}

// NullPolicy decides the outcome of a comparison with a null operand.
type NullPolicy int

// Null policies. The zero value treats null comparisons as failing.
const (
	NullFails NullPolicy = iota
	NullSatisfies
)

func (p NullPolicy) String() string {
	if p == NullSatisfies {
		return "null-satisfies"
	}
	return "null-fails"
}

const worstDistance = 1.0

// Value is a distance to the goal. Zero means the goal is met.
type Value struct {
	distance    float64
	description string
}

// Optimal returns the zero distance.
func Optimal() Value {
	return Value{}
}

// Worst returns the largest distance a single comparison can produce.
func Worst() Value {
	return Value{distance: worstDistance}
}

// Distance returns a leaf value for a raw violation magnitude d >= 0,
// normalised into [0, 1).
func Distance(d float64, description string) Value {
	if d <= 0 {
		return Value{description: description}
	}
	return Value{distance: normalise(d), description: description}
}

func normalise(d float64) float64 {
	if math.IsInf(d, 1) {
		return worstDistance
	}
	return d / (d + 1)
}

// Describe returns a copy carrying a description.
func (v Value) Describe(description string) Value {
	v.description = description
	return v
}

// IsOptimal reports whether the goal is met.
func (v Value) IsOptimal() bool {
	return v.distance == 0
}

// Float returns the raw distance.
func (v Value) Float() float64 {
	return v.distance
}

// Description returns the diagnostic text.
func (v Value) Description() string {
	return v.description
}

// Less reports whether v is strictly closer to the goal than o.
func (v Value) Less(o Value) bool {
	return v.distance < o.distance
}

// Compare returns -1, 0 or 1.
func (v Value) Compare(o Value) int {
	switch {
	case v.distance < o.distance:
		return -1
	case v.distance > o.distance:
		return 1
	default:
		return 0
	}
}

func (v Value) String() string {
	s := strconv.FormatFloat(v.distance, 'g', 6, 64)
	if v.description == "" {
		return s
	}
	return s + " (" + v.description + ")"
}

// Sum combines values that must all be met. Empty input is optimal.
func Sum(vals ...Value) Value {
	var out Value
	for _, v := range vals {
		out.distance += v.distance
	}
	out.description = describeWorst(vals)
	return out
}

// Best combines values of which any one may be met. Empty input is worst.
func Best(vals ...Value) Value {
	if len(vals) == 0 {
		return Worst()
	}
	best := vals[0]
	for _, v := range vals[1:] {
		if v.Less(best) {
			best = v
		}
	}
	return best
}

func describeWorst(vals []Value) string {
	var worst *Value
	for i := range vals {
		if vals[i].IsOptimal() {
			continue
		}
		if worst == nil || worst.Less(vals[i]) {
			worst = &vals[i]
		}
	}
	if worst == nil {
		return ""
	}
	return worst.description
}
