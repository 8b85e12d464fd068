package equivalence

import (
	"schemata/internal/mutation"
	"schemata/internal/util"
)

// Reduction partitions a mutant list. Every input mutant lands in exactly one
// slice and input order is kept within each.
type Reduction[T any] struct {
	Retained   []mutation.Mutant[T]
	Equivalent []mutation.Mutant[T]
	Redundant  []mutation.Mutant[T]
}

// ReduceOptions selects which pruning steps run.
type ReduceOptions struct {
	RemoveEquivalent bool
	RemoveRedundant  bool
}

// Reduce drops mutants equivalent to the original and, optionally, mutants
// equivalent to an already retained mutant. Each candidate is compared
// directly against every retained mutant; equivalence is not assumed to be
// transitive.
func Reduce[T any](c Checker[T], original T, mutants []mutation.Mutant[T], opts ReduceOptions) Reduction[T] {
	var out Reduction[T]
	for _, m := range mutants {
		if opts.RemoveEquivalent && c.Equivalent(original, m.Artefact) {
			util.Detailf("mutant %d (%s) is equivalent to the original", m.ID, m.Operator)
			out.Equivalent = append(out.Equivalent, m)
			continue
		}
		if opts.RemoveRedundant && redundant(c, m, out.Retained) {
			out.Redundant = append(out.Redundant, m)
			continue
		}
		out.Retained = append(out.Retained, m)
	}
	return out
}

func redundant[T any](c Checker[T], m mutation.Mutant[T], retained []mutation.Mutant[T]) bool {
	for _, r := range retained {
		if c.Equivalent(r.Artefact, m.Artefact) {
			util.Detailf("mutant %d (%s) duplicates mutant %d", m.ID, m.Operator, r.ID)
			return true
		}
	}
	return false
}
