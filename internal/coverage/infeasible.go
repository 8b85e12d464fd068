package coverage

import (
	"sort"
	"strings"

	"schemata/internal/expr"
	"schemata/internal/objective"
	"schemata/internal/predicate"
)

// Infeasible reports whether no candidate can meet r. It only looks at the
// parts r requires outright: a column that must be both null and non-null, a
// match that must both hold and fail, or a disjunction every branch of which
// contradicts those parts.
func Infeasible(r Requirement) bool {
	if r.Goal != objective.Satisfy {
		return false
	}
	conj := conjuncts(r.Predicate)
	f := newFacts(r.NullPolicy)
	for _, p := range conj {
		f.add(p)
	}
	if f.conflict {
		return true
	}
	for _, p := range conj {
		if or, ok := p.(predicate.Or); ok && f.refutes(or) {
			return true
		}
	}
	return false
}

// Filter splits reqs into the feasible and the infeasible ones, keeping order.
func Filter(reqs []Requirement) (feasible, infeasible []Requirement) {
	for _, r := range reqs {
		if Infeasible(r) {
			infeasible = append(infeasible, r)
			continue
		}
		feasible = append(feasible, r)
	}
	return feasible, infeasible
}

// Reduce drops requirements that ask for the same thing as an earlier one.
// Two requirements are the same when they target one table with one goal and
// their conjunctions hold the same parts.
func Reduce(reqs []Requirement) []Requirement {
	out := make([]Requirement, 0, len(reqs))
	seen := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		key := requirementKey(r)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out
}

func requirementKey(r Requirement) string {
	conj := conjuncts(r.Predicate)
	parts := make([]string, 0, len(conj))
	have := make(map[string]struct{}, len(conj))
	for _, p := range conj {
		s := p.String()
		if _, ok := have[s]; ok {
			continue
		}
		have[s] = struct{}{}
		parts = append(parts, s)
	}
	sort.Strings(parts)
	return strings.ToLower(r.Table) + "|" + r.Goal.String() + "|" + r.NullPolicy.String() + "|" + strings.Join(parts, " AND ")
}

// conjuncts flattens nested conjunctions.
func conjuncts(p predicate.Predicate) []predicate.Predicate {
	and, ok := p.(predicate.And)
	if !ok {
		return []predicate.Predicate{p}
	}
	var out []predicate.Predicate
	for _, sub := range and.Preds {
		out = append(out, conjuncts(sub)...)
	}
	return out
}

type facts struct {
	policy   objective.NullPolicy
	null     map[string]bool
	match    map[string]bool
	conflict bool
}

func newFacts(policy objective.NullPolicy) *facts {
	return &facts{policy: policy, null: map[string]bool{}, match: map[string]bool{}}
}

func (f *facts) setNull(table, column string, isNull bool) {
	key := columnKey(table, column)
	if prev, ok := f.null[key]; ok && prev != isNull {
		f.conflict = true
		return
	}
	f.null[key] = isNull
}

func (f *facts) add(p predicate.Predicate) {
	switch x := p.(type) {
	case predicate.Null:
		f.setNull(x.Table, x.Column, !x.Not)
	case predicate.Match:
		key := matchKey(x)
		if prev, ok := f.match[key]; ok && prev != x.Not {
			f.conflict = true
			return
		}
		f.match[key] = x.Not
		if !x.Not && f.policy == objective.NullFails {
			for _, col := range x.Columns {
				f.setNull(x.Table, col, false)
			}
		}
	case predicate.Expression:
		if f.policy == objective.NullFails {
			for _, col := range requiredColumns(x.Expr) {
				f.setNull(x.Table, col, false)
			}
		}
	}
}

// refutes reports whether p cannot hold alongside the collected parts.
func (f *facts) refutes(p predicate.Predicate) bool {
	switch x := p.(type) {
	case predicate.Null:
		isNull, ok := f.null[columnKey(x.Table, x.Column)]
		return ok && isNull == x.Not
	case predicate.Match:
		if not, ok := f.match[matchKey(x)]; ok && not != x.Not {
			return true
		}
		return !x.Not && f.policy == objective.NullFails && f.anyNull(x.Table, x.Columns)
	case predicate.Expression:
		return f.policy == objective.NullFails && f.anyNull(x.Table, requiredColumns(x.Expr))
	case predicate.And:
		for _, sub := range x.Preds {
			if f.refutes(sub) {
				return true
			}
		}
		return false
	case predicate.Or:
		if len(x.Preds) == 0 {
			return false
		}
		for _, sub := range x.Preds {
			if !f.refutes(sub) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (f *facts) anyNull(table string, cols []string) bool {
	for _, col := range cols {
		if f.null[columnKey(table, col)] {
			return true
		}
	}
	return false
}

// requiredColumns lists the columns e compares in every way it can hold.
// Under a null-fails policy none of them may be null.
func requiredColumns(e expr.Expr) []string {
	switch x := e.(type) {
	case expr.ColumnExpr:
		return []string{x.Name}
	case expr.ParenExpr:
		return requiredColumns(x.Sub)
	case expr.NotExpr:
		return requiredColumns(x.Sub)
	case expr.RelationalExpr:
		return append(requiredColumns(x.LHS), requiredColumns(x.RHS)...)
	case expr.BetweenExpr:
		return requiredColumns(x.Subject)
	case expr.InExpr:
		return requiredColumns(x.LHS)
	case expr.AndExpr:
		var out []string
		for _, sub := range x.Subs {
			out = append(out, requiredColumns(sub)...)
		}
		return out
	case expr.OrExpr:
		if len(x.Subs) == 0 {
			return nil
		}
		common := requiredColumns(x.Subs[0])
		for _, sub := range x.Subs[1:] {
			common = intersect(common, requiredColumns(sub))
		}
		return common
	default:
		return nil
	}
}

func intersect(a, b []string) []string {
	var out []string
	for _, x := range a {
		for _, y := range b {
			if strings.EqualFold(x, y) {
				out = append(out, x)
				break
			}
		}
	}
	return out
}

func columnKey(table, column string) string {
	return strings.ToLower(table + "." + column)
}

func matchKey(m predicate.Match) string {
	return strings.ToLower(m.Table + "(" + strings.Join(m.Columns, ",") + ")->" + m.RefTable + "(" + strings.Join(m.RefColumns, ",") + ")")
}
