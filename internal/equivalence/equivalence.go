// Package equivalence decides whether two schema artefacts behave the same
// and uses that to prune mutants before analysis.
package equivalence

import (
	"strings"

	"schemata/internal/expr"
	"schemata/internal/schema"
)

// Checker decides equivalence for one artefact kind. Implementations are
// reflexive and symmetric.
type Checker[T any] interface {
	Equivalent(a, b T) bool
}

// Func adapts a plain function to Checker.
type Func[T any] func(a, b T) bool

// Equivalent implements Checker.
func (f Func[T]) Equivalent(a, b T) bool { return f(a, b) }

// Options tunes structural comparison.
type Options struct {
	// CompareNames makes constraint names significant.
	CompareNames bool
}

func (o Options) names(a, b string) bool {
	return !o.CompareNames || strings.EqualFold(a, b)
}

// Columns compares name and declared type.
func Columns() Checker[schema.Column] {
	return Func[schema.Column](func(a, b schema.Column) bool {
		return strings.EqualFold(a.Name, b.Name) && a.Type == b.Type && a.Length == b.Length
	})
}

// Tables compares names and the column sets.
func Tables() Checker[*schema.Table] {
	cols := Columns()
	return Func[*schema.Table](func(a, b *schema.Table) bool {
		if a == b {
			return true
		}
		if a == nil || b == nil || !strings.EqualFold(a.Name, b.Name) {
			return false
		}
		return sameSet(a.Columns, b.Columns, cols.Equivalent)
	})
}

func PrimaryKeys(opts Options) Checker[*schema.PrimaryKey] {
	return Func[*schema.PrimaryKey](func(a, b *schema.PrimaryKey) bool {
		if a == b {
			return true
		}
		return a != nil && b != nil && opts.names(a.Name, b.Name) &&
			strings.EqualFold(a.Table, b.Table) && sameNames(a.Columns, b.Columns)
	})
}

// ForeignKeys treats the key as a set of (column, referenced column) pairs.
func ForeignKeys(opts Options) Checker[*schema.ForeignKey] {
	return Func[*schema.ForeignKey](func(a, b *schema.ForeignKey) bool {
		if a == b {
			return true
		}
		if a == nil || b == nil || !opts.names(a.Name, b.Name) ||
			!strings.EqualFold(a.Table, b.Table) || !strings.EqualFold(a.RefTable, b.RefTable) ||
			len(a.Columns) != len(a.RefColumns) || len(b.Columns) != len(b.RefColumns) {
			return false
		}
		return sameSet(pairs(a), pairs(b), func(x, y [2]string) bool {
			return strings.EqualFold(x[0], y[0]) && strings.EqualFold(x[1], y[1])
		})
	})
}

func Uniques(opts Options) Checker[*schema.Unique] {
	return Func[*schema.Unique](func(a, b *schema.Unique) bool {
		if a == b {
			return true
		}
		return a != nil && b != nil && opts.names(a.Name, b.Name) &&
			strings.EqualFold(a.Table, b.Table) && sameNames(a.Columns, b.Columns)
	})
}

// Checks compares CHECK expressions structurally; no algebraic rewriting is
// attempted, so "a > 1" and "1 < a" are distinct.
func Checks(opts Options) Checker[*schema.Check] {
	return Func[*schema.Check](func(a, b *schema.Check) bool {
		if a == b {
			return true
		}
		return a != nil && b != nil && opts.names(a.Name, b.Name) &&
			strings.EqualFold(a.Table, b.Table) && expr.Equal(a.Expr, b.Expr)
	})
}

func NotNulls(opts Options) Checker[*schema.NotNull] {
	return Func[*schema.NotNull](func(a, b *schema.NotNull) bool {
		if a == b {
			return true
		}
		return a != nil && b != nil && opts.names(a.Name, b.Name) &&
			strings.EqualFold(a.Table, b.Table) && strings.EqualFold(a.Column, b.Column)
	})
}

// SchemaChecker compares whole schemas category by category.
type SchemaChecker struct {
	tables      Checker[*schema.Table]
	primaryKeys Checker[*schema.PrimaryKey]
	foreignKeys Checker[*schema.ForeignKey]
	uniques     Checker[*schema.Unique]
	checks      Checker[*schema.Check]
	notNulls    Checker[*schema.NotNull]
}

// NewSchemaChecker builds a checker from the per-artefact checkers.
func NewSchemaChecker(opts Options) *SchemaChecker {
	return &SchemaChecker{
		tables:      Tables(),
		primaryKeys: PrimaryKeys(opts),
		foreignKeys: ForeignKeys(opts),
		uniques:     Uniques(opts),
		checks:      Checks(opts),
		notNulls:    NotNulls(opts),
	}
}

// Equivalent implements Checker.
func (c *SchemaChecker) Equivalent(a, b *schema.Schema) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if len(a.Tables) != len(b.Tables) ||
		len(a.PrimaryKeys) != len(b.PrimaryKeys) ||
		len(a.ForeignKeys) != len(b.ForeignKeys) ||
		len(a.Uniques) != len(b.Uniques) ||
		len(a.Checks) != len(b.Checks) ||
		len(a.NotNulls) != len(b.NotNulls) {
		return false
	}
	return sameSet(a.Tables, b.Tables, c.tables.Equivalent) &&
		sameSet(a.PrimaryKeys, b.PrimaryKeys, c.primaryKeys.Equivalent) &&
		sameSet(a.ForeignKeys, b.ForeignKeys, c.foreignKeys.Equivalent) &&
		sameSet(a.Uniques, b.Uniques, c.uniques.Equivalent) &&
		sameSet(a.Checks, b.Checks, c.checks.Equivalent) &&
		sameSet(a.NotNulls, b.NotNulls, c.notNulls.Equivalent)
}

// sameSet reports whether a and b can be paired one-to-one under eq.
func sameSet[T any](a, b []T, eq func(T, T) bool) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, x := range a {
		found := false
		for j, y := range b {
			if !used[j] && eq(x, y) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func sameNames(a, b []string) bool {
	return sameSet(a, b, strings.EqualFold)
}

func pairs(fk *schema.ForeignKey) [][2]string {
	out := make([][2]string, len(fk.Columns))
	for i := range fk.Columns {
		out[i] = [2]string{fk.Columns[i], fk.RefColumns[i]}
	}
	return out
}
