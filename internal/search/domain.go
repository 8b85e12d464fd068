package search

import (
	"schemata/internal/data"
	"schemata/internal/expr"
	"schemata/internal/schema"
)

const (
	minPrintable = 32
	maxPrintable = 126
	minYear      = 1970
	maxYear      = 2037
	maxEpoch     = 1<<31 - 1
)

// Domain describes the values one cell may take.
type Domain struct {
	Kind data.Kind
	// Min and Max bound numeric and timestamp cells.
	Min int64
	Max int64
	// MaxLength bounds string cells.
	MaxLength int
	// NullChance is the percent chance a random value is null.
	NullChance int
	// Library holds constants worth trying first, all of Kind.
	Library []data.Value
}

// DomainFunc resolves the domain of a column.
type DomainFunc func(table, column string) Domain

// SchemaDomains derives column domains from a schema. Columns without an
// explicit range use [-defaultRange, defaultRange]; constants appearing in a
// table's CHECK constraints seed its columns' value libraries.
func SchemaDomains(s *schema.Schema, cfg Config) DomainFunc {
	cfg = cfg.withDefaults()
	return func(table, column string) Domain {
		tbl, ok := s.TableByName(table)
		if !ok {
			return Domain{Kind: data.KindNumeric, Min: -cfg.DefaultRange, Max: cfg.DefaultRange}
		}
		col, ok := tbl.ColumnByName(column)
		if !ok {
			return Domain{Kind: data.KindNumeric, Min: -cfg.DefaultRange, Max: cfg.DefaultRange}
		}
		d := Domain{
			Kind:      col.Type.Kind(),
			Min:       -cfg.DefaultRange,
			Max:       cfg.DefaultRange,
			MaxLength: min(col.MaxLength(), cfg.MaxStringLength),
		}
		if d.Kind == data.KindTimestamp {
			d.Min, d.Max = 1, maxEpoch
		}
		if col.Range != nil {
			d.Min, d.Max = col.Range.Min, col.Range.Max
		}
		if !s.IsNotNull(table, column) {
			d.NullChance = cfg.NullProbability
		}
		for _, c := range s.ChecksOf(table) {
			for _, v := range expr.Constants(c.Expr) {
				if v.IsNull() {
					continue
				}
				if v.Kind() == d.Kind || (v.Kind().Numeric() && d.Kind.Numeric()) {
					d.Library = append(d.Library, v)
				}
			}
		}
		return d
	}
}

// elementBounds returns the legal range of element i of a compound value.
func elementBounds(kind data.Kind, elems []int64, i int) (int64, int64) {
	switch kind {
	case data.KindString:
		return minPrintable, maxPrintable
	case data.KindTime:
		return timeBounds(i)
	case data.KindDate:
		return dateBounds(elems, i)
	case data.KindDateTime:
		if i < 3 {
			return dateBounds(elems, i)
		}
		return timeBounds(i - 3)
	default:
		return 0, 0
	}
}

func dateBounds(elems []int64, i int) (int64, int64) {
	switch i {
	case 0:
		return minYear, maxYear
	case 1:
		return 1, 12
	default:
		return 1, int64(daysIn(elems[0], elems[1]))
	}
}

func timeBounds(i int) (int64, int64) {
	if i == 0 {
		return 0, 23
	}
	return 0, 59
}
