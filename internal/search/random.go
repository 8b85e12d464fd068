package search

import (
	"schemata/internal/data"
	"schemata/internal/util"
)

func (r *run) randomise() {
	for _, c := range r.cells {
		c.row.Set(c.idx, r.randomValue(c.domain, true))
	}
}

// randomValue draws a value from a domain. Nulls are only drawn when allowNull is set.
func (r *run) randomValue(d Domain, allowNull bool) data.Value {
	if allowNull && util.Chance(r.rng, d.NullChance) {
		return data.Null(d.Kind)
	}
	if len(d.Library) > 0 && util.Chance(r.rng, r.cfg.LibraryProbability) {
		v := d.Library[r.rng.Intn(len(d.Library))]
		if d.Kind.Numeric() {
			return data.Null(d.Kind).WithInt(util.ClampInt64(v.Int(), d.Min, d.Max))
		}
		return v
	}
	switch d.Kind {
	case data.KindBoolean:
		return data.Bool(r.rng.Intn(2) == 1)
	case data.KindNumeric, data.KindTimestamp:
		return data.Null(d.Kind).WithInt(util.RandInt64Range(r.rng, d.Min, d.Max))
	case data.KindString:
		n := util.RandIntRange(r.rng, 0, d.MaxLength)
		elems := make([]int64, n)
		for i := range elems {
			elems[i] = int64(util.RandIntRange(r.rng, 'a', 'z'))
		}
		return data.Null(d.Kind).WithElements(elems)
	default:
		elems := make([]int64, d.Kind.Width())
		for i := range elems {
			lo, hi := elementBounds(d.Kind, elems, i)
			elems[i] = util.RandInt64Range(r.rng, lo, hi)
		}
		return data.Null(d.Kind).WithElements(elems)
	}
}

// fixCalendar clamps day-of-month after a year or month change.
func fixCalendar(kind data.Kind, elems []int64) {
	if kind != data.KindDate && kind != data.KindDateTime {
		return
	}
	if days := int64(daysIn(elems[0], elems[1])); elems[2] > days {
		elems[2] = days
	}
}

func daysIn(year, month int64) int {
	if month < 1 || month > 12 {
		return 31
	}
	return util.DaysInMonth(int(year), int(month))
}
