// Package search implements the alternating variable method over candidate data.
package search

import (
	"math/rand"

	"schemata/internal/data"
	"schemata/internal/objective"
	"schemata/internal/util"
)

// Config bounds and seeds a search.
type Config struct {
	Seed           int64
	MaxEvaluations int
	MaxRestarts    int
	// NullProbability is the percent chance a nullable cell starts out null.
	NullProbability int
	// LibraryProbability is the percent chance a random value is drawn from the value library.
	LibraryProbability int
	DefaultRange       int64
	MaxStringLength    int
}

func (c Config) withDefaults() Config {
	if c.MaxEvaluations <= 0 {
		c.MaxEvaluations = 100000
	}
	if c.MaxRestarts < 0 {
		c.MaxRestarts = 0
	}
	if c.DefaultRange <= 0 {
		c.DefaultRange = 100000
	}
	if c.MaxStringLength <= 0 {
		c.MaxStringLength = 20
	}
	return c
}

// Result is the outcome of one search.
type Result struct {
	Best        *data.Data
	Value       objective.Value
	Evaluations int
	Restarts    int
	Success     bool
}

// Search minimises an objective over the cells of a candidate.
type Search struct {
	cfg     Config
	domains DomainFunc
	// Observer, when set, sees every evaluated candidate. It must not keep it.
	Observer func(candidate *data.Data, v objective.Value)
}

// New creates a search.
func New(cfg Config, domains DomainFunc) *Search {
	return &Search{cfg: cfg.withDefaults(), domains: domains}
}

type cell struct {
	row    *data.Row
	idx    int
	domain Domain
}

type run struct {
	*Search
	rng   *rand.Rand
	fn    objective.Function
	cur   *data.Data
	cells []cell
	val   objective.Value
	res   Result
}

// Run searches from a copy of template, whose rows fix the tables and columns
// to fill. Budget exhaustion is not an error; Success reports whether the
// best candidate is optimal. Errors come from the objective only.
func (s *Search) Run(template *data.Data, fn objective.Function) (Result, error) {
	r := &run{
		Search: s,
		rng:    rand.New(rand.NewSource(s.cfg.Seed)),
		fn:     fn,
		cur:    template.Clone(),
	}
	for _, row := range r.cur.AllRows() {
		for i, col := range row.Columns() {
			r.cells = append(r.cells, cell{row: row, idx: i, domain: s.domains(row.Table(), col)})
		}
	}
	r.randomise()
	if _, ok, err := r.evaluate(); err != nil || !ok {
		return r.finish(), err
	}
	for !r.val.IsOptimal() {
		improved := false
		for _, c := range r.cells {
			better, ok, err := r.optimiseCell(c)
			if err != nil {
				return r.finish(), err
			}
			if !ok {
				return r.finish(), nil
			}
			improved = improved || better
			if r.val.IsOptimal() {
				break
			}
		}
		if improved || r.val.IsOptimal() {
			continue
		}
		if r.res.Restarts >= s.cfg.MaxRestarts {
			break
		}
		r.res.Restarts++
		r.randomise()
		if _, ok, err := r.evaluate(); err != nil || !ok {
			return r.finish(), err
		}
	}
	return r.finish(), nil
}

func (r *run) finish() Result {
	if r.res.Best == nil {
		r.res.Best = r.cur.Clone()
		r.res.Value = objective.Worst()
	}
	r.res.Success = r.res.Value.IsOptimal()
	return r.res
}

// evaluate scores the current candidate. ok is false once the budget is spent.
func (r *run) evaluate() (objective.Value, bool, error) {
	if r.res.Evaluations >= r.cfg.MaxEvaluations {
		return objective.Value{}, false, nil
	}
	r.res.Evaluations++
	v, err := r.fn(r.cur)
	if err != nil {
		return objective.Value{}, false, err
	}
	if r.Observer != nil {
		r.Observer(r.cur, v)
	}
	r.val = v
	if r.res.Best == nil || v.Less(r.res.Value) {
		r.res.Best = r.cur.Clone()
		r.res.Value = v
	}
	return v, true, nil
}

// try applies v to c and keeps it iff the objective strictly improves.
func (r *run) try(c cell, v data.Value) (bool, bool, error) {
	old, oldVal := c.row.At(c.idx), r.val
	if old.Equal(v) {
		return false, true, nil
	}
	c.row.Set(c.idx, v)
	nv, ok, err := r.evaluate()
	if err != nil || !ok {
		c.row.Set(c.idx, old)
		r.val = oldVal
		return false, ok, err
	}
	if nv.Less(oldVal) {
		return true, true, nil
	}
	c.row.Set(c.idx, old)
	r.val = oldVal
	return false, true, nil
}

func (r *run) optimiseCell(c cell) (bool, bool, error) {
	improved := false
	for {
		better, ok, err := r.nullMove(c)
		if err != nil || !ok {
			return improved, ok, err
		}
		if !better {
			better, ok, err = r.valueMoves(c)
			if err != nil || !ok {
				return improved || better, ok, err
			}
		}
		if !better || r.val.IsOptimal() {
			return improved || better, true, nil
		}
		improved = true
	}
}

func (r *run) nullMove(c cell) (bool, bool, error) {
	cur := c.row.At(c.idx)
	if cur.IsNull() {
		return r.try(c, r.randomValue(c.domain, false))
	}
	return r.try(c, data.Null(c.domain.Kind))
}

func (r *run) valueMoves(c cell) (bool, bool, error) {
	cur := c.row.At(c.idx)
	if cur.IsNull() {
		return false, true, nil
	}
	switch {
	case c.domain.Kind == data.KindBoolean:
		return r.try(c, data.Bool(!cur.Bool()))
	case c.domain.Kind.Numeric():
		return r.patternSearch(c, -1)
	default:
		improved := false
		for i := 0; i < c.row.At(c.idx).Len(); i++ {
			better, ok, err := r.patternSearch(c, i)
			if err != nil || !ok {
				return improved || better, ok, err
			}
			improved = improved || better
			if r.val.IsOptimal() {
				return true, true, nil
			}
		}
		if c.domain.Kind == data.KindString {
			better, ok, err := r.lengthMoves(c)
			return improved || better, ok, err
		}
		return improved, true, nil
	}
}

// patternSearch tries element i (or the scalar when i < 0) by ±1 and
// accelerates in an improving direction by doubling the step.
func (r *run) patternSearch(c cell, i int) (bool, bool, error) {
	improved := false
	for {
		moved := false
		for _, dir := range []int64{1, -1} {
			better, ok, err := r.step(c, i, dir)
			if err != nil || !ok {
				return improved || better, ok, err
			}
			if !better {
				continue
			}
			moved, improved = true, true
			for delta := dir * 2; ; delta *= 2 {
				better, ok, err = r.step(c, i, delta)
				if err != nil || !ok {
					return true, ok, err
				}
				if !better || r.val.IsOptimal() {
					break
				}
			}
			break
		}
		if !moved || r.val.IsOptimal() {
			return improved, true, nil
		}
	}
}

func (r *run) step(c cell, i int, delta int64) (bool, bool, error) {
	cur := c.row.At(c.idx)
	if i < 0 {
		next := util.ClampInt64(saturatingAdd(cur.Int(), delta), c.domain.Min, c.domain.Max)
		return r.try(c, cur.WithInt(next))
	}
	elems := cur.Elements()
	lo, hi := elementBounds(c.domain.Kind, elems, i)
	elems[i] = util.ClampInt64(saturatingAdd(elems[i], delta), lo, hi)
	fixCalendar(c.domain.Kind, elems)
	return r.try(c, cur.WithElements(elems))
}

func (r *run) lengthMoves(c cell) (bool, bool, error) {
	cur := c.row.At(c.idx)
	elems := cur.Elements()
	if len(elems) > 0 {
		better, ok, err := r.try(c, cur.WithElements(elems[:len(elems)-1]))
		if err != nil || !ok || better {
			return better, ok, err
		}
	}
	if len(elems) < c.domain.MaxLength {
		return r.try(c, cur.WithElements(append(elems, 'a')))
	}
	return false, true, nil
}

func saturatingAdd(a, b int64) int64 {
	s := a + b
	if b > 0 && s < a {
		return 1<<63 - 1
	}
	if b < 0 && s > a {
		return -1 << 63
	}
	return s
}
