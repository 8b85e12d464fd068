package search

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"schemata/internal/data"
	"schemata/internal/expr"
	"schemata/internal/objective"
	"schemata/internal/predicate"
	"schemata/internal/schema"
)

func personSchema() *schema.Schema {
	return &schema.Schema{
		Name: "people",
		Tables: []*schema.Table{{Name: "person", Columns: []schema.Column{
			{Name: "age", Type: schema.TypeInt, Range: &schema.Range{Min: 0, Max: 150}},
			{Name: "name", Type: schema.TypeVarchar, Length: 10},
			{Name: "born", Type: schema.TypeDate},
		}}},
		NotNulls: []*schema.NotNull{{Table: "person", Column: "age"}},
	}
}

func template() *data.Data {
	d := data.New()
	d.AddRow(data.NewRow("person", []string{"age", "name", "born"}, []data.Value{
		data.Null(data.KindNumeric), data.Null(data.KindString), data.Null(data.KindDate),
	}))
	return d
}

func requirement(e expr.Expr) objective.Function {
	return objective.Bind(predicate.Expression{Table: "person", Expr: e}, nil, objective.Satisfy, objective.NullFails)
}

func TestAgeAboveEighteen(t *testing.T) {
	cfg := Config{Seed: 11, MaxEvaluations: 1000, MaxRestarts: 5, NullProbability: 10}
	fn := requirement(expr.Compare(expr.Col("age"), expr.Greater, expr.Const(data.Int(18))))
	res, err := New(cfg, SchemaDomains(personSchema(), cfg)).Run(template(), fn)
	require.NoError(t, err)
	require.True(t, res.Success)
	age, _ := res.Best.Rows("person")[0].Value("age")
	require.False(t, age.IsNull())
	require.Greater(t, age.Int(), int64(18))
	require.LessOrEqual(t, age.Int(), int64(150))
	require.LessOrEqual(t, res.Evaluations, 1000)
}

func TestSameSeedSameTrace(t *testing.T) {
	cfg := Config{Seed: 3, MaxEvaluations: 400, MaxRestarts: 3, NullProbability: 20}
	fn := requirement(expr.AndExpr{Subs: []expr.Expr{
		expr.Compare(expr.Col("age"), expr.Equals, expr.Const(data.Int(77))),
		expr.Compare(expr.Col("name"), expr.Equals, expr.Const(data.Str("bob"))),
	}})
	trace := func() ([]string, Result) {
		var out []string
		s := New(cfg, SchemaDomains(personSchema(), cfg))
		s.Observer = func(c *data.Data, v objective.Value) {
			out = append(out, c.String()+"|"+v.String())
		}
		res, err := s.Run(template(), fn)
		require.NoError(t, err)
		return out, res
	}
	a, ra := trace()
	b, rb := trace()
	require.Equal(t, a, b)
	require.True(t, ra.Best.Equal(rb.Best))
	require.Equal(t, ra.Evaluations, rb.Evaluations)
	require.Equal(t, ra.Restarts, rb.Restarts)
}

func TestUnreachableGoalRespectsBudget(t *testing.T) {
	cfg := Config{Seed: 5, MaxEvaluations: 300, MaxRestarts: 4}
	fn := requirement(expr.Compare(expr.Col("age"), expr.Greater, expr.Const(data.Int(200))))
	count := 0
	s := New(cfg, SchemaDomains(personSchema(), cfg))
	s.Observer = func(*data.Data, objective.Value) { count++ }
	res, err := s.Run(template(), fn)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.NotNil(t, res.Best)
	require.Equal(t, count, res.Evaluations)
	require.LessOrEqual(t, res.Evaluations, 300)
	require.LessOrEqual(t, res.Restarts, 4)
	age, _ := res.Best.Rows("person")[0].Value("age")
	require.Equal(t, int64(150), age.Int())
}

func TestStringEquality(t *testing.T) {
	cfg := Config{Seed: 9, MaxEvaluations: 20000, MaxRestarts: 10}
	fn := requirement(expr.Compare(expr.Col("name"), expr.Equals, expr.Const(data.Str("Zed!"))))
	res, err := New(cfg, SchemaDomains(personSchema(), cfg)).Run(template(), fn)
	require.NoError(t, err)
	require.True(t, res.Success, "best %s", res.Value)
	name, _ := res.Best.Rows("person")[0].Value("name")
	require.Equal(t, "Zed!", name.Text())
}

func TestDateOrdering(t *testing.T) {
	cfg := Config{Seed: 21, MaxEvaluations: 5000, MaxRestarts: 10}
	fn := requirement(expr.Compare(expr.Col("born"), expr.Greater, expr.Const(data.Date(2030, 6, 15))))
	res, err := New(cfg, SchemaDomains(personSchema(), cfg)).Run(template(), fn)
	require.NoError(t, err)
	require.True(t, res.Success, "best %s", res.Value)
	born, _ := res.Best.Rows("person")[0].Value("born")
	elems := born.Elements()
	require.LessOrEqual(t, elems[2], int64(31))
}

func TestObjectiveErrorStopsSearch(t *testing.T) {
	cfg := Config{Seed: 1, MaxEvaluations: 100}
	fn := requirement(expr.Compare(expr.Col("age"), expr.Equals, expr.Const(data.Str("x"))))
	_, err := New(cfg, SchemaDomains(personSchema(), cfg)).Run(template(), fn)
	var oe *objective.Error
	require.True(t, errors.As(err, &oe))
}

func TestTemplateIsNotModified(t *testing.T) {
	cfg := Config{Seed: 1, MaxEvaluations: 50}
	tpl := template()
	fn := requirement(expr.Compare(expr.Col("age"), expr.Greater, expr.Const(data.Int(18))))
	_, err := New(cfg, SchemaDomains(personSchema(), cfg)).Run(tpl, fn)
	require.NoError(t, err)
	age, _ := tpl.Rows("person")[0].Value("age")
	require.True(t, age.IsNull())
}

func TestSchemaDomainsLibrary(t *testing.T) {
	s := personSchema()
	s.Checks = append(s.Checks, &schema.Check{Table: "person", Expr: expr.Compare(expr.Col("age"), expr.Less, expr.Const(data.Int(99)))})
	d := SchemaDomains(s, Config{NullProbability: 30})("person", "age")
	require.Equal(t, data.KindNumeric, d.Kind)
	require.Equal(t, int64(0), d.Min)
	require.Equal(t, int64(150), d.Max)
	require.Zero(t, d.NullChance)
	require.Len(t, d.Library, 1)
	n := SchemaDomains(s, Config{NullProbability: 30})("person", "name")
	require.Equal(t, 30, n.NullChance)
	require.Equal(t, 10, n.MaxLength)
}
