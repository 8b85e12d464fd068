package equivalence

import (
	"testing"

	"github.com/stretchr/testify/require"

	"schemata/internal/data"
	"schemata/internal/expr"
	"schemata/internal/mutation"
	"schemata/internal/schema"
)

func accounts() *schema.Schema {
	return &schema.Schema{
		Name: "accounts",
		Tables: []*schema.Table{
			{Name: "owner", Columns: []schema.Column{{Name: "id", Type: schema.TypeInt}, {Name: "name", Type: schema.TypeVarchar, Length: 30}}},
			{Name: "account", Columns: []schema.Column{{Name: "id", Type: schema.TypeInt}, {Name: "owner_id", Type: schema.TypeInt}, {Name: "balance", Type: schema.TypeInt}}},
		},
		PrimaryKeys: []*schema.PrimaryKey{
			{Name: "pk_owner", Table: "owner", Columns: []string{"id"}},
			{Name: "pk_account", Table: "account", Columns: []string{"id"}},
		},
		ForeignKeys: []*schema.ForeignKey{{Table: "account", Columns: []string{"owner_id"}, RefTable: "owner", RefColumns: []string{"id"}}},
		Checks:      []*schema.Check{{Name: "ck_balance", Table: "account", Expr: expr.Compare(expr.Col("balance"), expr.GreaterOrEquals, expr.Const(data.Int(0)))}},
		NotNulls:    []*schema.NotNull{{Table: "owner", Column: "name"}},
	}
}

func TestSchemaCheckerReflexiveAndSymmetric(t *testing.T) {
	c := NewSchemaChecker(Options{})
	s := accounts()
	require.True(t, c.Equivalent(s, s))
	require.True(t, c.Equivalent(s, s.Clone()))

	mutants, err := mutation.Generate(s)
	require.NoError(t, err)
	for _, a := range mutants {
		require.True(t, c.Equivalent(a.Artefact, a.Artefact))
		for _, b := range mutants {
			require.Equal(t, c.Equivalent(a.Artefact, b.Artefact), c.Equivalent(b.Artefact, a.Artefact),
				"mutants %d and %d", a.ID, b.ID)
		}
	}
}

func TestConstraintOrderIgnored(t *testing.T) {
	a := accounts()
	b := accounts()
	b.PrimaryKeys[0], b.PrimaryKeys[1] = b.PrimaryKeys[1], b.PrimaryKeys[0]
	b.Tables[0], b.Tables[1] = b.Tables[1], b.Tables[0]
	require.True(t, NewSchemaChecker(Options{}).Equivalent(a, b))
}

func TestConstraintNames(t *testing.T) {
	a := accounts()
	b := accounts()
	b.Checks[0].Name = "ck_other"
	require.True(t, NewSchemaChecker(Options{}).Equivalent(a, b))
	require.False(t, NewSchemaChecker(Options{CompareNames: true}).Equivalent(a, b))
}

func TestStructuralDifference(t *testing.T) {
	a := accounts()
	b := accounts()
	b.Checks[0] = &schema.Check{Name: "ck_balance", Table: "account",
		Expr: expr.Compare(expr.Col("balance"), expr.Greater, expr.Const(data.Int(0)))}
	require.False(t, NewSchemaChecker(Options{}).Equivalent(a, b))

	c := accounts()
	c.Tables[1].Columns[2].Type = schema.TypeBigInt
	require.False(t, NewSchemaChecker(Options{}).Equivalent(a, c))
}

func TestForeignKeyPairs(t *testing.T) {
	fk := ForeignKeys(Options{})
	a := &schema.ForeignKey{Table: "t", Columns: []string{"a", "b"}, RefTable: "r", RefColumns: []string{"x", "y"}}
	swapped := &schema.ForeignKey{Table: "t", Columns: []string{"b", "a"}, RefTable: "r", RefColumns: []string{"y", "x"}}
	crossed := &schema.ForeignKey{Table: "t", Columns: []string{"a", "b"}, RefTable: "r", RefColumns: []string{"y", "x"}}
	require.True(t, fk.Equivalent(a, swapped))
	require.False(t, fk.Equivalent(a, crossed))
}

func TestReduce(t *testing.T) {
	s := accounts()
	renamed := s.Clone()
	renamed.PrimaryKeys[0].Name = "owner_key"
	noCheck := s.Clone()
	noCheck.Checks = nil
	noCheckAgain := s.Clone()
	noCheckAgain.Checks = nil
	renamedAgain := s.Clone()
	renamedAgain.PrimaryKeys[1].Name = "account_key"

	mutants := []mutation.Mutant[*schema.Schema]{
		{ID: 1, Artefact: renamed, Operator: "rename"},
		{ID: 2, Artefact: noCheck, Operator: "CCR"},
		{ID: 3, Artefact: renamedAgain, Operator: "rename"},
		{ID: 4, Artefact: noCheckAgain, Operator: "CCR"},
	}
	c := NewSchemaChecker(Options{})

	r := Reduce[*schema.Schema](c, s, mutants, ReduceOptions{RemoveEquivalent: true, RemoveRedundant: true})
	require.Equal(t, []int{2}, ids(r.Retained))
	require.Equal(t, []int{1, 3}, ids(r.Equivalent))
	require.Equal(t, []int{4}, ids(r.Redundant))

	r = Reduce[*schema.Schema](c, s, mutants, ReduceOptions{})
	require.Equal(t, []int{1, 2, 3, 4}, ids(r.Retained))
	require.Empty(t, r.Equivalent)
	require.Empty(t, r.Redundant)
}

func ids(ms []mutation.Mutant[*schema.Schema]) []int {
	out := make([]int, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}
