package mutation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"schemata/internal/data"
	"schemata/internal/expr"
	"schemata/internal/schema"
)

func personSchema() *schema.Schema {
	return &schema.Schema{
		Name: "person",
		Tables: []*schema.Table{{
			Name: "person",
			Columns: []schema.Column{
				{Name: "id", Type: schema.TypeInt},
				{Name: "name", Type: schema.TypeVarchar, Length: 20},
				{Name: "age", Type: schema.TypeInt},
			},
		}},
		PrimaryKeys: []*schema.PrimaryKey{{Name: "pk_person", Table: "person", Columns: []string{"id"}}},
		Checks: []*schema.Check{{Table: "person", Expr: expr.Compare(expr.Col("age"), expr.Greater, expr.Const(data.Int(18)))}},
		NotNulls: []*schema.NotNull{{Table: "person", Column: "name"}},
	}
}

func TestGenerateNumbersFromOne(t *testing.T) {
	s := personSchema()
	mutants, err := Generate(s)
	require.NoError(t, err)
	require.NotEmpty(t, mutants)
	for i, m := range mutants {
		require.Equal(t, i+1, m.ID)
		require.NotSame(t, s, m.Artefact)
	}
	require.Equal(t, "mutant_3_", mutants[2].Prefix())
}

func TestGenerateLeavesOriginalUntouched(t *testing.T) {
	s := personSchema()
	before := s.Clone()
	_, err := Generate(s)
	require.NoError(t, err)
	require.Equal(t, before, s)
}

func TestCheckRemoval(t *testing.T) {
	mutants, err := Generate(personSchema(), "CCR")
	require.NoError(t, err)
	require.Len(t, mutants, 1)
	require.Empty(t, mutants[0].Artefact.Checks)
	require.Equal(t, "CCR", mutants[0].Operator)
}

func TestCheckRelationalReplacement(t *testing.T) {
	mutants, err := Generate(personSchema(), "CROR")
	require.NoError(t, err)
	// One relational node, five alternative operators.
	require.Len(t, mutants, 5)
	seen := map[expr.Op]bool{}
	for _, m := range mutants {
		rel := m.Artefact.Checks[0].Expr.(expr.RelationalExpr)
		require.NotEqual(t, expr.Greater, rel.Op)
		seen[rel.Op] = true
	}
	require.Len(t, seen, 5)
}

func TestNotNullOperators(t *testing.T) {
	added, err := Generate(personSchema(), "NNCA")
	require.NoError(t, err)
	// id is covered by the primary key, name already NOT NULL.
	require.Len(t, added, 1)
	require.True(t, added[0].Artefact.IsNotNull("person", "age"))

	removed, err := Generate(personSchema(), "nncr")
	require.NoError(t, err)
	require.Len(t, removed, 1)
	require.Empty(t, removed[0].Artefact.NotNulls)
}

func TestUniqueAdditionSkipsKeyColumn(t *testing.T) {
	mutants, err := Generate(personSchema(), "UCA")
	require.NoError(t, err)
	require.Len(t, mutants, 2)
	require.Equal(t, []string{"name"}, mutants[0].Artefact.Uniques[0].Columns)
	require.Equal(t, []string{"age"}, mutants[1].Artefact.Uniques[0].Columns)
}

func TestPrimaryKeyOperators(t *testing.T) {
	added, err := Generate(personSchema(), "PKCA")
	require.NoError(t, err)
	require.Len(t, added, 2)
	require.Equal(t, []string{"id", "name"}, added[0].Artefact.PrimaryKeys[0].Columns)

	removed, err := Generate(personSchema(), "PKCR")
	require.NoError(t, err)
	require.Len(t, removed, 1)
	require.Empty(t, removed[0].Artefact.PrimaryKeys)
}

func TestUnknownOperator(t *testing.T) {
	_, err := Generate(personSchema(), "NOPE")
	require.Error(t, err)
	require.Contains(t, err.Error(), "NOPE")
}
