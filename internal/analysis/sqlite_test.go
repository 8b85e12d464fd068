package analysis

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"schemata/internal/data"
	"schemata/internal/db"
	"schemata/internal/expr"
	"schemata/internal/schema"
	"schemata/internal/sqlwriter"
	"schemata/internal/testgen"
)

func openSQLite(t *testing.T) *db.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schemata.sqlite")
	d, err := db.Open("sqlite", "file:"+path+"?_foreign_keys=on&_busy_timeout=5000")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func TestNotNullAndCheckMutantsOnSQLite(t *testing.T) {
	for _, technique := range []string{TechniqueSchemata, TechniqueJustInTime} {
		t.Run(technique, func(t *testing.T) {
			d := openSQLite(t)
			engine := New(Config{Technique: technique, Workers: 1}, d)
			res, err := engine.Analyse(context.Background(), tSchema(),
				mutants(withoutNotNull(), withCheck(expr.NotEquals)), oneInsertSuite())
			require.NoError(t, err)

			require.Equal(t, []StatementResult{{Count: 1}}, res.Original())
			verdicts := res.Verdicts()
			require.Len(t, verdicts, 2)
			require.Equal(t, Alive, verdicts[0].Status)
			require.Equal(t, []StatementResult{{Count: 1}}, verdicts[0].Results)
			require.Equal(t, Killed, verdicts[1].Status)
			require.True(t, verdicts[1].Results[0].Failed)
			require.Equal(t, 0.5, res.Score())

			// Every table is gone afterwards.
			_, err = d.ExecuteUpdate(context.Background(), "INSERT INTO mutant_1_T VALUES (1)")
			require.Error(t, err)
		})
	}
}

func backslashSchema() *schema.Schema {
	return &schema.Schema{
		Name:   "b",
		Tables: []*schema.Table{{Name: "T", Columns: []schema.Column{{Name: "s", Type: schema.TypeVarchar, Length: 10}}}},
		Checks: []*schema.Check{{Table: "T", Expr: expr.Compare(expr.Col("s"), expr.NotEquals, expr.Const(data.Str(`a\b`)))}},
	}
}

func TestIdenticalMutantWithBackslashStaysAlive(t *testing.T) {
	for _, technique := range []string{TechniqueSchemata, TechniqueJustInTime} {
		t.Run(technique, func(t *testing.T) {
			d := openSQLite(t)
			suite := &testgen.TestSuite{
				Schema: backslashSchema(),
				Cases:  []*testgen.TestCase{{Success: true}, {Success: true}},
				Inserts: []testgen.Insert{
					{Case: 0, Table: "T", SQL: "INSERT INTO T (s) VALUES (" + sqlwriter.Literal(data.Str(`a\b`)) + ")"},
					{Case: 1, Table: "T", SQL: "INSERT INTO T (s) VALUES (" + sqlwriter.Literal(data.Str(`x\\y`)) + ")"},
				},
			}
			res, err := New(Config{Technique: technique, Workers: 1}, d).
				Analyse(context.Background(), backslashSchema(), mutants(backslashSchema()), suite)
			require.NoError(t, err)

			require.True(t, res.Original()[0].Failed)
			require.Equal(t, StatementResult{Count: 1}, res.Original()[1])
			verdicts := res.Verdicts()
			require.Len(t, verdicts, 1)
			require.Equal(t, Alive, verdicts[0].Status)
			require.Equal(t, res.Original(), verdicts[0].Results)
		})
	}
}
