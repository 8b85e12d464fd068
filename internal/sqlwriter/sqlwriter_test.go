package sqlwriter

import (
	"testing"

	"schemata/internal/data"
	"schemata/internal/expr"
	"schemata/internal/schema"
)

func shop() *schema.Schema {
	return &schema.Schema{
		Tables: []*schema.Table{
			{Name: "orders", Columns: []schema.Column{{Name: "id", Type: schema.TypeInt}, {Name: "cust", Type: schema.TypeInt}}},
			{Name: "customers", Columns: []schema.Column{{Name: "id", Type: schema.TypeInt}, {Name: "name", Type: schema.TypeVarchar, Length: 20}}},
		},
		PrimaryKeys: []*schema.PrimaryKey{{Name: "pk_customers", Table: "customers", Columns: []string{"id"}}},
		ForeignKeys: []*schema.ForeignKey{{Name: "fk_orders", Table: "orders", Columns: []string{"cust"}, RefTable: "customers", RefColumns: []string{"id"}}},
		Checks: []*schema.Check{{Name: "ck_id", Table: "orders", Expr: expr.BetweenExpr{
			Subject: expr.Col("id"), Low: expr.Const(data.Int(1)), High: expr.Const(data.Int(9)),
		}}},
		NotNulls: []*schema.NotNull{{Table: "customers", Column: "name"}},
		Uniques:  []*schema.Unique{{Name: "uq_name", Table: "customers", Columns: []string{"name"}}},
	}
}

func TestCreateTableStatements(t *testing.T) {
	got := CreateTableStatements(shop())
	want := []string{
		"CREATE TABLE customers (id INT, name VARCHAR(20) NOT NULL, CONSTRAINT pk_customers PRIMARY KEY (id), CONSTRAINT uq_name UNIQUE (name))",
		"CREATE TABLE orders (id INT, cust INT, FOREIGN KEY (cust) REFERENCES customers (id), CHECK (id BETWEEN 1 AND 9))",
	}
	if len(got) != len(want) {
		t.Fatalf("len=%d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("statement %d:\n got %s\nwant %s", i, got[i], want[i])
		}
	}
}

func TestDropAndDeleteOrder(t *testing.T) {
	drops := DropTableStatements(shop())
	if drops[0] != "DROP TABLE IF EXISTS orders" || drops[1] != "DROP TABLE IF EXISTS customers" {
		t.Fatalf("DropTableStatements()=%v", drops)
	}
	deletes := DeleteStatements(shop())
	if deletes[0] != "DELETE FROM orders" {
		t.Fatalf("DeleteStatements()=%v", deletes)
	}
}

func TestInsertStatement(t *testing.T) {
	row := data.NewRow("customers", []string{"id", "name", "since", "vip", "seen"}, []data.Value{
		data.Int(-3), data.Str(`O'Br\en`), data.Date(2024, 2, 29), data.Null(data.KindBoolean), data.Timestamp(86400),
	})
	want := `INSERT INTO customers (id, name, since, vip, seen) VALUES (-3, 'O''Br\\en', '2024-02-29', NULL, '1970-01-02 00:00:00')`
	if got := InsertStatement(row); got != want {
		t.Fatalf("InsertStatement()=\n%s\nwant\n%s", got, want)
	}
}

func TestExpression(t *testing.T) {
	e := expr.OrExpr{Subs: []expr.Expr{
		expr.InExpr{LHS: expr.Col("k"), List: []expr.Expr{expr.Const(data.Str("a")), expr.Const(data.Str("b"))}, Not: true},
		expr.NullExpr{Sub: expr.Col("k")},
		expr.NotExpr{Sub: expr.Compare(expr.Col("n"), expr.LessOrEquals, expr.Const(data.Int(2)))},
	}}
	want := "(k NOT IN ('a', 'b') OR k IS NULL OR NOT (n <= 2))"
	if got := Expression(e); got != want {
		t.Fatalf("Expression()=%q, want %q", got, want)
	}
}
