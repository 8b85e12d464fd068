package schema

import (
	"testing"

	"schemata/internal/data"
	"schemata/internal/expr"
)

func sampleSchema() *Schema {
	return &Schema{
		Name: "shop",
		Tables: []*Table{
			{Name: "orders", Columns: []Column{{Name: "id", Type: TypeInt}, {Name: "cust", Type: TypeInt}}},
			{Name: "customers", Columns: []Column{{Name: "id", Type: TypeInt}, {Name: "name", Type: TypeVarchar, Length: 20}}},
		},
		PrimaryKeys: []*PrimaryKey{{Name: "pk_c", Table: "customers", Columns: []string{"id"}}},
		ForeignKeys: []*ForeignKey{{Name: "fk_o", Table: "orders", Columns: []string{"cust"}, RefTable: "customers", RefColumns: []string{"id"}}},
		Checks:      []*Check{{Name: "ck", Table: "orders", Expr: expr.Compare(expr.Col("id"), expr.Greater, expr.Const(data.Int(0)))}},
		NotNulls:    []*NotNull{{Table: "customers", Column: "name"}},
	}
}

func TestDependencyOrder(t *testing.T) {
	order := sampleSchema().DependencyOrder()
	if len(order) != 2 || order[0].Name != "customers" || order[1].Name != "orders" {
		t.Fatalf("DependencyOrder()=%v", names(order))
	}
}

func TestDependencyOrderCycle(t *testing.T) {
	s := sampleSchema()
	s.ForeignKeys = append(s.ForeignKeys, &ForeignKey{Table: "customers", Columns: []string{"id"}, RefTable: "orders", RefColumns: []string{"id"}})
	if got := len(s.DependencyOrder()); got != 2 {
		t.Fatalf("len(DependencyOrder())=%d, want 2", got)
	}
}

func TestWithTablePrefixKeepsOriginal(t *testing.T) {
	s := sampleSchema()
	m := s.WithTablePrefix("mutant_3_")
	if s.Tables[0].Name != "orders" || s.ForeignKeys[0].RefTable != "customers" {
		t.Fatalf("original mutated: %s %s", s.Tables[0].Name, s.ForeignKeys[0].RefTable)
	}
	if m.Tables[0].Name != "mutant_3_orders" {
		t.Fatalf("prefixed table=%s", m.Tables[0].Name)
	}
	fk := m.ForeignKeys[0]
	if fk.Table != "mutant_3_orders" || fk.RefTable != "mutant_3_customers" || fk.Columns[0] != "cust" {
		t.Fatalf("prefixed fk=%+v", fk)
	}
	if m.Checks[0].Name != "ck" || m.NotNulls[0].Table != "mutant_3_customers" {
		t.Fatalf("prefixed constraints=%+v %+v", m.Checks[0], m.NotNulls[0])
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate()=%v", err)
	}
}

func TestValidate(t *testing.T) {
	s := sampleSchema()
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate()=%v", err)
	}
	s.Uniques = append(s.Uniques, &Unique{Table: "orders", Columns: []string{"missing"}})
	if err := s.Validate(); err == nil {
		t.Fatalf("Validate() accepted unknown column")
	}
}

func TestIsNotNull(t *testing.T) {
	s := sampleSchema()
	cases := []struct {
		table, column string
		want          bool
	}{
		{"customers", "name", true},
		{"customers", "id", true},
		{"orders", "cust", false},
	}
	for _, c := range cases {
		if got := s.IsNotNull(c.table, c.column); got != c.want {
			t.Fatalf("IsNotNull(%s, %s)=%v, want %v", c.table, c.column, got, c.want)
		}
	}
}

func TestAncestors(t *testing.T) {
	got := sampleSchema().Ancestors("orders")
	if len(got) != 1 || got[0].Name != "customers" {
		t.Fatalf("Ancestors(orders)=%v", names(got))
	}
}

func TestColumnKinds(t *testing.T) {
	cases := []struct {
		typ  ColumnType
		want data.Kind
	}{
		{TypeInt, data.KindNumeric},
		{TypeVarchar, data.KindString},
		{TypeDate, data.KindDate},
		{TypeTimestamp, data.KindTimestamp},
		{TypeBool, data.KindBoolean},
	}
	for _, c := range cases {
		if got := c.typ.Kind(); got != c.want {
			t.Fatalf("Kind(%d)=%v, want %v", c.typ, got, c.want)
		}
	}
}

func names(tables []*Table) []string {
	out := make([]string, len(tables))
	for i, t := range tables {
		out[i] = t.Name
	}
	return out
}
