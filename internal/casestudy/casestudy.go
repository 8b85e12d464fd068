// Package casestudy holds the built-in schemas a run can target.
package casestudy

import (
	"sort"
	"strings"

	"github.com/pkg/errors"

	"schemata/internal/data"
	"schemata/internal/expr"
	"schemata/internal/schema"
)

var registry = map[string]func() *schema.Schema{
	"inventory":   Inventory,
	"bankaccount": BankAccount,
	"booking":     Booking,
}

// Names lists the registered schemas.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Lookup builds a fresh copy of the named schema.
func Lookup(name string) (*schema.Schema, error) {
	build, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.Errorf("unknown schema %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	s := build()
	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "schema %s", name)
	}
	return s, nil
}

// Inventory is a single product table.
func Inventory() *schema.Schema {
	return &schema.Schema{
		Name: "inventory",
		Tables: []*schema.Table{{Name: "Inventory", Columns: []schema.Column{
			{Name: "id", Type: schema.TypeInt, Range: &schema.Range{Min: 1, Max: 10000}},
			{Name: "product", Type: schema.TypeVarchar, Length: 50},
			{Name: "quantity", Type: schema.TypeInt},
			{Name: "price", Type: schema.TypeDecimal},
		}}},
		PrimaryKeys: []*schema.PrimaryKey{{Name: "inventory_pk", Table: "Inventory", Columns: []string{"id"}}},
		Uniques:     []*schema.Unique{{Name: "inventory_product", Table: "Inventory", Columns: []string{"product"}}},
		Checks: []*schema.Check{
			{Table: "Inventory", Expr: ge("quantity", 0)},
			{Table: "Inventory", Expr: ge("price", 0)},
		},
	}
}

// BankAccount links accounts to card holders by user name.
func BankAccount() *schema.Schema {
	return &schema.Schema{
		Name: "bankaccount",
		Tables: []*schema.Table{
			{Name: "UserInfo", Columns: []schema.Column{
				{Name: "card_number", Type: schema.TypeInt, Range: &schema.Range{Min: 1, Max: 99999}},
				{Name: "pin_number", Type: schema.TypeInt, Range: &schema.Range{Min: 0, Max: 9999}},
				{Name: "user_name", Type: schema.TypeVarchar, Length: 50},
				{Name: "acct_lock", Type: schema.TypeInt},
			}},
			{Name: "Account", Columns: []schema.Column{
				{Name: "id", Type: schema.TypeInt, Range: &schema.Range{Min: 1, Max: 99999}},
				{Name: "account_name", Type: schema.TypeVarchar, Length: 50},
				{Name: "user_name", Type: schema.TypeVarchar, Length: 50},
				{Name: "balance", Type: schema.TypeInt},
				{Name: "current_balance", Type: schema.TypeInt},
			}},
		},
		PrimaryKeys: []*schema.PrimaryKey{
			{Name: "userinfo_pk", Table: "UserInfo", Columns: []string{"card_number"}},
			{Name: "account_pk", Table: "Account", Columns: []string{"id"}},
		},
		ForeignKeys: []*schema.ForeignKey{{
			Name:       "UserNameForeignKey",
			Table:      "Account",
			Columns:    []string{"user_name"},
			RefTable:   "UserInfo",
			RefColumns: []string{"user_name"},
		}},
		Uniques: []*schema.Unique{{Name: "userinfo_user_name", Table: "UserInfo", Columns: []string{"user_name"}}},
		NotNulls: []*schema.NotNull{
			{Table: "UserInfo", Column: "pin_number"},
			{Table: "UserInfo", Column: "user_name"},
			{Table: "Account", Column: "account_name"},
			{Table: "Account", Column: "user_name"},
		},
	}
}

// Booking exercises date, timestamp and boolean columns.
func Booking() *schema.Schema {
	return &schema.Schema{
		Name: "booking",
		Tables: []*schema.Table{
			{Name: "Room", Columns: []schema.Column{
				{Name: "number", Type: schema.TypeSmallInt, Range: &schema.Range{Min: 1, Max: 500}},
				{Name: "beds", Type: schema.TypeSmallInt, Range: &schema.Range{Min: 0, Max: 10}},
			}},
			{Name: "Booking", Columns: []schema.Column{
				{Name: "id", Type: schema.TypeBigInt, Range: &schema.Range{Min: 1, Max: 1000000}},
				{Name: "room", Type: schema.TypeSmallInt, Range: &schema.Range{Min: 1, Max: 500}},
				{Name: "guest", Type: schema.TypeVarchar, Length: 30},
				{Name: "arrival", Type: schema.TypeDate},
				{Name: "departure", Type: schema.TypeDate},
				{Name: "created", Type: schema.TypeTimestamp},
				{Name: "paid", Type: schema.TypeBool},
			}},
		},
		PrimaryKeys: []*schema.PrimaryKey{
			{Name: "room_pk", Table: "Room", Columns: []string{"number"}},
			{Name: "booking_pk", Table: "Booking", Columns: []string{"id"}},
		},
		ForeignKeys: []*schema.ForeignKey{{Table: "Booking", Columns: []string{"room"}, RefTable: "Room", RefColumns: []string{"number"}}},
		Checks: []*schema.Check{
			{Table: "Room", Expr: expr.BetweenExpr{Subject: expr.Col("beds"), Low: expr.Const(data.Int(1)), High: expr.Const(data.Int(4))}},
			{Table: "Booking", Expr: expr.Compare(expr.Col("departure"), expr.Greater, expr.Col("arrival"))},
		},
		NotNulls: []*schema.NotNull{
			{Table: "Booking", Column: "guest"},
			{Table: "Booking", Column: "arrival"},
			{Table: "Booking", Column: "departure"},
		},
	}
}

func ge(column string, n int64) expr.Expr {
	return expr.Compare(expr.Col(column), expr.GreaterOrEquals, expr.Const(data.Int(n)))
}
