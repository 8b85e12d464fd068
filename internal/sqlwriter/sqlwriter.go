// Package sqlwriter renders schema and data as MySQL-dialect SQL statements.
package sqlwriter

import (
	"fmt"
	"strings"
	"time"

	"schemata/internal/data"
	"schemata/internal/expr"
	"schemata/internal/schema"
)

// CreateTableStatements returns CREATE TABLE statements in dependency order.
func CreateTableStatements(s *schema.Schema) []string {
	tables := s.DependencyOrder()
	out := make([]string, 0, len(tables))
	for _, t := range tables {
		out = append(out, CreateTable(s, t))
	}
	return out
}

// DropTableStatements returns DROP TABLE statements, dependents first.
func DropTableStatements(s *schema.Schema) []string {
	tables := s.DependencyOrder()
	out := make([]string, 0, len(tables))
	for i := len(tables) - 1; i >= 0; i-- {
		out = append(out, "DROP TABLE IF EXISTS "+tables[i].Name)
	}
	return out
}

// DeleteStatements empties every table, dependents first.
func DeleteStatements(s *schema.Schema) []string {
	tables := s.DependencyOrder()
	out := make([]string, 0, len(tables))
	for i := len(tables) - 1; i >= 0; i-- {
		out = append(out, "DELETE FROM "+tables[i].Name)
	}
	return out
}

// CreateTable renders one table with its constraints. CHECK and FOREIGN KEY
// constraints are left unnamed: their names are schema-wide in MySQL and
// mutants of one schema share a database.
func CreateTable(s *schema.Schema, t *schema.Table) string {
	var parts []string
	for _, col := range t.Columns {
		def := col.Name + " " + col.SQLType()
		for _, nn := range s.NotNullsOf(t.Name) {
			if strings.EqualFold(nn.Column, col.Name) {
				def += " NOT NULL"
				break
			}
		}
		parts = append(parts, def)
	}
	if pk := s.PrimaryKeyOf(t.Name); pk != nil {
		parts = append(parts, named(pk.Name, "PRIMARY KEY ("+strings.Join(pk.Columns, ", ")+")"))
	}
	for _, u := range s.UniquesOf(t.Name) {
		parts = append(parts, named(u.Name, "UNIQUE ("+strings.Join(u.Columns, ", ")+")"))
	}
	for _, fk := range s.ForeignKeysOf(t.Name) {
		parts = append(parts, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			strings.Join(fk.Columns, ", "), fk.RefTable, strings.Join(fk.RefColumns, ", ")))
	}
	for _, c := range s.ChecksOf(t.Name) {
		parts = append(parts, "CHECK ("+Expression(c.Expr)+")")
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", t.Name, strings.Join(parts, ", "))
}

func named(name, body string) string {
	if name == "" {
		return body
	}
	return "CONSTRAINT " + name + " " + body
}

// InsertStatement renders a row as a single-row INSERT.
func InsertStatement(row *data.Row) string {
	vals := make([]string, row.Len())
	for i := range vals {
		vals[i] = Literal(row.At(i))
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		row.Table(), strings.Join(row.Columns(), ", "), strings.Join(vals, ", "))
}

// Literal renders a value as a SQL literal.
func Literal(v data.Value) string {
	if v.IsNull() {
		return "NULL"
	}
	switch v.Kind() {
	case data.KindBoolean, data.KindNumeric:
		return v.Text()
	case data.KindTimestamp:
		return quote(time.Unix(v.Int(), 0).UTC().Format(time.DateTime))
	default:
		return quote(v.Text())
	}
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `''`)
	return "'" + s + "'"
}

// Expression renders an expression tree as SQL.
func Expression(e expr.Expr) string {
	switch x := e.(type) {
	case expr.ColumnExpr:
		return x.Name
	case expr.ConstantExpr:
		return Literal(x.Value)
	case expr.RelationalExpr:
		return Expression(x.LHS) + " " + x.Op.String() + " " + Expression(x.RHS)
	case expr.AndExpr:
		return join(x.Subs, " AND ")
	case expr.OrExpr:
		return join(x.Subs, " OR ")
	case expr.NotExpr:
		return "NOT (" + Expression(x.Sub) + ")"
	case expr.ParenExpr:
		return "(" + Expression(x.Sub) + ")"
	case expr.BetweenExpr:
		kw := " BETWEEN "
		if x.Not {
			kw = " NOT BETWEEN "
		}
		return Expression(x.Subject) + kw + Expression(x.Low) + " AND " + Expression(x.High)
	case expr.InExpr:
		kw := " IN ("
		if x.Not {
			kw = " NOT IN ("
		}
		items := make([]string, len(x.List))
		for i, item := range x.List {
			items[i] = Expression(item)
		}
		return Expression(x.LHS) + kw + strings.Join(items, ", ") + ")"
	case expr.NullExpr:
		if x.Not {
			return Expression(x.Sub) + " IS NOT NULL"
		}
		return Expression(x.Sub) + " IS NULL"
	default:
		return ""
	}
}

func join(subs []expr.Expr, sep string) string {
	parts := make([]string, len(subs))
	for i, s := range subs {
		parts[i] = Expression(s)
	}
	return "(" + strings.Join(parts, sep) + ")"
}
