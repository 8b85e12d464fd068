// Package schema defines the relational schema model and helpers over it.
package schema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"schemata/internal/data"
	"schemata/internal/expr"
)

// ColumnType enumerates column data types.
type ColumnType int

// Column type constants.
const (
	TypeInt ColumnType = iota
	TypeBigInt
	TypeSmallInt
	TypeDecimal
	TypeVarchar
	TypeChar
	TypeDate
	TypeTime
	TypeDatetime
	TypeTimestamp
	TypeBool
)

// Range bounds the values a numeric column may take during generation.
type Range struct {
	Min int64
	Max int64
}

// Column describes a table column.
type Column struct {
	Name   string
	Type   ColumnType
	Length int
	Range  *Range
}

// Table describes a database table.
type Table struct {
	Name    string
	Columns []Column
}

// PrimaryKey is a PRIMARY KEY constraint.
type PrimaryKey struct {
	Name    string
	Table   string
	Columns []string
}

// ForeignKey is a (potentially multi-column) FOREIGN KEY constraint.
type ForeignKey struct {
	Name       string
	Table      string
	Columns    []string
	RefTable   string
	RefColumns []string
}

// Unique is a UNIQUE constraint.
type Unique struct {
	Name    string
	Table   string
	Columns []string
}

// Check is a CHECK constraint.
type Check struct {
	Name  string
	Table string
	Expr  expr.Expr
}

// NotNull is a NOT NULL constraint on one column.
type NotNull struct {
	Name   string
	Table  string
	Column string
}

// Schema is a set of tables and the constraints over them.
type Schema struct {
	Name        string
	Tables      []*Table
	PrimaryKeys []*PrimaryKey
	ForeignKeys []*ForeignKey
	Uniques     []*Unique
	Checks      []*Check
	NotNulls    []*NotNull
}

// Kind maps the column type onto the value kind used for generation.
func (t ColumnType) Kind() data.Kind {
	switch t {
	case TypeVarchar, TypeChar:
		return data.KindString
	case TypeDate:
		return data.KindDate
	case TypeTime:
		return data.KindTime
	case TypeDatetime:
		return data.KindDateTime
	case TypeTimestamp:
		return data.KindTimestamp
	case TypeBool:
		return data.KindBoolean
	default:
		return data.KindNumeric
	}
}

// SQLType returns the SQL type string for this column.
func (c Column) SQLType() string {
	switch c.Type {
	case TypeInt:
		return "INT"
	case TypeBigInt:
		return "BIGINT"
	case TypeSmallInt:
		return "SMALLINT"
	case TypeDecimal:
		return "DECIMAL(12,0)"
	case TypeVarchar:
		return fmt.Sprintf("VARCHAR(%d)", c.MaxLength())
	case TypeChar:
		return fmt.Sprintf("CHAR(%d)", c.MaxLength())
	case TypeDate:
		return "DATE"
	case TypeTime:
		return "TIME"
	case TypeDatetime:
		return "DATETIME"
	case TypeTimestamp:
		return "TIMESTAMP"
	case TypeBool:
		return "BOOLEAN"
	default:
		return "INT"
	}
}

// MaxLength returns the character limit of string columns.
func (c Column) MaxLength() int {
	if c.Length > 0 {
		return c.Length
	}
	return 64
}

// ColumnByName returns a column by name if present.
func (t *Table) ColumnByName(name string) (Column, bool) {
	for _, col := range t.Columns {
		if strings.EqualFold(col.Name, name) {
			return col, true
		}
	}
	return Column{}, false
}

// ColumnNames lists the column names in order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		out[i] = col.Name
	}
	return out
}

// TableByName returns a table by name if present.
func (s *Schema) TableByName(name string) (*Table, bool) {
	for _, tbl := range s.Tables {
		if strings.EqualFold(tbl.Name, name) {
			return tbl, true
		}
	}
	return nil, false
}

// PrimaryKeyOf returns the primary key of a table, if any.
func (s *Schema) PrimaryKeyOf(table string) *PrimaryKey {
	for _, pk := range s.PrimaryKeys {
		if strings.EqualFold(pk.Table, table) {
			return pk
		}
	}
	return nil
}

// ForeignKeysOf returns the foreign keys declared on a table.
func (s *Schema) ForeignKeysOf(table string) []*ForeignKey {
	var out []*ForeignKey
	for _, fk := range s.ForeignKeys {
		if strings.EqualFold(fk.Table, table) {
			out = append(out, fk)
		}
	}
	return out
}

// UniquesOf returns the unique constraints of a table.
func (s *Schema) UniquesOf(table string) []*Unique {
	var out []*Unique
	for _, u := range s.Uniques {
		if strings.EqualFold(u.Table, table) {
			out = append(out, u)
		}
	}
	return out
}

// ChecksOf returns the check constraints of a table.
func (s *Schema) ChecksOf(table string) []*Check {
	var out []*Check
	for _, c := range s.Checks {
		if strings.EqualFold(c.Table, table) {
			out = append(out, c)
		}
	}
	return out
}

// NotNullsOf returns the not-null constraints of a table.
func (s *Schema) NotNullsOf(table string) []*NotNull {
	var out []*NotNull
	for _, nn := range s.NotNulls {
		if strings.EqualFold(nn.Table, table) {
			out = append(out, nn)
		}
	}
	return out
}

// IsNotNull reports whether a column carries a NOT NULL constraint or is part of the primary key.
func (s *Schema) IsNotNull(table, column string) bool {
	for _, nn := range s.NotNullsOf(table) {
		if strings.EqualFold(nn.Column, column) {
			return true
		}
	}
	if pk := s.PrimaryKeyOf(table); pk != nil {
		for _, c := range pk.Columns {
			if strings.EqualFold(c, column) {
				return true
			}
		}
	}
	return false
}

// ConstraintCount returns the number of constraints across all categories.
func (s *Schema) ConstraintCount() int {
	return len(s.PrimaryKeys) + len(s.ForeignKeys) + len(s.Uniques) + len(s.Checks) + len(s.NotNulls)
}

// Validate reports dangling table or column references.
func (s *Schema) Validate() error {
	seen := make(map[string]struct{}, len(s.Tables))
	for _, t := range s.Tables {
		key := strings.ToLower(t.Name)
		if _, dup := seen[key]; dup {
			return errors.Errorf("schema %s: duplicate table %s", s.Name, t.Name)
		}
		seen[key] = struct{}{}
	}
	check := func(table string, cols ...string) error {
		tbl, ok := s.TableByName(table)
		if !ok {
			return errors.Errorf("schema %s: unknown table %s", s.Name, table)
		}
		for _, c := range cols {
			if _, ok := tbl.ColumnByName(c); !ok {
				return errors.Errorf("schema %s: unknown column %s", s.Name, ColumnRef(table, c))
			}
		}
		return nil
	}
	for _, pk := range s.PrimaryKeys {
		if err := check(pk.Table, pk.Columns...); err != nil {
			return err
		}
	}
	for _, fk := range s.ForeignKeys {
		if len(fk.Columns) != len(fk.RefColumns) {
			return errors.Errorf("schema %s: foreign key %s column count mismatch", s.Name, fk.Name)
		}
		if err := check(fk.Table, fk.Columns...); err != nil {
			return err
		}
		if err := check(fk.RefTable, fk.RefColumns...); err != nil {
			return err
		}
	}
	for _, u := range s.Uniques {
		if err := check(u.Table, u.Columns...); err != nil {
			return err
		}
	}
	for _, c := range s.Checks {
		if err := check(c.Table, expr.Columns(c.Expr)...); err != nil {
			return err
		}
	}
	for _, nn := range s.NotNulls {
		if err := check(nn.Table, nn.Column); err != nil {
			return err
		}
	}
	return nil
}

// ColumnRef builds a fully qualified column reference.
func ColumnRef(table, column string) string {
	return fmt.Sprintf("%s.%s", table, column)
}
