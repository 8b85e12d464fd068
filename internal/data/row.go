package data

import "strings"

// Row is one row of a table. Columns are fixed at construction.
type Row struct {
	table   string
	columns []string
	cells   []Value
}

// NewRow builds a row; cells must align with columns.
func NewRow(table string, columns []string, cells []Value) *Row {
	cols := make([]string, len(columns))
	copy(cols, columns)
	vals := make([]Value, len(cells))
	copy(vals, cells)
	return &Row{table: table, columns: cols, cells: vals}
}

// Table returns the owning table name.
func (r *Row) Table() string {
	return r.table
}

// Columns returns the column names in order.
func (r *Row) Columns() []string {
	return r.columns
}

// Len returns the number of cells.
func (r *Row) Len() int {
	return len(r.cells)
}

// At returns the i-th cell.
func (r *Row) At(i int) Value {
	return r.cells[i]
}

// Set replaces the i-th cell.
func (r *Row) Set(i int, v Value) {
	r.cells[i] = v
}

// Index returns the position of a column or -1.
func (r *Row) Index(column string) int {
	for i, c := range r.columns {
		if strings.EqualFold(c, column) {
			return i
		}
	}
	return -1
}

// Value returns the cell of a column.
func (r *Row) Value(column string) (Value, bool) {
	idx := r.Index(column)
	if idx < 0 {
		return Value{}, false
	}
	return r.cells[idx], true
}

// Clone returns a deep copy. Columns are shared since they never change.
func (r *Row) Clone() *Row {
	vals := make([]Value, len(r.cells))
	copy(vals, r.cells)
	return &Row{table: r.table, columns: r.columns, cells: vals}
}

// Equal reports whether two rows belong to the same table and hold equal cells.
func (r *Row) Equal(o *Row) bool {
	if r.table != o.table || len(r.cells) != len(o.cells) {
		return false
	}
	for i := range r.cells {
		if r.columns[i] != o.columns[i] || !r.cells[i].Equal(o.cells[i]) {
			return false
		}
	}
	return true
}

func (r *Row) String() string {
	var b strings.Builder
	b.WriteString(r.table)
	b.WriteString("(")
	for i, c := range r.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c)
		b.WriteString("=")
		b.WriteString(r.cells[i].String())
	}
	b.WriteString(")")
	return b.String()
}
