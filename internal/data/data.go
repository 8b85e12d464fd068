package data

import "strings"

// Data is an ordered collection of rows grouped by table.
type Data struct {
	tables []string
	rows   map[string][]*Row
}

// New returns an empty Data.
func New() *Data {
	return &Data{rows: make(map[string][]*Row)}
}

// AddRow appends a row under its table.
func (d *Data) AddRow(r *Row) {
	if _, ok := d.rows[r.table]; !ok {
		d.tables = append(d.tables, r.table)
	}
	d.rows[r.table] = append(d.rows[r.table], r)
}

// Tables returns table names in first-insertion order.
func (d *Data) Tables() []string {
	return d.tables
}

// Rows returns the rows of a table.
func (d *Data) Rows(table string) []*Row {
	if d == nil {
		return nil
	}
	return d.rows[table]
}

// AllRows returns every row, table by table.
func (d *Data) AllRows() []*Row {
	if d == nil {
		return nil
	}
	out := make([]*Row, 0, d.Len())
	for _, t := range d.tables {
		out = append(out, d.rows[t]...)
	}
	return out
}

// Len returns the total number of rows.
func (d *Data) Len() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, rows := range d.rows {
		n += len(rows)
	}
	return n
}

// Clone returns a deep copy.
func (d *Data) Clone() *Data {
	out := New()
	if d == nil {
		return out
	}
	for _, t := range d.tables {
		for _, r := range d.rows[t] {
			out.AddRow(r.Clone())
		}
	}
	return out
}

// Merge returns a copy of d followed by the rows of o.
func (d *Data) Merge(o *Data) *Data {
	out := d.Clone()
	for _, r := range o.AllRows() {
		out.AddRow(r.Clone())
	}
	return out
}

// Equal reports whether both hold equal rows in the same order.
func (d *Data) Equal(o *Data) bool {
	a, b := d.AllRows(), o.AllRows()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func (d *Data) String() string {
	rows := d.AllRows()
	parts := make([]string, 0, len(rows))
	for _, r := range rows {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, "; ")
}
