package schema

import "strings"

// Clone returns a deep copy. Check expressions are immutable and shared.
func (s *Schema) Clone() *Schema {
	out := &Schema{Name: s.Name}
	for _, t := range s.Tables {
		cols := make([]Column, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = c
			if c.Range != nil {
				r := *c.Range
				cols[i].Range = &r
			}
		}
		out.Tables = append(out.Tables, &Table{Name: t.Name, Columns: cols})
	}
	for _, pk := range s.PrimaryKeys {
		out.PrimaryKeys = append(out.PrimaryKeys, &PrimaryKey{Name: pk.Name, Table: pk.Table, Columns: cloneStrings(pk.Columns)})
	}
	for _, fk := range s.ForeignKeys {
		out.ForeignKeys = append(out.ForeignKeys, &ForeignKey{
			Name:       fk.Name,
			Table:      fk.Table,
			Columns:    cloneStrings(fk.Columns),
			RefTable:   fk.RefTable,
			RefColumns: cloneStrings(fk.RefColumns),
		})
	}
	for _, u := range s.Uniques {
		out.Uniques = append(out.Uniques, &Unique{Name: u.Name, Table: u.Table, Columns: cloneStrings(u.Columns)})
	}
	for _, c := range s.Checks {
		out.Checks = append(out.Checks, &Check{Name: c.Name, Table: c.Table, Expr: c.Expr})
	}
	for _, nn := range s.NotNulls {
		out.NotNulls = append(out.NotNulls, &NotNull{Name: nn.Name, Table: nn.Table, Column: nn.Column})
	}
	return out
}

// WithTablePrefix returns a copy with every table name, and every constraint's
// table references, prefixed. Columns, types and constraint semantics are unchanged.
func (s *Schema) WithTablePrefix(prefix string) *Schema {
	out := s.Clone()
	for _, t := range out.Tables {
		t.Name = prefix + t.Name
	}
	for _, pk := range out.PrimaryKeys {
		pk.Table = prefix + pk.Table
	}
	for _, fk := range out.ForeignKeys {
		fk.Table = prefix + fk.Table
		fk.RefTable = prefix + fk.RefTable
	}
	for _, u := range out.Uniques {
		u.Table = prefix + u.Table
	}
	for _, c := range out.Checks {
		c.Table = prefix + c.Table
	}
	for _, nn := range out.NotNulls {
		nn.Table = prefix + nn.Table
	}
	return out
}

// DependencyOrder returns tables so that every referenced table precedes the
// tables referencing it. Ties keep declaration order; cycles and
// self-references fall back to declaration order.
func (s *Schema) DependencyOrder() []*Table {
	deps := make(map[string][]string, len(s.Tables))
	for _, fk := range s.ForeignKeys {
		if strings.EqualFold(fk.Table, fk.RefTable) {
			continue
		}
		key := strings.ToLower(fk.Table)
		deps[key] = append(deps[key], strings.ToLower(fk.RefTable))
	}
	placed := make(map[string]bool, len(s.Tables))
	out := make([]*Table, 0, len(s.Tables))
	for len(out) < len(s.Tables) {
		progress := false
		for _, t := range s.Tables {
			key := strings.ToLower(t.Name)
			if placed[key] {
				continue
			}
			ready := true
			for _, d := range deps[key] {
				if !placed[d] {
					ready = false
					break
				}
			}
			if ready {
				placed[key] = true
				out = append(out, t)
				progress = true
			}
		}
		if !progress {
			for _, t := range s.Tables {
				key := strings.ToLower(t.Name)
				if !placed[key] {
					placed[key] = true
					out = append(out, t)
					break
				}
			}
		}
	}
	return out
}

// Ancestors returns the tables a table references directly or transitively,
// in dependency order.
func (s *Schema) Ancestors(table string) []*Table {
	want := map[string]bool{}
	var visit func(string)
	visit = func(name string) {
		for _, fk := range s.ForeignKeysOf(name) {
			ref := strings.ToLower(fk.RefTable)
			if want[ref] || strings.EqualFold(fk.RefTable, table) {
				continue
			}
			want[ref] = true
			visit(fk.RefTable)
		}
	}
	visit(table)
	var out []*Table
	for _, t := range s.DependencyOrder() {
		if want[strings.ToLower(t.Name)] {
			out = append(out, t)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
