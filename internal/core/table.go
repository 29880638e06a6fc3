package core

import "sort"

// Table is an immutable, ordered collection of records. Row order is the
// order the store returned them in.
type Table struct {
	rows []Record
}

// NewTable copies rows into a new table.
func NewTable(rows []Record) *Table {
	cp := make([]Record, len(rows))
	copy(cp, rows)
	return &Table{rows: cp}
}

// Len returns the number of rows. A nil table is empty.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Rows returns a copy of every record.
func (t *Table) Rows() []Record {
	return t.Filter(func(Record) bool { return true })
}

// Filter returns the records matching keep, in table order.
func (t *Table) Filter(keep func(Record) bool) []Record {
	if t == nil {
		return nil
	}
	out := make([]Record, 0, len(t.rows))
	for _, r := range t.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Months returns the distinct months present, ascending.
func (t *Table) Months() []int {
	if t == nil {
		return nil
	}
	seen := make(map[int]struct{})
	for _, r := range t.rows {
		seen[r.Month] = struct{}{}
	}
	months := make([]int, 0, len(seen))
	for m := range seen {
		months = append(months, m)
	}
	sort.Ints(months)
	return months
}

// HasMonth reports whether any record belongs to month m.
func (t *Table) HasMonth(m int) bool {
	if t == nil {
		return false
	}
	for _, r := range t.rows {
		if r.Month == m {
			return true
		}
	}
	return false
}
