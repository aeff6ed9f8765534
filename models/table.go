package models

// Table is an ordered set of listings sharing one column list.
type Table struct {
	Columns  []string
	Listings []*Listing
}

// NewTable creates an empty table with the given columns.
func NewTable(columns []string) *Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// NewCanonicalTable creates an empty table with the canonical columns.
func NewCanonicalTable() *Table {
	return NewTable(CanonicalNames())
}

func (t *Table) Len() int { return len(t.Listings) }

// HasColumn reports whether name is one of the table's columns.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column filled with missing values. Existing columns are left alone.
func (t *Table) AddColumn(name string) {
	if t.HasColumn(name) {
		return
	}
	t.Columns = append(t.Columns, name)
	for _, l := range t.Listings {
		l.SetMissing(name)
	}
}

// DropColumn removes a column and its cells.
func (t *Table) DropColumn(name string) {
	kept := t.Columns[:0]
	for _, c := range t.Columns {
		if c != name {
			kept = append(kept, c)
		}
	}
	t.Columns = kept
	for _, l := range t.Listings {
		delete(l.Values, name)
	}
}

// Append adds a listing to the table.
func (t *Table) Append(l *Listing) {
	t.Listings = append(t.Listings, l)
}

// Concat appends every listing of other after the table's own listings.
func (t *Table) Concat(other *Table) {
	t.Listings = append(t.Listings, other.Listings...)
}

// Row returns the listing's cells in column order.
func (t *Table) Row(l *Listing) []string {
	row := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		row[i] = l.Values[c]
	}
	return row
}
