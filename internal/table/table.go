// Package table holds the in-memory header + row model and the pure
// transformations that can be chained over it.
//
// A Table is never modified after construction. Every transform builds a new
// Table with its own row storage, so callers may keep any earlier version
// around (for example to reset to the originally loaded data) without
// copying it themselves.
package table

import (
	"fmt"
	"slices"
)

// Row is one record. Its length always equals the owning table's column count.
type Row []string

// Table is an ordered header list plus an ordered list of rows.
// Header names need not be unique; lookups by name resolve to the first match.
type Table struct {
	headers []string
	rows    []Row
}

// New builds a Table from headers and rows, copying both.
// Every row must have exactly len(headers) cells.
func New(headers []string, rows []Row) (*Table, error) {
	for i, r := range rows {
		if len(r) != len(headers) {
			return nil, fmt.Errorf("row %d: %w: has %d cells, want %d", i+1, ErrRowWidth, len(r), len(headers))
		}
	}

	t := &Table{
		headers: slices.Clone(headers),
		rows:    make([]Row, len(rows)),
	}
	for i, r := range rows {
		t.rows[i] = slices.Clone(r)
	}
	return t, nil
}

// MustNew is New for literals in tests and fixtures. It panics on ragged input.
func MustNew(headers []string, rows ...Row) *Table {
	t, err := New(headers, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// Empty returns a table with no headers and no rows.
func Empty() *Table {
	return &Table{}
}

// FromRecords splits raw records into a header record and data rows.
// Zero records yields an empty table.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return Empty(), nil
	}
	rows := make([]Row, len(records)-1)
	for i, rec := range records[1:] {
		rows[i] = rec
	}
	return New(records[0], rows)
}

// Headers returns a copy of the column names.
func (t *Table) Headers() []string {
	return slices.Clone(t.headers)
}

// Rows returns a deep copy of all rows.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = slices.Clone(r)
	}
	return out
}

// Row returns a copy of row i.
func (t *Table) Row(i int) Row {
	return slices.Clone(t.rows[i])
}

// Records returns headers followed by rows, ready for a CSV writer.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.rows)+1)
	out = append(out, slices.Clone(t.headers))
	for _, r := range t.rows {
		out = append(out, slices.Clone(r))
	}
	return out
}

// RowCount is the number of data rows (the header is not counted).
func (t *Table) RowCount() int { return len(t.rows) }

// ColumnCount is the number of headers.
func (t *Table) ColumnCount() int { return len(t.headers) }

// IsEmpty reports whether the table has neither headers nor rows.
func (t *Table) IsEmpty() bool {
	return len(t.headers) == 0 && len(t.rows) == 0
}

// ColumnIndex returns the position of the first header equal to name.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i := slices.Index(t.headers, name)
	return i, i >= 0
}

// Equal reports whether both tables have identical headers and rows.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if !slices.Equal(t.headers, o.headers) || len(t.rows) != len(o.rows) {
		return false
	}
	for i := range t.rows {
		if !slices.Equal(t.rows[i], o.rows[i]) {
			return false
		}
	}
	return true
}

// withRows wraps rows that the caller already owns under a copy of t's headers.
func (t *Table) withRows(rows []Row) *Table {
	return &Table{headers: slices.Clone(t.headers), rows: rows}
}
