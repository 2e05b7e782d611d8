package table

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Report column names produced by GroupByColumn.
const (
	GroupValueHeader = "Value"
	GroupCountHeader = "Count"
)

// CountRows returns the number of data rows and columns.
func CountRows(t *Table) (rows, cols int) {
	return t.RowCount(), t.ColumnCount()
}

// FirstN returns the headers and the first min(n, RowCount) rows.
func FirstN(t *Table, n int) (*Table, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: row count must be positive, got %d", ErrInvalidArgument, n)
	}
	n = min(n, len(t.rows))

	rows := make([]Row, n)
	for i := range n {
		rows[i] = slices.Clone(t.rows[i])
	}
	return t.withRows(rows), nil
}

// FilterByText keeps rows where any cell contains query, ignoring case.
// An empty query keeps every row.
func FilterByText(t *Table, query string) *Table {
	q := strings.ToLower(query)

	rows := make([]Row, 0, len(t.rows))
	for _, r := range t.rows {
		if rowContains(r, q) {
			rows = append(rows, slices.Clone(r))
		}
	}
	return t.withRows(rows)
}

func rowContains(r Row, lowerQuery string) bool {
	for _, cell := range r {
		if strings.Contains(strings.ToLower(cell), lowerQuery) {
			return true
		}
	}
	return false
}

// SelectColumns projects the table onto names, in that order.
// Names may repeat. Selecting nothing yields zero headers and zero-width rows.
func SelectColumns(t *Table, names []string) (*Table, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		pos, ok := t.ColumnIndex(name)
		if !ok {
			return nil, &UnknownColumnError{Name: name}
		}
		idx[i] = pos
	}

	rows := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out := make(Row, len(idx))
		for j, pos := range idx {
			out[j] = r[pos]
		}
		rows[i] = out
	}
	return &Table{headers: slices.Clone(names), rows: rows}, nil
}

// RemoveDuplicates keeps the first occurrence of every distinct row.
// Rows are compared cell by cell with exact string equality.
func RemoveDuplicates(t *Table) *Table {
	seen := make(map[string]struct{}, len(t.rows))
	rows := make([]Row, 0, len(t.rows))

	for _, r := range t.rows {
		key := rowKey(r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		rows = append(rows, slices.Clone(r))
	}
	return t.withRows(rows)
}

// rowKey length-prefixes each cell so no two distinct rows share a key.
func rowKey(r Row) string {
	var b []byte
	for _, cell := range r {
		b = strconv.AppendInt(b, int64(len(cell)), 10)
		b = append(b, ':')
		b = append(b, cell...)
	}
	return string(b)
}

// GroupByColumn counts rows per trimmed value of column and returns a
// (Value, Count) report sorted by Value in ascending byte order.
// Values are compared as strings even when they look numeric.
func GroupByColumn(t *Table, column string) (*Table, error) {
	pos, ok := t.ColumnIndex(column)
	if !ok {
		return nil, &UnknownColumnError{Name: column}
	}

	counts := make(map[string]int)
	for _, r := range t.rows {
		counts[strings.TrimSpace(r[pos])]++
	}

	values := make([]string, 0, len(counts))
	for v := range counts {
		values = append(values, v)
	}
	slices.Sort(values)

	rows := make([]Row, len(values))
	for i, v := range values {
		rows[i] = Row{v, strconv.Itoa(counts[v])}
	}
	return &Table{headers: []string{GroupValueHeader, GroupCountHeader}, rows: rows}, nil
}

// SplitIntoChunks partitions rows into consecutive chunks of at most size rows.
// Each chunk carries its own copy of the headers. No rows means no chunks.
func SplitIntoChunks(t *Table, size int) ([]*Table, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidArgument, size)
	}

	// Sizes past the row count give one chunk. Clamped so start+size cannot overflow.
	size = min(size, max(len(t.rows), 1))

	chunks := make([]*Table, 0, (len(t.rows)+size-1)/size)
	for start := 0; start < len(t.rows); start += size {
		end := min(start+size, len(t.rows))
		rows := make([]Row, 0, end-start)
		for _, r := range t.rows[start:end] {
			rows = append(rows, slices.Clone(r))
		}
		chunks = append(chunks, t.withRows(rows))
	}
	return chunks, nil
}
