package table

import (
	"errors"
	"slices"
	"testing"
)

func TestNew_RejectsRaggedRows(t *testing.T) {
	_, err := New([]string{"a", "b"}, []Row{{"1", "2"}, {"3"}})
	if !errors.Is(err, ErrRowWidth) {
		t.Fatalf("New() error = %v, want ErrRowWidth", err)
	}
}

func TestNew_CopiesInput(t *testing.T) {
	headers := []string{"a"}
	rows := []Row{{"1"}}

	tbl, err := New(headers, rows)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	headers[0] = "changed"
	rows[0][0] = "changed"

	if got := tbl.Headers()[0]; got != "a" {
		t.Errorf("header = %q, want %q", got, "a")
	}
	if got := tbl.Row(0)[0]; got != "1" {
		t.Errorf("cell = %q, want %q", got, "1")
	}
}

func TestAccessors_ReturnCopies(t *testing.T) {
	tbl := MustNew([]string{"a"}, Row{"1"})

	tbl.Headers()[0] = "x"
	tbl.Rows()[0][0] = "x"
	tbl.Records()[1][0] = "x"

	want := MustNew([]string{"a"}, Row{"1"})
	if !tbl.Equal(want) {
		t.Errorf("table was mutated through an accessor: %v", tbl.Records())
	}
}

func TestFromRecords(t *testing.T) {
	tests := []struct {
		name     string
		records  [][]string
		wantCols int
		wantRows int
		wantErr  bool
	}{
		{"no records", nil, 0, 0, false},
		{"header only", [][]string{{"a", "b"}}, 2, 0, false},
		{"header and rows", [][]string{{"a"}, {"1"}, {"2"}}, 1, 2, false},
		{"ragged", [][]string{{"a", "b"}, {"1"}}, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := FromRecords(tt.records)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromRecords() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tbl.ColumnCount() != tt.wantCols || tbl.RowCount() != tt.wantRows {
				t.Errorf("got %d cols, %d rows; want %d, %d",
					tbl.ColumnCount(), tbl.RowCount(), tt.wantCols, tt.wantRows)
			}
		})
	}
}

func TestEmpty(t *testing.T) {
	e := Empty()
	if !e.IsEmpty() {
		t.Error("Empty().IsEmpty() = false")
	}
	if MustNew([]string{"a"}).IsEmpty() {
		t.Error("table with a header reported empty")
	}
}

func TestColumnIndex_FirstDuplicateWins(t *testing.T) {
	tbl := MustNew([]string{"id", "name", "id"})
	i, ok := tbl.ColumnIndex("id")
	if !ok || i != 0 {
		t.Errorf("ColumnIndex(id) = %d, %v; want 0, true", i, ok)
	}
	if _, ok := tbl.ColumnIndex("missing"); ok {
		t.Error("ColumnIndex(missing) reported found")
	}
}

func TestEqual(t *testing.T) {
	a := MustNew([]string{"a"}, Row{"1"})
	b := MustNew([]string{"a"}, Row{"1"})
	c := MustNew([]string{"a"}, Row{"2"})

	if !a.Equal(b) {
		t.Error("identical tables not equal")
	}
	if a.Equal(c) {
		t.Error("different tables reported equal")
	}
	if a.Equal(nil) {
		t.Error("table equal to nil")
	}
	if !slices.Equal(a.Headers(), b.Headers()) {
		t.Error("headers differ")
	}
}
