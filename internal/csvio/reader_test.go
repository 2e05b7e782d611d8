package csvio

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/JonMunkholm/csvmaster/internal/table"
)

func TestLoad_SniffsFormat(t *testing.T) {
	path := writeFile(t, "win.csv", cp1251(t, "Имя;Город\nИван;Москва\nОля;Казань\n"))

	src, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if src.Encoding != Windows1251 {
		t.Errorf("Encoding = %v, want cp1251", src.Encoding)
	}
	if src.Delimiter != Semicolon || src.DelimiterDefaulted() {
		t.Errorf("Delimiter = %v (defaulted=%v), want sniffed semicolon", src.Delimiter, src.DelimiterDefaulted())
	}

	want := table.MustNew([]string{"Имя", "Город"}, table.Row{"Иван", "Москва"}, table.Row{"Оля", "Казань"})
	if !src.Table.Equal(want) {
		t.Errorf("Table = %v, want %v", src.Table.Records(), want.Records())
	}
}

func TestLoad_DelimiterOverride(t *testing.T) {
	path := writeFile(t, "colon.csv", []byte("a:b\n1:2,3\n"))

	src, err := Load(path, LoadOptions{Delimiter: Colon})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if src.Guess != (DelimiterGuess{}) {
		t.Errorf("Guess = %+v, want zero value for an explicit delimiter", src.Guess)
	}
	if got := src.Table.Row(0); !slices.Equal(got, table.Row{"1", "2,3"}) {
		t.Errorf("row = %v, want [1 2,3]", got)
	}
}

func TestLoad_SpaceDelimiter(t *testing.T) {
	path := writeFile(t, "space.txt", []byte("x y\n1 2\n"))

	src, err := Load(path, LoadOptions{Delimiter: Space})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if src.Table.ColumnCount() != 2 || src.Table.RowCount() != 1 {
		t.Errorf("got %d cols, %d rows; want 2, 1", src.Table.ColumnCount(), src.Table.RowCount())
	}
}

func TestLoad_EmptyFileIsEmptyTable(t *testing.T) {
	path := writeFile(t, "empty.csv", nil)

	src, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !src.Empty() {
		t.Errorf("Empty() = false, table = %v", src.Table.Records())
	}
	if !src.DelimiterDefaulted() {
		t.Error("expected defaulted delimiter for an empty file")
	}
}

func TestLoad_SkipsBOM(t *testing.T) {
	path := writeFile(t, "bom.csv", append([]byte{0xEF, 0xBB, 0xBF}, "id,name\n1,a\n"...))

	src, err := Load(path, LoadOptions{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := src.Table.Headers()[0]; got != "id" {
		t.Errorf("first header = %q, want %q", got, "id")
	}
}

func TestLoad_RaggedRecord(t *testing.T) {
	path := writeFile(t, "ragged.csv", []byte("a,b\n1,2\n3\n"))

	_, err := Load(path, LoadOptions{})
	var re *ReadError
	if !errors.As(err, &re) {
		t.Fatalf("Load() error = %v, want ReadError", err)
	}
	if !errors.Is(err, ErrFieldCount) {
		t.Errorf("error = %v, want ErrFieldCount", err)
	}
	if re.Line != 3 {
		t.Errorf("Line = %d, want 3", re.Line)
	}
	if re.Path != path {
		t.Errorf("Path = %q, want %q", re.Path, path)
	}
}

func TestLoad_UndetectedEncoding(t *testing.T) {
	path := writeFile(t, "bad.csv", []byte{'a', 0xFF, 0x98, '\n'})

	_, err := Load(path, LoadOptions{})
	if !errors.Is(err, ErrEncodingUndetected) {
		t.Fatalf("Load() error = %v, want ErrEncodingUndetected", err)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), LoadOptions{})
	var re *ReadError
	if !errors.As(err, &re) {
		t.Fatalf("Load() error = %v, want ReadError", err)
	}
}

func TestParse_QuotedFields(t *testing.T) {
	in := "name,note\n\"Smith, J\",\"line1\nline2\"\n"

	tbl, err := Parse(strings.NewReader(in), UTF8, Comma)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := table.MustNew([]string{"name", "note"}, table.Row{"Smith, J", "line1\nline2"})
	if !tbl.Equal(want) {
		t.Errorf("Parse() = %q, want %q", tbl.Records(), want.Records())
	}
}

func TestParse_InvalidDelimiter(t *testing.T) {
	_, err := Parse(strings.NewReader("a|b"), UTF8, Delimiter('|'))
	if !errors.Is(err, ErrUnsupportedDelimiter) {
		t.Errorf("Parse() error = %v, want ErrUnsupportedDelimiter", err)
	}
}
