package export

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"testing"

	"github.com/JonMunkholm/csvmaster/internal/csvio"
	"github.com/JonMunkholm/csvmaster/internal/table"
	"github.com/klauspost/compress/zip"
)

func sevenRows(t *testing.T) *table.Table {
	t.Helper()
	rows := make([]table.Row, 7)
	for i := range rows {
		rows[i] = table.Row{strconv.Itoa(i + 1), "name " + strconv.Itoa(i+1)}
	}
	tbl, err := table.New([]string{"id", "name"}, rows)
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func scratchEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func TestExportChunks(t *testing.T) {
	chunks, err := table.SplitIntoChunks(sevenRows(t), 3)
	if err != nil {
		t.Fatal(err)
	}

	out := t.TempDir()
	scratch := t.TempDir()
	archive := filepath.Join(out, "parts.zip")

	res, err := ExportChunks(chunks, "part", archive, Options{ScratchDir: scratch})
	if err != nil {
		t.Fatalf("ExportChunks() error = %v", err)
	}

	wantFiles := []string{"part_1.csv", "part_2.csv", "part_3.csv"}
	if !slices.Equal(res.Files, wantFiles) {
		t.Errorf("Files = %v, want %v", res.Files, wantFiles)
	}

	zr, err := zip.OpenReader(archive)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()

	if len(zr.File) != 3 {
		t.Fatalf("archive has %d files, want 3", len(zr.File))
	}
	wantRows := []int{3, 3, 1}
	for i, f := range zr.File {
		if f.Name != wantFiles[i] {
			t.Errorf("entry %d = %q, want %q", i, f.Name, wantFiles[i])
		}

		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		sc := bufio.NewScanner(rc)
		var lines []string
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
		rc.Close()

		if len(lines) == 0 || lines[0] != "id,name" {
			t.Errorf("%s does not start with the header line: %q", f.Name, lines)
		}
		if got := len(lines) - 1; got != wantRows[i] {
			t.Errorf("%s has %d rows, want %d", f.Name, got, wantRows[i])
		}
	}

	if n := scratchEntries(t, scratch); n != 0 {
		t.Errorf("scratch dir holds %d entries after export", n)
	}
	if n := scratchEntries(t, out); n != 1 {
		t.Errorf("output dir holds %d entries, want only the archive", n)
	}
}

func TestExportChunks_Format(t *testing.T) {
	tbl := table.MustNew([]string{"Город"}, table.Row{"Москва"})
	chunks, _ := table.SplitIntoChunks(tbl, 10)
	archive := filepath.Join(t.TempDir(), "win.zip")

	opts := Options{
		Format:     csvio.WriteOptions{Encoding: csvio.Windows1251, Delimiter: csvio.Semicolon},
		ScratchDir: t.TempDir(),
	}
	if _, err := ExportChunks(chunks, "", archive, opts); err != nil {
		t.Fatalf("ExportChunks() error = %v", err)
	}

	zr, err := zip.OpenReader(archive)
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	if zr.File[0].Name != "part_1.csv" {
		t.Errorf("entry = %q, want default base name", zr.File[0].Name)
	}
	rc, _ := zr.File[0].Open()
	defer rc.Close()
	tblBack, err := csvio.Parse(rc, csvio.Windows1251, csvio.Semicolon)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !tblBack.Equal(tbl) {
		t.Errorf("chunk = %v, want %v", tblBack.Records(), tbl.Records())
	}
}

func TestExportChunks_NoChunks(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "empty.zip")
	res, err := ExportChunks(nil, "part", archive, Options{ScratchDir: t.TempDir()})
	if err != nil {
		t.Fatalf("ExportChunks() error = %v", err)
	}
	if len(res.Files) != 0 {
		t.Errorf("Files = %v, want none", res.Files)
	}

	zr, err := zip.OpenReader(archive)
	if err != nil {
		t.Fatalf("empty archive is not a valid zip: %v", err)
	}
	zr.Close()
}

func TestExportChunks_ChunkWriteFailureCleansUp(t *testing.T) {
	chunks, _ := table.SplitIntoChunks(table.MustNew([]string{"a"}, table.Row{"😀"}, table.Row{"ok"}), 1)

	out := t.TempDir()
	scratch := t.TempDir()
	archive := filepath.Join(out, "parts.zip")

	opts := Options{Format: csvio.WriteOptions{Encoding: csvio.Windows1251}, ScratchDir: scratch}
	_, err := ExportChunks(chunks, "part", archive, opts)

	var ee *ExportError
	if !errors.As(err, &ee) {
		t.Fatalf("ExportChunks() error = %v, want ExportError", err)
	}
	if ee.Op != "write chunk" {
		t.Errorf("Op = %q, want %q", ee.Op, "write chunk")
	}
	var we *csvio.WriteError
	if !errors.As(err, &we) {
		t.Errorf("cause = %v, want csvio.WriteError", ee.Err)
	}

	if n := scratchEntries(t, scratch); n != 0 {
		t.Errorf("scratch dir holds %d entries after failure", n)
	}
	if n := scratchEntries(t, out); n != 0 {
		t.Errorf("output dir holds %d entries after failure", n)
	}
}

func TestExportChunks_ArchiveFailureCleansUp(t *testing.T) {
	chunks, _ := table.SplitIntoChunks(sevenRows(t), 3)
	scratch := t.TempDir()
	archive := filepath.Join(t.TempDir(), "missing", "parts.zip")

	_, err := ExportChunks(chunks, "part", archive, Options{ScratchDir: scratch})

	var ee *ExportError
	if !errors.As(err, &ee) || ee.Op != "create archive" {
		t.Fatalf("ExportChunks() error = %v, want create archive failure", err)
	}
	if n := scratchEntries(t, scratch); n != 0 {
		t.Errorf("scratch dir holds %d entries after failure", n)
	}
}

func TestExportChunks_RejectsPathInBaseName(t *testing.T) {
	for _, base := range []string{"../evil", `dir\part`, ".."} {
		_, err := ExportChunks(nil, base, filepath.Join(t.TempDir(), "x.zip"), Options{})
		if !errors.Is(err, ErrInvalidBaseName) {
			t.Errorf("base %q: error = %v, want ErrInvalidBaseName", base, err)
		}
	}
}

func TestExportChunks_ConcurrentCallsDoNotCollide(t *testing.T) {
	chunks, _ := table.SplitIntoChunks(sevenRows(t), 2)
	scratch := t.TempDir()
	out := t.TempDir()

	errs := make(chan error, 4)
	for i := range 4 {
		go func() {
			archive := filepath.Join(out, "parts"+strconv.Itoa(i)+".zip")
			_, err := ExportChunks(chunks, "part", archive, Options{ScratchDir: scratch})
			errs <- err
		}()
	}
	for range 4 {
		if err := <-errs; err != nil {
			t.Errorf("concurrent export failed: %v", err)
		}
	}
	if n := scratchEntries(t, out); n != 4 {
		t.Errorf("output dir holds %d archives, want 4", n)
	}
}
