// Package export writes chunked tables into a single ZIP archive.
//
// Each chunk is first serialized as an ordinary delimited file in a scratch
// directory that is unique to the call. The files are then packed into a
// temporary archive next to the destination, which is renamed into place
// only after it has been written completely. The scratch directory and any
// partial archive are removed on every exit path.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/csvmaster/internal/csvio"
	"github.com/JonMunkholm/csvmaster/internal/table"
	"github.com/klauspost/compress/zip"
)

// DefaultBaseName is used when the caller passes an empty base name.
const DefaultBaseName = "part"

// ErrInvalidBaseName is returned for base names that would escape the archive root.
var ErrInvalidBaseName = errors.New("invalid base name")

// Options controls how chunk files are written.
type Options struct {
	// Format of every chunk file. Zero value is UTF-8 with commas.
	Format csvio.WriteOptions

	// ScratchDir is the parent for the per-call scratch directory.
	// Empty means os.TempDir().
	ScratchDir string
}

// Result describes a finished archive.
type Result struct {
	Archive string
	Files   []string
}

// ExportError reports which step of an export failed.
type ExportError struct {
	Op   string
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("export failed: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("export failed: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// ChunkFileName returns the archive entry name for the 1-based chunk index.
func ChunkFileName(baseName string, index int) string {
	return fmt.Sprintf("%s_%d.csv", baseName, index)
}

// ExportChunks writes every chunk as {baseName}_{i}.csv and packs them into
// a ZIP at archivePath. Either the complete archive exists afterwards or
// an *ExportError is returned and nothing is left behind.
func ExportChunks(chunks []*table.Table, baseName, archivePath string, opts Options) (*Result, error) {
	if baseName == "" {
		baseName = DefaultBaseName
	}
	if strings.ContainsAny(baseName, `/\`) || baseName == "." || baseName == ".." {
		return nil, &ExportError{Op: "validate", Err: fmt.Errorf("%w: %q", ErrInvalidBaseName, baseName)}
	}

	scratch, err := os.MkdirTemp(opts.ScratchDir, "csvmaster-split-*")
	if err != nil {
		return nil, &ExportError{Op: "create scratch dir", Err: err}
	}
	defer os.RemoveAll(scratch)

	files := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		path := filepath.Join(scratch, ChunkFileName(baseName, i+1))
		if err := csvio.Write(path, chunk, opts.Format); err != nil {
			return nil, &ExportError{Op: "write chunk", Path: path, Err: err}
		}
		files = append(files, path)
	}

	if err := writeArchive(archivePath, files); err != nil {
		return nil, err
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = filepath.Base(f)
	}
	return &Result{Archive: archivePath, Files: names}, nil
}

// writeArchive packs files into a temp archive beside dest and renames it over dest.
func writeArchive(dest string, files []string) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return &ExportError{Op: "create archive", Path: dest, Err: err}
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, f := range files {
		if err := addFile(zw, f); err != nil {
			return &ExportError{Op: "add file", Path: f, Err: err}
		}
	}
	if err := zw.Close(); err != nil {
		return &ExportError{Op: "finalize archive", Path: dest, Err: err}
	}
	if err := tmp.Chmod(0644); err != nil {
		return &ExportError{Op: "finalize archive", Path: dest, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &ExportError{Op: "finalize archive", Path: dest, Err: err}
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return &ExportError{Op: "finalize archive", Path: dest, Err: err}
	}
	return nil
}

func addFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     filepath.Base(path),
		Method:   zip.Deflate,
		Modified: time.Now(),
	})
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
