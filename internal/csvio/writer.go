package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/csvmaster/internal/table"
	"golang.org/x/text/transform"
)

// WriteOptions selects the output format. Zero values mean UTF-8 and comma.
type WriteOptions struct {
	Encoding  Encoding
	Delimiter Delimiter
	CRLF      bool
}

func (o WriteOptions) withDefaults() WriteOptions {
	if o.Encoding == EncodingUnknown {
		o.Encoding = UTF8
	}
	if o.Delimiter == 0 {
		o.Delimiter = Comma
	}
	return o
}

// Encode serializes headers then rows to w. Fields containing the
// delimiter, a quote or a line break are quoted. A table without columns
// produces no output.
func Encode(w io.Writer, t *table.Table, opts WriteOptions) error {
	opts = opts.withDefaults()
	if !opts.Delimiter.Valid() {
		return &WriteError{Err: fmt.Errorf("%w: %s", ErrUnsupportedDelimiter, opts.Delimiter)}
	}
	codec, err := opts.Encoding.codec()
	if err != nil {
		return &WriteError{Err: err}
	}
	if t.ColumnCount() == 0 {
		return nil
	}

	tw := transform.NewWriter(w, codec.NewEncoder())
	cw := csv.NewWriter(tw)
	cw.Comma = rune(opts.Delimiter)
	cw.UseCRLF = opts.CRLF

	eol := "\n"
	if opts.CRLF {
		eol = "\r\n"
	}
	for _, rec := range t.Records() {
		if err := writeRecord(cw, tw, rec, eol); err != nil {
			return &WriteError{Err: err}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return &WriteError{Err: err}
	}
	if err := tw.Close(); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

// writeRecord writes one record. csv.Writer renders a lone empty field as a
// blank line, which readers skip, so that record is written quoted.
func writeRecord(cw *csv.Writer, w io.Writer, rec []string, eol string) error {
	if len(rec) != 1 || rec[0] != "" {
		return cw.Write(rec)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	_, err := io.WriteString(w, `""`+eol)
	return err
}

// Write stores t at path. The data goes to a temporary sibling first and
// is renamed over path only once complete, so a failed write leaves any
// existing file untouched.
func Write(path string, t *table.Table, opts WriteOptions) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := Encode(tmp, t, opts); err != nil {
		var we *WriteError
		if errors.As(err, &we) {
			we.Path = path
		}
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
