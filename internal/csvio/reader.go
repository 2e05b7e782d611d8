package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/csvmaster/internal/table"
)

// LoadOptions overrides sniffing. Zero values mean "detect".
type LoadOptions struct {
	Encoding  Encoding
	Delimiter Delimiter
}

// Source is a loaded table together with the format it was read in.
type Source struct {
	Path      string
	Table     *table.Table
	Encoding  Encoding
	Delimiter Delimiter

	// Guess is the sniffer's verdict. It is the zero value when the
	// delimiter was supplied by the caller.
	Guess DelimiterGuess
}

// Empty reports whether the file held no records at all.
func (s *Source) Empty() bool { return s.Table.IsEmpty() }

// DelimiterDefaulted reports whether sniffing found no candidate and fell back to comma.
func (s *Source) DelimiterDefaulted() bool { return s.Guess.Defaulted }

// Load reads the file at path into a table. Encoding and delimiter are
// sniffed unless set in opts. A file with no records loads as an empty
// table, not an error.
func Load(path string, opts LoadOptions) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return LoadBytes(path, data, opts)
}

// LoadBytes is Load for content already in memory. name is only used in errors.
func LoadBytes(name string, data []byte, opts LoadOptions) (*Source, error) {
	enc := opts.Encoding
	if enc == EncodingUnknown {
		sample, truncated := prefix(data, EncodingSampleSize)
		enc = DetectEncoding(sample, truncated)
		if enc == EncodingUnknown {
			return nil, &ReadError{Path: name, Err: ErrEncodingUndetected}
		}
	}

	src := &Source{Path: name, Encoding: enc, Delimiter: opts.Delimiter}
	if opts.Delimiter == 0 {
		sample, _ := prefix(data, DelimiterSampleSize)
		guess, err := sniffDelimiterBytes(sample, enc)
		if err != nil {
			return nil, withPath(err, name)
		}
		src.Guess = guess
		src.Delimiter = guess.Delimiter
	}

	t, err := Parse(bytes.NewReader(data), enc, src.Delimiter)
	if err != nil {
		return nil, withPath(err, name)
	}
	src.Table = t
	return src, nil
}

// Parse decodes r with enc and splits it into a table on delim.
// The first record is the header; every later record must match its width.
func Parse(r io.Reader, enc Encoding, delim Delimiter) (*table.Table, error) {
	if !delim.Valid() {
		return nil, &ReadError{Err: fmt.Errorf("%w: %s", ErrUnsupportedDelimiter, delim)}
	}
	codec, err := enc.codec()
	if err != nil {
		return nil, &ReadError{Err: err}
	}

	if enc == UTF8 {
		r = newBOMSkippingReader(r)
	}

	cr := csv.NewReader(codec.NewDecoder().Reader(r))
	cr.Comma = rune(delim)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var records [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &ReadError{Line: pe.Line, Err: pe.Err}
			}
			return nil, &ReadError{Err: err}
		}

		if len(records) > 0 && len(rec) != len(records[0]) {
			line, _ := cr.FieldPos(0)
			return nil, &ReadError{
				Line: line,
				Err:  fmt.Errorf("%w: got %d, header has %d", ErrFieldCount, len(rec), len(records[0])),
			}
		}
		records = append(records, rec)
	}

	t, err := table.FromRecords(records)
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	return t, nil
}

func withPath(err error, path string) error {
	var re *ReadError
	if errors.As(err, &re) && re.Path == "" {
		re.Path = path
	}
	return err
}
