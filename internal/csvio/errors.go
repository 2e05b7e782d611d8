package csvio

import (
	"errors"
	"fmt"
)

var (
	// ErrEncodingUndetected means neither UTF-8 nor Windows-1251 decodes the sample.
	ErrEncodingUndetected = errors.New("encoding undetected")

	// ErrFieldCount marks a record whose width differs from the header record.
	ErrFieldCount = errors.New("wrong number of fields")

	// ErrUnsupportedEncoding is returned for encoding names other than UTF-8 and Windows-1251.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrUnsupportedDelimiter is returned for delimiters outside the recognized set.
	ErrUnsupportedDelimiter = errors.New("unsupported delimiter")
)

// ReadError describes a failure to load a delimited file.
// Line is the 1-based record line when the failure is tied to one, else 0.
type ReadError struct {
	Path string
	Line int
	Err  error
}

func (e *ReadError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("read %s: line %d: %v", e.Path, e.Line, e.Err)
	case e.Path != "":
		return fmt.Sprintf("read %s: %v", e.Path, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("read: line %d: %v", e.Line, e.Err)
	default:
		return fmt.Sprintf("read: %v", e.Err)
	}
}

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError describes a failure to serialize a table.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("write failed: %v", e.Err)
	}
	return fmt.Sprintf("write %s failed: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
