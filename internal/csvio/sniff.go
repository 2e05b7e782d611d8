package csvio

import (
	"errors"
	"io"
	"os"
)

// Sample sizes for the two probes.
const (
	EncodingSampleSize  = 1000
	DelimiterSampleSize = 1024
)

// SniffEncoding inspects the start of the file at path.
// It returns ErrEncodingUndetected (wrapped in a ReadError) when neither
// supported encoding fits.
func SniffEncoding(path string) (Encoding, error) {
	sample, truncated, err := readPrefix(path, EncodingSampleSize)
	if err != nil {
		return EncodingUnknown, &ReadError{Path: path, Err: err}
	}

	enc := DetectEncoding(sample, truncated)
	if enc == EncodingUnknown {
		return EncodingUnknown, &ReadError{Path: path, Err: ErrEncodingUndetected}
	}
	return enc, nil
}

// SniffDelimiter decodes the start of the file with enc and guesses the delimiter.
func SniffDelimiter(path string, enc Encoding) (DelimiterGuess, error) {
	sample, _, err := readPrefix(path, DelimiterSampleSize)
	if err != nil {
		return DelimiterGuess{}, &ReadError{Path: path, Err: err}
	}
	return sniffDelimiterBytes(sample, enc)
}

func sniffDelimiterBytes(sample []byte, enc Encoding) (DelimiterGuess, error) {
	text, err := decodeString(sample, enc)
	if err != nil {
		return DelimiterGuess{}, &ReadError{Err: err}
	}
	return DetectDelimiter(text), nil
}

// readPrefix reads up to n bytes and reports whether the file holds more.
func readPrefix(path string, n int) ([]byte, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer f.Close()

	buf := make([]byte, n+1)
	got, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, false, err
	}
	return buf[:min(got, n)], got > n, nil
}

// prefix mirrors readPrefix for data already in memory.
func prefix(data []byte, n int) ([]byte, bool) {
	if len(data) > n {
		return data[:n], true
	}
	return data, false
}
