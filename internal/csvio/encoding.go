package csvio

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding is one of the two text encodings the tool understands.
type Encoding int

const (
	EncodingUnknown Encoding = iota
	UTF8
	Windows1251
)

// cp1251Unassigned is the only byte value Windows-1251 leaves undefined.
const cp1251Unassigned = 0x98

func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf-8"
	case Windows1251:
		return "cp1251"
	default:
		return "unknown"
	}
}

// ParseEncoding accepts the usual spellings of the two supported encodings.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return UTF8, nil
	case "cp1251", "windows-1251", "windows1251", "win1251":
		return Windows1251, nil
	default:
		return EncodingUnknown, fmt.Errorf("%w: %q (use utf-8 or cp1251)", ErrUnsupportedEncoding, name)
	}
}

func (e Encoding) codec() (encoding.Encoding, error) {
	switch e {
	case UTF8:
		return unicode.UTF8, nil
	case Windows1251:
		return charmap.Windows1251, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, e)
	}
}

// DetectEncoding classifies a byte sample taken from the start of a file.
// truncated says the file continues past the sample, in which case a
// multi-byte sequence cut off at the end of the sample is not held against UTF-8.
func DetectEncoding(sample []byte, truncated bool) Encoding {
	sample = trimBOM(sample)

	valid := sample
	if truncated {
		valid = sample[:len(sample)-incompleteTrailingBytes(sample)]
	}
	if utf8.Valid(valid) {
		return UTF8
	}

	if bytes.IndexByte(sample, cp1251Unassigned) < 0 {
		return Windows1251
	}
	return EncodingUnknown
}

// decodeString converts raw bytes in encoding e to a Go string.
func decodeString(raw []byte, e Encoding) (string, error) {
	codec, err := e.codec()
	if err != nil {
		return "", err
	}
	out, err := codec.NewDecoder().Bytes(trimBOM(raw))
	if err != nil {
		return "", err
	}
	return string(out), nil
}
