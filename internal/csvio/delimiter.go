package csvio

import (
	"fmt"
	"strings"
)

// Delimiter is the field separator of a delimited file.
type Delimiter rune

const (
	Comma     Delimiter = ','
	Semicolon Delimiter = ';'
	Tab       Delimiter = '\t'
	Space     Delimiter = ' '
	Colon     Delimiter = ':'
)

var delimiterNames = map[Delimiter]string{
	Comma:     "comma",
	Semicolon: "semicolon",
	Tab:       "tab",
	Space:     "space",
	Colon:     "colon",
}

// sniffCandidates is also the tie-break order.
var sniffCandidates = []Delimiter{Comma, Semicolon, Tab}

// ParseDelimiter accepts a delimiter name (comma, semicolon, tab, space,
// colon) or the literal character.
func ParseDelimiter(s string) (Delimiter, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d, n := range delimiterNames {
		if n == name {
			return d, nil
		}
	}
	if s == `\t` {
		return Tab, nil
	}
	if r := []rune(s); len(r) == 1 {
		if d := Delimiter(r[0]); d.Valid() {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (use comma, semicolon, tab, space or colon)", ErrUnsupportedDelimiter, s)
}

// Valid reports whether d is one of the recognized delimiters.
func (d Delimiter) Valid() bool {
	_, ok := delimiterNames[d]
	return ok
}

// Name is the word form used on the command line.
func (d Delimiter) Name() string {
	if n, ok := delimiterNames[d]; ok {
		return n
	}
	return fmt.Sprintf("%q", rune(d))
}

func (d Delimiter) String() string { return d.Name() }

// DelimiterGuess is the outcome of delimiter sniffing.
// Defaulted is set when no candidate occurred and Comma was chosen by default.
type DelimiterGuess struct {
	Delimiter Delimiter
	Count     int
	Defaulted bool
}

// DetectDelimiter picks the most frequent of comma, semicolon and tab in text.
// Ties go to the earlier candidate in that order.
func DetectDelimiter(text string) DelimiterGuess {
	guess := DelimiterGuess{Delimiter: Comma}
	for _, d := range sniffCandidates {
		if n := strings.Count(text, string(rune(d))); n > guess.Count {
			guess.Delimiter = d
			guess.Count = n
		}
	}
	guess.Defaulted = guess.Count == 0
	return guess
}
