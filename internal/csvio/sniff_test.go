package csvio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/text/encoding/charmap"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func cp1251(t *testing.T, s string) []byte {
	t.Helper()
	b, err := charmap.Windows1251.NewEncoder().Bytes([]byte(s))
	if err != nil {
		t.Fatalf("encode cp1251: %v", err)
	}
	return b
}

func TestDetectEncoding(t *testing.T) {
	tests := []struct {
		name      string
		sample    []byte
		truncated bool
		want      Encoding
	}{
		{"ascii", []byte("id,name\n1,alice\n"), false, UTF8},
		{"empty", nil, false, UTF8},
		{"utf-8 cyrillic", []byte("имя;город\n"), false, UTF8},
		{"utf-8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "a,b"...), false, UTF8},
		{"cp1251 cyrillic", []byte{0xC8, 0xEC, 0xFF, 0x3B, 0xC3}, false, Windows1251},
		{"cut sequence at sample end", []byte{'a', 0xD1}, true, UTF8},
		{"cut sequence at file end", []byte{'a', 0xD1}, false, Windows1251},
		{"undefined in both", []byte{0xFF, 0x98}, false, EncodingUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectEncoding(tt.sample, tt.truncated); got != tt.want {
				t.Errorf("DetectEncoding() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSniffEncoding_File(t *testing.T) {
	ascii := writeFile(t, "ascii.csv", []byte("a,b\n1,2\n"))
	if got, err := SniffEncoding(ascii); err != nil || got != UTF8 {
		t.Errorf("SniffEncoding(ascii) = %v, %v; want utf-8", got, err)
	}

	win := writeFile(t, "win.csv", cp1251(t, "Имя;Город\nИван;Москва\n"))
	if got, err := SniffEncoding(win); err != nil || got != Windows1251 {
		t.Errorf("SniffEncoding(cp1251) = %v, %v; want cp1251", got, err)
	}

	bad := writeFile(t, "bad.csv", []byte{0xFF, 0x98, 0x98})
	_, err := SniffEncoding(bad)
	if !errors.Is(err, ErrEncodingUndetected) {
		t.Errorf("SniffEncoding(bad) error = %v, want ErrEncodingUndetected", err)
	}

	_, err = SniffEncoding(filepath.Join(t.TempDir(), "missing.csv"))
	var re *ReadError
	if !errors.As(err, &re) {
		t.Errorf("SniffEncoding(missing) error = %v, want ReadError", err)
	}
}

func TestSniffEncoding_MultibyteAcrossSampleBoundary(t *testing.T) {
	data := []byte(strings.Repeat("a", EncodingSampleSize-1) + "я,b\n")
	path := writeFile(t, "boundary.csv", data)

	got, err := SniffEncoding(path)
	if err != nil {
		t.Fatalf("SniffEncoding() error = %v", err)
	}
	if got != UTF8 {
		t.Errorf("SniffEncoding() = %v, want utf-8", got)
	}
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		want          Delimiter
		wantDefaulted bool
	}{
		{"comma", "a,b,c\n1,2,3", Comma, false},
		{"semicolon", "a;b;c\n1;2,5;3", Semicolon, false},
		{"tab", "a\tb\tc", Tab, false},
		{"tie comma semicolon", "a,b;c", Comma, false},
		{"tie semicolon tab", "a;b\tc", Semicolon, false},
		{"none", "single column", Comma, true},
		{"empty", "", Comma, true},
		{"colon is not sniffed", "a:b:c", Comma, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectDelimiter(tt.text)
			if got.Delimiter != tt.want || got.Defaulted != tt.wantDefaulted {
				t.Errorf("DetectDelimiter(%q) = %+v, want %v defaulted=%v",
					tt.text, got, tt.want, tt.wantDefaulted)
			}
		})
	}
}

func TestSniffDelimiter_File(t *testing.T) {
	path := writeFile(t, "win.csv", cp1251(t, "Имя;Город;Возраст\nИван;Москва;30\n"))

	got, err := SniffDelimiter(path, Windows1251)
	if err != nil {
		t.Fatalf("SniffDelimiter() error = %v", err)
	}
	if got.Delimiter != Semicolon || got.Count != 4 {
		t.Errorf("SniffDelimiter() = %+v, want semicolon x4", got)
	}
}

func TestSniffDelimiter_OnlyLooksAtSample(t *testing.T) {
	data := strings.Repeat("x", DelimiterSampleSize) + strings.Repeat(";", 50)
	path := writeFile(t, "long.csv", []byte(data))

	got, err := SniffDelimiter(path, UTF8)
	if err != nil {
		t.Fatalf("SniffDelimiter() error = %v", err)
	}
	if !got.Defaulted {
		t.Errorf("SniffDelimiter() = %+v, want defaulted guess", got)
	}
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    Delimiter
		wantErr bool
	}{
		{"comma", Comma, false},
		{"Semicolon", Semicolon, false},
		{"tab", Tab, false},
		{`\t`, Tab, false},
		{"\t", Tab, false},
		{"space", Space, false},
		{" ", Space, false},
		{"colon", Colon, false},
		{":", Colon, false},
		{";", Semicolon, false},
		{"pipe", 0, true},
		{"|", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDelimiter(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDelimiter(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseDelimiter(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseEncoding(t *testing.T) {
	for in, want := range map[string]Encoding{
		"utf-8":        UTF8,
		"UTF8":         UTF8,
		"cp1251":       Windows1251,
		"windows-1251": Windows1251,
	} {
		got, err := ParseEncoding(in)
		if err != nil || got != want {
			t.Errorf("ParseEncoding(%q) = %v, %v; want %v", in, got, err, want)
		}
	}

	if _, err := ParseEncoding("latin1"); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("ParseEncoding(latin1) error = %v, want ErrUnsupportedEncoding", err)
	}
}
