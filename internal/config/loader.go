package config

import (
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/csvmaster/internal/csvio"
)

// LookupFunc resolves one variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads configuration through lookup, applies defaults for unset
// values and validates the result.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration and panics on error.
// Use this only in main() where early termination is desired.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// loadStruct walks nested sections and fills every field carrying an env tag.
func loadStruct(v reflect.Value, lookup LookupFunc) error {
	t := v.Type()
	for i := range t.NumField() {
		f, fv := t.Field(i), v.Field(i)
		switch {
		case !fv.CanSet():
		case f.Type.Kind() == reflect.Struct:
			if err := loadStruct(fv, lookup); err != nil {
				return err
			}
		default:
			if err := loadField(f, fv, lookup); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadField resolves env, then envAlt, then default. A required field with
// neither env name set fails.
func loadField(f reflect.StructField, fv reflect.Value, lookup LookupFunc) error {
	name := f.Tag.Get("env")
	if name == "" {
		return nil
	}

	value := firstSet(lookup, name, f.Tag.Get("envAlt"))
	if value == "" {
		if f.Tag.Get("required") == "true" {
			return fmt.Errorf("%s is required", name)
		}
		value = f.Tag.Get("default")
	}
	if value == "" {
		return nil
	}

	if err := parseInto(fv, value); err != nil {
		return fmt.Errorf("%s=%q: %w", name, value, err)
	}
	return nil
}

func firstSet(lookup LookupFunc, names ...string) string {
	for _, n := range names {
		if n == "" {
			continue
		}
		if v, _ := lookup(n); v != "" {
			return v
		}
	}
	return ""
}

var durationType = reflect.TypeOf(time.Duration(0))

// parseInto stores value in fv according to fv's kind. Slices are
// comma-separated strings with blanks dropped.
func parseInto(fv reflect.Value, value string) error {
	switch k := fv.Kind(); {
	case fv.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))

	case k == reflect.String:
		fv.SetString(value)

	case k == reflect.Int || k == reflect.Int32 || k == reflect.Int64:
		n, err := strconv.ParseInt(value, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)

	case k == reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		fv.SetBool(b)

	case k == reflect.Slice && fv.Type().Elem().Kind() == reflect.String:
		var items []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		fv.Set(reflect.ValueOf(items))

	default:
		return fmt.Errorf("cannot load a %s", fv.Type())
	}
	return nil
}

// problems collects validation failures.
type problems []string

func (p *problems) require(ok bool, format string, args ...any) {
	if !ok {
		*p = append(*p, fmt.Sprintf(format, args...))
	}
}

// Validate checks every setting and reports all failures at once.
func (c *Config) Validate() error {
	var p problems

	p.require(c.Server.Port > 0 && c.Server.Port <= 65535, "SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	p.require(c.Server.ReadTimeout >= 0, "SERVER_READ_TIMEOUT must be non-negative")
	p.require(c.Server.ShutdownTimeout > 0, "SERVER_SHUTDOWN_TIMEOUT must be positive")

	if c.Database.Enabled() {
		p.require(c.Database.MaxConns > 0, "DB_MAX_CONNS must be positive")
		p.require(c.Database.MaxConns >= c.Database.MinConns,
			"DB_MAX_CONNS (%d) must be >= DB_MIN_CONNS (%d)", c.Database.MaxConns, c.Database.MinConns)
	}

	p.require(c.CSV.MaxFileSize > 0, "CSV_MAX_FILE_SIZE must be positive")
	p.require(c.CSV.PreviewRows > 0, "CSV_PREVIEW_ROWS must be positive")
	p.require(c.CSV.OutputEncoding == "" || c.CSV.Encoding() != csvio.EncodingUnknown,
		"CSV_OUTPUT_ENCODING (%q) must be utf-8 or cp1251", c.CSV.OutputEncoding)

	p.require(c.Export.BaseName != "" && !strings.ContainsAny(c.Export.BaseName, `/\`),
		"EXPORT_BASE_NAME (%q) must be a non-empty file name", c.Export.BaseName)
	p.require(c.Export.MaxConcurrent > 0, "EXPORT_MAX_CONCURRENT must be positive")
	p.require(c.Export.MaxWaitTime > 0, "EXPORT_MAX_WAIT_TIME must be positive")

	p.require(c.Session.TTL > 0, "SESSION_TTL must be positive")
	p.require(c.Session.MaxSessions > 0, "SESSION_MAX must be positive")

	p.require(!c.Security.RequireAPIKey || len(c.Security.APIKeys) > 0,
		"REQUIRE_API_KEY is set but API_KEYS is empty")

	p.require(slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Logging.Level)),
		"LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	p.require(slices.Contains([]string{"text", "json"}, strings.ToLower(c.Logging.Format)),
		"LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)

	if len(p) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(p, "\n  - "))
	}
	return nil
}

// Encoding is the configured write encoding, or EncodingUnknown to
// keep the source encoding.
func (c *CSVConfig) Encoding() csvio.Encoding {
	enc, err := csvio.ParseEncoding(c.OutputEncoding)
	if err != nil {
		return csvio.EncodingUnknown
	}
	return enc
}

// String returns a safe string representation of the config for logging.
// The database URL and API keys are masked.
func (c *Config) String() string {
	db := "[NONE]"
	if c.Database.Enabled() {
		db = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	fmt.Fprintf(&b, "Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port)
	fmt.Fprintf(&b, "Database: {URL: %s, MaxConns: %d, Replace: %v}, ", db, c.Database.MaxConns, c.Database.Replace)
	fmt.Fprintf(&b, "CSV: {MaxFileSize: %d, PreviewRows: %d, CRLF: %v, OutputEncoding: %q}, ",
		c.CSV.MaxFileSize, c.CSV.PreviewRows, c.CSV.CRLF, c.CSV.OutputEncoding)
	fmt.Fprintf(&b, "Export: {BaseName: %q, MaxConcurrent: %d}, ", c.Export.BaseName, c.Export.MaxConcurrent)
	fmt.Fprintf(&b, "Session: {TTL: %s, MaxSessions: %d}, ", c.Session.TTL, c.Session.MaxSessions)
	fmt.Fprintf(&b, "Security: {APIKeys: %d configured}, ", len(c.Security.APIKeys))
	fmt.Fprintf(&b, "Logging: {Level: %q, Format: %q}", c.Logging.Level, c.Logging.Format)
	b.WriteString("}")
	return b.String()
}
