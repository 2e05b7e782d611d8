// Package config loads application settings from environment variables with
// defaults and validates them on startup so misconfiguration fails fast.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	CSV      CSVConfig
	Export   ExportConfig
	Session  SessionConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds the optional PostgreSQL connection used by push.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. Empty disables push.
	// Supports both DATABASE_URL and DB_URL.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns int32 `env:"DB_MAX_CONNS" default:"10"`
	MinConns int32 `env:"DB_MIN_CONNS" default:"0"`

	// Replace drops an existing target table before a push instead of appending.
	Replace bool `env:"DB_PUSH_REPLACE" default:"false"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool { return c.URL != "" }

// CSVConfig holds loading and writing settings.
type CSVConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 100MB)
	MaxFileSize int64 `env:"CSV_MAX_FILE_SIZE" default:"104857600"`

	// PreviewRows is how many rows the preview shows (default: 20)
	PreviewRows int `env:"CSV_PREVIEW_ROWS" default:"20"`

	// CRLF writes \r\n line endings.
	CRLF bool `env:"CSV_CRLF" default:"false"`

	// OutputEncoding forces the write encoding (utf-8 or cp1251).
	// Empty keeps the encoding the file was read with.
	OutputEncoding string `env:"CSV_OUTPUT_ENCODING"`
}

// ExportConfig holds chunk export settings.
type ExportConfig struct {
	// ScratchDir is the parent of per-export scratch directories. Empty means the OS temp dir.
	ScratchDir string `env:"EXPORT_SCRATCH_DIR"`

	// BaseName is the default chunk file prefix (default: part)
	BaseName string `env:"EXPORT_BASE_NAME" default:"part"`

	// MaxConcurrent is how many exports may run at once (default: 4)
	MaxConcurrent int `env:"EXPORT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an export slot (default: 30s)
	MaxWaitTime time.Duration `env:"EXPORT_MAX_WAIT_TIME" default:"30s"`
}

// SessionConfig holds web session settings.
type SessionConfig struct {
	// TTL is how long an idle session is kept (default: 30m)
	TTL time.Duration `env:"SESSION_TTL" default:"30m"`

	// MaxSessions caps live sessions (default: 100)
	MaxSessions int `env:"SESSION_MAX" default:"100"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// APIKeys is a comma-separated list of accepted keys. Empty disables auth.
	APIKeys []string `env:"API_KEYS"`

	// RequireAPIKey rejects every API request without a valid key.
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
