// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Table    TableConfig
	Session  SessionConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
// The database is optional: without a URL, snapshots stay in memory and
// server-side datasets are unavailable.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the minimum number of connections to keep open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// SnapshotTable stores persisted table state (default: datatable_state)
	SnapshotTable string `env:"DB_SNAPSHOT_TABLE" default:"datatable_state"`

	// FetchConcurrency caps concurrent row fetches against the database (default: 8)
	FetchConcurrency int `env:"DB_FETCH_CONCURRENCY" default:"8"`

	// FetchWait is how long a fetch waits for a free slot (default: 10s)
	FetchWait time.Duration `env:"DB_FETCH_WAIT" default:"10s"`
}

// Enabled reports whether a database is configured.
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// TableConfig holds dataset discovery and table defaults.
type TableConfig struct {
	// DatasetDir is where dataset definitions live (default: datasets)
	DatasetDir string `env:"DATASET_DIR" default:"datasets"`

	// DatasetGlob selects definition files inside DatasetDir (default: **/*.{yaml,yml})
	DatasetGlob string `env:"DATASET_GLOB" default:"**/*.{yaml,yml}"`

	// RowsPerPage is the default page size (default: 10)
	RowsPerPage int `env:"TABLE_ROWS_PER_PAGE" default:"10"`

	// RowsPerPageOptions are the offered page sizes (default: 10,15,100)
	RowsPerPageOptions []int `env:"TABLE_ROWS_PER_PAGE_OPTIONS" default:"10,15,100"`

	// FilterType is the default filter control (default: checkbox)
	FilterType string `env:"TABLE_FILTER_TYPE" default:"checkbox"`

	// CSVSeparator separates downloaded CSV fields (default: ,)
	CSVSeparator string `env:"TABLE_CSV_SEPARATOR" default:","`

	// Locale drives string collation when sorting (default: en)
	Locale string `env:"TABLE_LOCALE" default:"en"`
}

// SessionConfig holds table session lifetime settings.
type SessionConfig struct {
	// TTL closes sessions idle for longer than this (default: 30m)
	TTL time.Duration `env:"SESSION_TTL" default:"30m"`

	// SweepInterval is how often idle sessions are checked (default: 1m)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"1m"`

	// MaxOpen caps concurrently open sessions, 0 for no limit (default: 1000)
	MaxOpen int `env:"SESSION_MAX_OPEN" default:"1000"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// DownloadLimit is requests per minute for download endpoints (default: 10)
	DownloadLimit int `env:"RATE_LIMIT_DOWNLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `env:"API_KEYS"`

	// RequireAPIKey protects /api routes with X-API-Key (default: false)
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
