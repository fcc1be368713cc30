// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Snapshot storage backends accepted by CACHE_BACKEND.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server       ServerConfig
	Sheet        SheetConfig
	Cache        CacheConfig
	Database     DatabaseConfig
	SQLite       SQLiteConfig
	Supplemental SupplementalConfig
	Rate         RateLimitConfig
	Security     SecurityConfig
	Logging      LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 7001)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"7001"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout must cover a cold fetch of the sheet (default: 90s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"90s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// Title is the dashboard page heading
	Title string `env:"DASHBOARD_TITLE" default:"GKC Data Dashboard"`
}

// SheetConfig describes the published spreadsheet and how to read it.
type SheetConfig struct {
	// URL is the CSV export link of the published sheet
	URL string `env:"SHEET_URL" default:"https://docs.google.com/spreadsheets/d/18kCz2igidQVgqwLdpsDA15kYXLxqX99r/export?format=csv&gid=1370952005"`

	// FetchTimeout bounds one HTTP fetch of the export (default: 30s)
	FetchTimeout time.Duration `env:"SHEET_FETCH_TIMEOUT" default:"30s"`

	// MaxBytes caps the export body size (default: 32MB)
	MaxBytes int64 `env:"SHEET_MAX_BYTES" default:"33554432"`

	// UserAgent is sent with every fetch
	UserAgent string `env:"SHEET_USER_AGENT" default:"banboard/1.0"`

	// Sentinel is the header cell that marks the header row (default: Zip)
	Sentinel string `env:"SHEET_SENTINEL" default:"Zip"`

	// SentinelColumn is the zero-based column holding the sentinel (default: 1)
	SentinelColumn int `env:"SHEET_SENTINEL_COLUMN" default:"1"`

	// ReservedKeys are dropped from every record
	ReservedKeys []string `env:"SHEET_RESERVED_KEYS" default:"Country,column_0"`
}

// CacheConfig holds snapshot cache settings.
type CacheConfig struct {
	// TTL is how long a snapshot is served before refetching (default: 12h)
	TTL time.Duration `env:"CACHE_TTL" default:"12h"`

	// Backend selects snapshot storage: file, postgres, sqlite, memory (default: file)
	Backend string `env:"CACHE_BACKEND" default:"file"`

	// Path is the snapshot file for the file backend (default: data_cache.json)
	Path string `env:"CACHE_PATH" default:"data_cache.json"`

	// Key names the snapshot row for the database backends (default: sheet)
	Key string `env:"CACHE_KEY" default:"sheet"`

	// SingleFlight makes concurrent misses share one fetch (default: false)
	SingleFlight bool `env:"CACHE_SINGLEFLIGHT" default:"false"`
}

// DatabaseConfig holds database connection settings for the postgres backend.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string, required for CACHE_BACKEND=postgres
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// SQLiteConfig holds settings for the sqlite backend.
type SQLiteConfig struct {
	// Path is the database file (default: data_cache.db)
	Path string `env:"SQLITE_PATH" default:"data_cache.db"`
}

// SupplementalConfig locates the supplemental links document.
type SupplementalConfig struct {
	// Path is the JSON file served at /supplemental (default: supplemental.json)
	Path string `env:"SUPPLEMENTAL_PATH" default:"supplemental.json"`

	// Watch reloads the file on change instead of reading it per request (default: false)
	Watch bool `env:"SUPPLEMENTAL_WATCH" default:"false"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// RefreshLimit is requests per minute for the forced refresh endpoint (default: 2)
	RefreshLimit int `env:"RATE_LIMIT_REFRESH" default:"2"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// APIKeys is a comma-separated list of keys accepted by /api routes
	APIKeys []string `env:"API_KEYS"`

	// RequireAPIKey enforces API key auth on /api routes (default: false)
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
