// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
// Every setting is read from an environment variable named after its
// section, e.g. SERVER_PORT or IMPORT_MAX_FILE_SIZE.
type Config struct {
	Server   ServerConfig    `envconfig:"SERVER"`
	Database DatabaseConfig  `envconfig:"DATABASE"`
	Cache    CacheConfig     `envconfig:"CACHE"`
	Import   ImportConfig    `envconfig:"IMPORT"`
	Rate     RateLimitConfig `envconfig:"RATE_LIMIT"`
	Security SecurityConfig  `envconfig:"SECURITY"`
	Logging  LoggingConfig   `envconfig:"LOG"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `split_words:"true" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `split_words:"true" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 30s)
	ReadTimeout time.Duration `split_words:"true" default:"30s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `split_words:"true" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 120s)
	IdleTimeout time.Duration `split_words:"true" default:"120s"`

	// ShutdownTimeout bounds graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `split_words:"true" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `split_words:"true" default:"60s"`
}

// DatabaseConfig holds persistence settings.
type DatabaseConfig struct {
	// Driver selects the product store: postgres or memory (default: postgres)
	Driver string `split_words:"true" default:"postgres"`

	// URL is the PostgreSQL connection string, required for the postgres driver.
	// DB_URL is accepted when DATABASE_URL is unset.
	URL string `split_words:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `split_words:"true" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `split_words:"true" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `split_words:"true" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `split_words:"true" default:"30m"`

	// AutoMigrate creates the products table on startup (default: true)
	AutoMigrate bool `split_words:"true" default:"true"`
}

// CacheConfig holds the Redis product cache settings.
type CacheConfig struct {
	// RedisAddr is host:port of Redis. Empty disables caching.
	RedisAddr string `split_words:"true"`

	// TTL is how long a cached product list lives (default: 5m)
	TTL time.Duration `split_words:"true" default:"5m"`
}

// ImportConfig holds bulk import settings.
type ImportConfig struct {
	// MaxFileSize is the largest accepted upload in bytes (default: 10MB)
	MaxFileSize int64 `split_words:"true" default:"10485760"`

	// MaxConcurrent is the number of imports parsed at once (default: 3)
	MaxConcurrent int `split_words:"true" default:"3"`

	// MaxWaitTime is how long an import waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `split_words:"true" default:"30s"`

	// SessionTTL is how long a previewed import can still be committed (default: 30m)
	SessionTTL time.Duration `split_words:"true" default:"30m"`

	// Timeout bounds parsing and committing one import (default: 2m)
	Timeout time.Duration `split_words:"true" default:"2m"`

	// DefaultStock is the stock given to sizes without a count (default: 10)
	DefaultStock int `split_words:"true" default:"10"`

	// FallbackCategory is used when no keyword matches (default: padel)
	FallbackCategory string `split_words:"true" default:"padel"`

	// FallbackSubcategory is used when no keyword matches (default: accessories)
	FallbackSubcategory string `split_words:"true" default:"accessories"`
}

// RateLimitConfig holds per-IP rate limits.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `split_words:"true" default:"true"`

	// RequestsPerMinute is the general limit per IP (default: 120)
	RequestsPerMinute int `split_words:"true" default:"120"`

	// ImportLimit is the per-minute limit on import uploads (default: 10)
	ImportLimit int `split_words:"true" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey protects the admin API with X-API-Key (default: false)
	RequireAPIKey bool `split_words:"true" default:"false"`

	// APIKeys is a comma-separated list of accepted admin keys
	APIKeys []string `split_words:"true"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `split_words:"true" default:"true"`

	// SSLRedirect redirects plain HTTP to HTTPS (default: false)
	SSLRedirect bool `split_words:"true" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `split_words:"true" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `split_words:"true" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
