// Package config loads the viewer's settings from an optional YAML file and
// environment variables, and validates them on startup.
package config

import (
	"strconv"
	"time"
)

// Data source kinds.
const (
	SourceMock     = "mock"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// Config holds all application configuration.
// Every setting can be given in the YAML file named by CONFIG_FILE and
// overridden by its environment variable.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Source   SourceConfig    `yaml:"source"`
	Viewer   ViewerConfig    `yaml:"viewer"`
	Rate     RateLimitConfig `yaml:"rate"`
	Security SecurityConfig  `yaml:"security"`
	Logging  LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `yaml:"host" env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `yaml:"port" env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 0 for websockets)
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// SourceConfig selects and configures the DataSource.
type SourceConfig struct {
	// Kind is one of mock, postgres, sqlite (default: mock)
	Kind string `yaml:"kind" env:"DATA_SOURCE" default:"mock"`

	// DatabaseURL is the PostgreSQL connection string, required for postgres.
	// DB_URL is accepted for compatibility.
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `yaml:"max_conns" env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `yaml:"min_conns" env:"DB_MIN_CONNS" default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// SQLitePath is the database file for the sqlite source (default: emis.db)
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" default:"emis.db"`

	// SQLiteSeed fills empty sqlite tables with demo rows on startup
	SQLiteSeed bool `yaml:"sqlite_seed" env:"SQLITE_SEED" default:"false"`

	// MockLatency is the simulated network delay of the mock source (default: 1500ms)
	MockLatency time.Duration `yaml:"mock_latency" env:"MOCK_LATENCY" default:"1500ms"`

	// MaxConcurrent caps fetches running against the source at once (default: 8)
	MaxConcurrent int `yaml:"max_concurrent" env:"SOURCE_MAX_CONCURRENT" default:"8"`

	// MaxWait is how long a fetch waits for a free slot (default: 10s)
	MaxWait time.Duration `yaml:"max_wait" env:"SOURCE_MAX_WAIT" default:"10s"`

	// FetchTimeout bounds a single fetch (default: 30s)
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"FETCH_TIMEOUT" default:"30s"`
}

// ViewerConfig holds per-session viewer settings.
type ViewerConfig struct {
	// ExportPrefix is the CSV file name prefix (default: emis_data)
	ExportPrefix string `yaml:"export_prefix" env:"EXPORT_PREFIX" default:"emis_data"`

	// StatusDismissAfter is how long a success status stays visible (default: 5s)
	StatusDismissAfter time.Duration `yaml:"status_dismiss_after" env:"STATUS_DISMISS_AFTER" default:"5s"`

	// SessionIdleTimeout closes sessions unused for this long (default: 30m)
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout" env:"SESSION_IDLE_TIMEOUT" default:"30m"`

	// SessionSweepInterval is how often idle sessions are looked for (default: 1m)
	SessionSweepInterval time.Duration `yaml:"session_sweep_interval" env:"SESSION_SWEEP_INTERVAL" default:"1m"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the limit per IP (default: 100)
	RequestsPerMinute int `yaml:"requests_per_minute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// FetchLimit is requests per minute for fetch and refresh (default: 20)
	FetchLimit int `yaml:"fetch_limit" env:"RATE_LIMIT_FETCH" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `yaml:"enable_csp" env:"SECURITY_ENABLE_CSP" default:"true"`

	// AllowedOrigins lists origins allowed to open the status websocket.
	// Empty means same-origin only.
	AllowedOrigins []string `yaml:"allowed_origins" env:"WS_ALLOWED_ORIGINS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `yaml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `yaml:"format" env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
