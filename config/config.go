// Package config provides configuration management for recall.
package config

import (
	"fmt"
	"time"
)

// Config is the global configuration for recall.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Server is the HTTP server configuration.
	Server ServerConfig `mapstructure:"server" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Storage selects and configures the memory store.
	Storage StorageConfig `mapstructure:"storage"`

	// Cache configures the coaching cache.
	Cache CacheConfig `mapstructure:"cache"`

	// Generator configures the text generation backend.
	Generator GeneratorConfig `mapstructure:"generator"`

	// Insight holds alert thresholds and quiz settings.
	Insight InsightConfig `mapstructure:"insight"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing is the distributed tracing configuration.
	Tracing TracingConfig `mapstructure:"tracing"`

	// WebSocket configures the live event stream.
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Version is the application version.
	Version string `mapstructure:"version"`

	// Environment is the runtime environment (development, staging, production).
	Environment string `mapstructure:"environment" validate:"env"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	// Host is the bind address.
	Host string `mapstructure:"host"`

	// Port is the HTTP API port.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`

	// HTTP is the HTTP server configuration.
	HTTP HTTPConfig `mapstructure:"http"`

	// CORS is the CORS configuration.
	CORS CORSConfig `mapstructure:"cors"`
}

// HTTPConfig holds HTTP-specific settings.
type HTTPConfig struct {
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// RequestTimeout bounds each API request, including generator calls.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	MaxHeaderBytes int `mapstructure:"max_header_bytes"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the output format (json, text).
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is the output destination (stdout, stderr, or file path).
	Output string `mapstructure:"output"`

	// Tee also writes human-readable text to stderr when Output is a file.
	Tee bool `mapstructure:"tee"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	// Type is the storage backend (memory, badger, sqlite, remote).
	Type string `mapstructure:"type" validate:"oneof=memory badger sqlite remote"`

	// Badger is the BadgerDB configuration.
	Badger BadgerConfig `mapstructure:"badger"`

	// SQLite is the SQLite configuration.
	SQLite SQLiteConfig `mapstructure:"sqlite"`

	// Remote is the hosted memory API configuration.
	Remote RemoteConfig `mapstructure:"remote"`
}

// BadgerConfig holds BadgerDB-specific settings.
type BadgerConfig struct {
	// Path is the database directory path.
	Path string `mapstructure:"path"`

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool `mapstructure:"sync_writes"`

	// ValueLogFileSize is the maximum size of value log files in bytes.
	ValueLogFileSize int64 `mapstructure:"value_log_file_size" validate:"min=0"`

	// NumVersionsToKeep is the number of versions to keep per key.
	NumVersionsToKeep int `mapstructure:"num_versions_to_keep" validate:"min=0"`

	// L1CacheSize is the number of records kept in the in-process LRU. 0 disables it.
	L1CacheSize int `mapstructure:"l1_cache_size" validate:"min=0"`
}

// SQLiteConfig holds SQLite settings.
type SQLiteConfig struct {
	// Path is the database file.
	Path string `mapstructure:"path"`
}

// RemoteConfig holds the hosted memory API settings.
type RemoteConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds coaching cache settings.
type CacheConfig struct {
	// Type is the cache backend (none, memory, redis).
	Type string `mapstructure:"type" validate:"oneof=none memory redis"`

	// TTL is how long coached alerts are reused.
	TTL time.Duration `mapstructure:"ttl"`

	// MaxEntries bounds the in-process cache.
	MaxEntries int `mapstructure:"max_entries" validate:"min=0"`

	// Redis is the Redis configuration.
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	// Address is the Redis server address.
	Address string `mapstructure:"address"`

	// Password is the Redis password.
	Password string `mapstructure:"password"`

	// DB is the Redis database number.
	DB int `mapstructure:"db" validate:"min=0"`

	// KeyPrefix namespaces cache keys.
	KeyPrefix string `mapstructure:"key_prefix"`
}

// GeneratorConfig holds text generation settings.
type GeneratorConfig struct {
	// Provider is the backend (none, anthropic, openai).
	Provider string `mapstructure:"provider" validate:"oneof=none anthropic openai"`

	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	BaseURL     string        `mapstructure:"base_url"`
	MaxTokens   int           `mapstructure:"max_tokens" validate:"min=1"`
	Temperature float64       `mapstructure:"temperature" validate:"min=0,max=2"`
	Timeout     time.Duration `mapstructure:"timeout"`

	// RateLimit is the sustained request rate per second. 0 disables limiting.
	RateLimit float64 `mapstructure:"rate_limit" validate:"min=0"`

	// Burst is the limiter bucket size.
	Burst int `mapstructure:"burst" validate:"min=0"`
}

// InsightConfig holds alert thresholds and quiz settings.
type InsightConfig struct {
	StaleDays       int `mapstructure:"stale_days" validate:"min=1"`
	StaleBacklogMin int `mapstructure:"stale_backlog_min" validate:"min=1"`
	UpcomingDays    int `mapstructure:"upcoming_days" validate:"min=1"`
	MaxAlerts       int `mapstructure:"max_alerts" validate:"min=1"`
	QuizConcurrency int `mapstructure:"quiz_concurrency" validate:"min=1"`
}

// MetricsConfig holds observability settings.
type MetricsConfig struct {
	// Enabled enables metrics collection.
	Enabled bool `mapstructure:"enabled"`

	// Path is the metrics endpoint path.
	Path string `mapstructure:"path"`

	// Port is the metrics server port.
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

// TracingConfig holds distributed tracing settings.
type TracingConfig struct {
	// Enabled enables distributed tracing.
	Enabled bool `mapstructure:"enabled"`

	// Exporter is the span exporter (otlp).
	Exporter string `mapstructure:"exporter" validate:"oneof=otlp"`

	// Endpoint is the collector endpoint.
	Endpoint string `mapstructure:"endpoint"`

	// Timeout bounds each export.
	Timeout time.Duration `mapstructure:"timeout"`

	// Headers are sent with every export.
	Headers map[string]string `mapstructure:"headers"`

	// Sampler is always_on, always_off or ratio.
	Sampler string `mapstructure:"sampler" validate:"omitempty,oneof=always_on always_off ratio"`

	// SampleRate is the fraction of traces to sample (0.0-1.0).
	SampleRate float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

// WebSocketConfig holds live event stream settings.
type WebSocketConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	MaxConnections int           `mapstructure:"max_connections" validate:"min=0"`
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongTimeout    time.Duration `mapstructure:"pong_timeout"`

	// Relay mirrors events between instances through the cache's Redis server.
	Relay RelayConfig `mapstructure:"relay"`
}

// RelayConfig holds cross-instance event relay settings.
type RelayConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Channel string `mapstructure:"channel"`
}

// Validate performs validation on the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// String returns a string representation of the configuration (without sensitive data).
func (c *Config) String() string {
	return fmt.Sprintf("Config{App: %s, Server: :%d, Env: %s, Storage: %s, Generator: %s}",
		c.App.Name, c.Server.Port, c.App.Environment, c.Storage.Type, c.Generator.Provider)
}
