package config

import "time"

// Config is the root configuration for the Palisade service.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `yaml:"server"`

	// Keys configures credential issuance and storage.
	Keys KeysConfig `yaml:"keys"`

	// Limits configures the per-credential rate limiter.
	Limits LimitsConfig `yaml:"limits"`

	// Usage configures request logging and retention.
	Usage UsageConfig `yaml:"usage"`

	// Moderation configures the downstream moderation backend.
	Moderation ModerationConfig `yaml:"moderation"`

	// Admin configures the administrative surface.
	Admin AdminConfig `yaml:"admin"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	// ListenAddress is the address and port to bind to.
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request on a
	// kept-alive connection.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// RequestTimeout bounds handler execution per request.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes limits the size of request bodies.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// CORS configures cross-origin resource sharing for browser clients.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains cross-origin settings. Disabled by default; the
// gateway is typically called server to server.
type CORSConfig struct {
	// Enabled emits CORS headers and answers preflight requests.
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins lists allowed origins. ["*"] allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods lists allowed HTTP methods.
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders lists allowed request headers.
	AllowedHeaders []string `yaml:"allowed_headers"`

	// MaxAge is the preflight cache lifetime in seconds.
	MaxAge int `yaml:"max_age"`
}

// KeysConfig contains credential settings.
type KeysConfig struct {
	// Prefix is the literal prefix of every issued key.
	Prefix string `yaml:"prefix"`

	// SecretBytes is the number of random bytes in the key secret.
	SecretBytes int `yaml:"secret_bytes"`

	// Backend selects the credential store: "sqlite" or "memory".
	Backend string `yaml:"backend"`

	// SQLitePath is the credential database file path.
	SQLitePath string `yaml:"sqlite_path"`
}

// LimitsConfig contains rate limiter settings.
type LimitsConfig struct {
	// RequestsPerMinute is the per-credential window budget.
	// Zero disables limiting.
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// UsageConfig contains request logging settings.
type UsageConfig struct {
	// Enabled enables request log recording.
	Enabled bool `yaml:"enabled"`

	// Backend selects the request log store: "sqlite" or "memory".
	Backend string `yaml:"backend"`

	// SQLitePath is the request log database file path.
	SQLitePath string `yaml:"sqlite_path"`

	// AsyncBuffer is the recorder channel capacity.
	AsyncBuffer int `yaml:"async_buffer"`

	// WriteTimeout bounds a single storage write.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// Retention configures pruning of old records.
	Retention RetentionConfig `yaml:"retention"`
}

// RetentionConfig contains request log retention settings.
type RetentionConfig struct {
	// Days is the age cutoff. Zero keeps records forever.
	Days int `yaml:"days"`

	// Schedule is a cron expression for automatic pruning.
	// Empty disables the scheduler.
	Schedule string `yaml:"schedule"`

	// MaxRecords caps the total record count. Zero means unlimited.
	MaxRecords int64 `yaml:"max_records"`
}

// ModerationConfig contains downstream backend settings.
type ModerationConfig struct {
	// BaseURL is the backend API root.
	BaseURL string `yaml:"base_url"`

	// APIKey authenticates against the backend. Prefer APIKeyFile or the
	// PALISADE_MODERATION_API_KEY environment variable over putting the
	// key in the file.
	APIKey string `yaml:"api_key"`

	// APIKeyFile reads the backend key from a file at startup.
	APIKeyFile string `yaml:"api_key_file"`

	// VisionModel is the chat model for image and contextual analysis.
	VisionModel string `yaml:"vision_model"`

	// Timeout bounds a single backend request.
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the retry budget for transient failures.
	MaxRetries int `yaml:"max_retries"`
}

// AdminConfig contains administrative surface settings.
type AdminConfig struct {
	// Token is the shared secret for admin endpoints. Prefer TokenFile or
	// the PALISADE_ADMIN_TOKEN environment variable.
	Token string `yaml:"token"`

	// TokenFile reads the admin token from a file at startup.
	TokenFile string `yaml:"token_file"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint.
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	Path string `yaml:"path"`
}
