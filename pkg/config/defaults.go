package config

import (
	"time"

	"palisade-hq/palisade/pkg/keys"
)

// Default values applied to unset fields.
const (
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultRequestTimeout  = 60 * time.Second
	DefaultMaxHeaderBytes  = 1 << 20  // 1 MiB
	DefaultMaxBodyBytes    = 1 << 20  // 1 MiB
	DefaultShutdownTimeout = 15 * time.Second

	DefaultKeysBackend    = "sqlite"
	DefaultKeysSQLitePath = "data/keys.db"

	DefaultRequestsPerMinute = 60

	DefaultUsageBackend      = "sqlite"
	DefaultUsageSQLitePath   = "data/usage.db"
	DefaultUsageAsyncBuffer  = 1000
	DefaultUsageWriteTimeout = 5 * time.Second
	DefaultRetentionDays     = 90
	DefaultRetentionSchedule = "0 3 * * *"

	DefaultModerationBaseURL = "https://api.openai.com/v1"
	DefaultVisionModel       = "gpt-4o"
	DefaultModerationTimeout = 30 * time.Second
	DefaultModerationRetries = 2

	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultMetricsPath = "/metrics"
)

// DefaultConfig returns a configuration with every default applied.
// Loading unmarshals the file over this value so that boolean fields
// default on but can still be switched off explicitly.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Usage.Enabled = true
	cfg.Telemetry.Metrics.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills unset fields with default values.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.CORS.Enabled {
		if len(cfg.Server.CORS.AllowedOrigins) == 0 {
			cfg.Server.CORS.AllowedOrigins = []string{"*"}
		}
		if len(cfg.Server.CORS.AllowedMethods) == 0 {
			cfg.Server.CORS.AllowedMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
		}
		if len(cfg.Server.CORS.AllowedHeaders) == 0 {
			cfg.Server.CORS.AllowedHeaders = []string{"Authorization", "Content-Type", "X-API-Key", "X-Request-ID"}
		}
		if cfg.Server.CORS.MaxAge == 0 {
			cfg.Server.CORS.MaxAge = 3600
		}
	}

	if cfg.Keys.Prefix == "" {
		cfg.Keys.Prefix = keys.DefaultPrefix
	}
	if cfg.Keys.SecretBytes == 0 {
		cfg.Keys.SecretBytes = keys.DefaultSecretBytes
	}
	if cfg.Keys.Backend == "" {
		cfg.Keys.Backend = DefaultKeysBackend
	}
	if cfg.Keys.SQLitePath == "" {
		cfg.Keys.SQLitePath = DefaultKeysSQLitePath
	}

	if cfg.Limits.RequestsPerMinute == 0 {
		cfg.Limits.RequestsPerMinute = DefaultRequestsPerMinute
	}

	if cfg.Usage.Backend == "" {
		cfg.Usage.Backend = DefaultUsageBackend
	}
	if cfg.Usage.SQLitePath == "" {
		cfg.Usage.SQLitePath = DefaultUsageSQLitePath
	}
	if cfg.Usage.AsyncBuffer == 0 {
		cfg.Usage.AsyncBuffer = DefaultUsageAsyncBuffer
	}
	if cfg.Usage.WriteTimeout == 0 {
		cfg.Usage.WriteTimeout = DefaultUsageWriteTimeout
	}
	if cfg.Usage.Retention.Days == 0 {
		cfg.Usage.Retention.Days = DefaultRetentionDays
	}
	if cfg.Usage.Retention.Schedule == "" {
		cfg.Usage.Retention.Schedule = DefaultRetentionSchedule
	}

	if cfg.Moderation.BaseURL == "" {
		cfg.Moderation.BaseURL = DefaultModerationBaseURL
	}
	if cfg.Moderation.VisionModel == "" {
		cfg.Moderation.VisionModel = DefaultVisionModel
	}
	if cfg.Moderation.Timeout == 0 {
		cfg.Moderation.Timeout = DefaultModerationTimeout
	}
	if cfg.Moderation.MaxRetries == 0 {
		cfg.Moderation.MaxRetries = DefaultModerationRetries
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}
