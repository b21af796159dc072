package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, resolves file-based secrets, validates the
// configuration, and returns any errors. Environment variables are not
// consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	ApplyDefaults(cfg)

	if err := resolveSecretFiles(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Environment variables follow the
// naming convention PALISADE_SECTION_FIELD and always take precedence over
// file-based configuration.
//
// The loading sequence is:
//  1. Defaults
//  2. YAML file
//  3. Secret files
//  4. Environment variable overrides
//  5. Validation
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// resolveSecretFiles reads file-based secrets into their in-memory fields.
// The file value wins over an inline value so operators can move secrets
// out of the config file without editing two places.
func resolveSecretFiles(cfg *Config) error {
	if cfg.Moderation.APIKeyFile != "" {
		data, err := os.ReadFile(cfg.Moderation.APIKeyFile)
		if err != nil {
			return fmt.Errorf("failed to read moderation api key file %q: %w", cfg.Moderation.APIKeyFile, err)
		}
		cfg.Moderation.APIKey = strings.TrimSpace(string(data))
	}
	if cfg.Admin.TokenFile != "" {
		data, err := os.ReadFile(cfg.Admin.TokenFile)
		if err != nil {
			return fmt.Errorf("failed to read admin token file %q: %w", cfg.Admin.TokenFile, err)
		}
		cfg.Admin.Token = strings.TrimSpace(string(data))
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Variables use the format PALISADE_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("PALISADE_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("PALISADE_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("PALISADE_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("PALISADE_SERVER_REQUEST_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.RequestTimeout = d
		}
	}
	if val := os.Getenv("PALISADE_SERVER_MAX_BODY_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = i
		}
	}

	// Keys overrides
	if val := os.Getenv("PALISADE_KEYS_PREFIX"); val != "" {
		cfg.Keys.Prefix = val
	}
	if val := os.Getenv("PALISADE_KEYS_SECRET_BYTES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Keys.SecretBytes = i
		}
	}
	if val := os.Getenv("PALISADE_KEYS_BACKEND"); val != "" {
		cfg.Keys.Backend = val
	}
	if val := os.Getenv("PALISADE_KEYS_SQLITE_PATH"); val != "" {
		cfg.Keys.SQLitePath = val
	}

	// Limits overrides
	if val := os.Getenv("PALISADE_LIMITS_REQUESTS_PER_MINUTE"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Limits.RequestsPerMinute = i
		}
	}

	// Usage overrides
	if val := os.Getenv("PALISADE_USAGE_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Usage.Enabled = b
		}
	}
	if val := os.Getenv("PALISADE_USAGE_BACKEND"); val != "" {
		cfg.Usage.Backend = val
	}
	if val := os.Getenv("PALISADE_USAGE_SQLITE_PATH"); val != "" {
		cfg.Usage.SQLitePath = val
	}
	if val := os.Getenv("PALISADE_USAGE_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Usage.Retention.Days = i
		}
	}
	if val := os.Getenv("PALISADE_USAGE_RETENTION_SCHEDULE"); val != "" {
		cfg.Usage.Retention.Schedule = val
	}

	// Moderation overrides
	if val := os.Getenv("PALISADE_MODERATION_BASE_URL"); val != "" {
		cfg.Moderation.BaseURL = val
	}
	if val := os.Getenv("PALISADE_MODERATION_API_KEY"); val != "" {
		cfg.Moderation.APIKey = val
	}
	if val := os.Getenv("PALISADE_MODERATION_VISION_MODEL"); val != "" {
		cfg.Moderation.VisionModel = val
	}
	if val := os.Getenv("PALISADE_MODERATION_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Moderation.Timeout = d
		}
	}
	if val := os.Getenv("PALISADE_MODERATION_MAX_RETRIES"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Moderation.MaxRetries = i
		}
	}

	// Admin overrides
	if val := os.Getenv("PALISADE_ADMIN_TOKEN"); val != "" {
		cfg.Admin.Token = val
	}

	// Telemetry overrides
	if val := os.Getenv("PALISADE_TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("PALISADE_TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("PALISADE_TELEMETRY_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("PALISADE_TELEMETRY_METRICS_PATH"); val != "" {
		cfg.Telemetry.Metrics.Path = val
	}
}
