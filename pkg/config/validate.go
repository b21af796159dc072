package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"

	"palisade-hq/palisade/pkg/keys"
)

// FieldError represents a validation error for a specific configuration
// field.
type FieldError struct {
	// Field is the dotted path to the field, e.g. "server.listen_address".
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a
// configuration. All field errors are collected and returned together.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration. It returns nil if the
// configuration is valid, or a ValidationError listing every failure.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateKeys(&cfg.Keys)...)
	errs = append(errs, validateLimits(&cfg.Limits)...)
	errs = append(errs, validateUsage(&cfg.Usage)...)
	errs = append(errs, validateModeration(&cfg.Moderation)...)
	errs = append(errs, validateAdmin(&cfg.Admin)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: must be host:port", cfg.ListenAddress),
		})
	}

	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "must not be negative",
		})
	}
	return errs
}

func validateKeys(cfg *KeysConfig) []FieldError {
	var errs []FieldError

	if cfg.Prefix == "" {
		errs = append(errs, FieldError{
			Field:   "keys.prefix",
			Message: "prefix is required",
		})
	}
	if cfg.SecretBytes < keys.MinSecretBytes {
		errs = append(errs, FieldError{
			Field:   "keys.secret_bytes",
			Message: fmt.Sprintf("must be at least %d", keys.MinSecretBytes),
		})
	}
	if cfg.Backend != "sqlite" && cfg.Backend != "memory" {
		errs = append(errs, FieldError{
			Field:   "keys.backend",
			Message: fmt.Sprintf("unknown backend %q: must be sqlite or memory", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "keys.sqlite_path",
			Message: "sqlite path is required for the sqlite backend",
		})
	}
	return errs
}

func validateLimits(cfg *LimitsConfig) []FieldError {
	var errs []FieldError

	if cfg.RequestsPerMinute < 0 {
		errs = append(errs, FieldError{
			Field:   "limits.requests_per_minute",
			Message: "must not be negative (zero disables limiting)",
		})
	}
	return errs
}

func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	if cfg.Backend != "sqlite" && cfg.Backend != "memory" {
		errs = append(errs, FieldError{
			Field:   "usage.backend",
			Message: fmt.Sprintf("unknown backend %q: must be sqlite or memory", cfg.Backend),
		})
	}
	if cfg.Backend == "sqlite" && cfg.SQLitePath == "" {
		errs = append(errs, FieldError{
			Field:   "usage.sqlite_path",
			Message: "sqlite path is required for the sqlite backend",
		})
	}
	if cfg.AsyncBuffer < 1 {
		errs = append(errs, FieldError{
			Field:   "usage.async_buffer",
			Message: "must be at least 1",
		})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{
			Field:   "usage.retention.days",
			Message: "must not be negative (zero keeps records forever)",
		})
	}
	if cfg.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "usage.retention.schedule",
				Message: fmt.Sprintf("invalid cron expression %q", cfg.Retention.Schedule),
			})
		}
	}
	return errs
}

func validateModeration(cfg *ModerationConfig) []FieldError {
	var errs []FieldError

	if cfg.BaseURL == "" {
		errs = append(errs, FieldError{
			Field:   "moderation.base_url",
			Message: "base URL is required",
		})
	} else if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "moderation.base_url",
			Message: fmt.Sprintf("invalid URL %q", cfg.BaseURL),
		})
	}

	if cfg.APIKey == "" && cfg.APIKeyFile == "" {
		errs = append(errs, FieldError{
			Field:   "moderation.api_key",
			Message: "api key is required (set api_key, api_key_file, or PALISADE_MODERATION_API_KEY)",
		})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{
			Field:   "moderation.max_retries",
			Message: "must not be negative",
		})
	}
	return errs
}

func validateAdmin(cfg *AdminConfig) []FieldError {
	var errs []FieldError

	if cfg.Token == "" && cfg.TokenFile == "" {
		errs = append(errs, FieldError{
			Field:   "admin.token",
			Message: "admin token is required (set token, token_file, or PALISADE_ADMIN_TOKEN)",
		})
	} else if cfg.Token != "" && len(cfg.Token) < 16 {
		errs = append(errs, FieldError{
			Field:   "admin.token",
			Message: "admin token must be at least 16 characters",
		})
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown level %q: must be debug, info, warn, or error", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown format %q: must be json or text", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}
	return errs
}
