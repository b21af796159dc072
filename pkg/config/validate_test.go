package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Moderation.APIKey = "sk-test"
	cfg.Admin.Token = "super-secret-admin-token"
	return cfg
}

func TestValidateAccepts(t *testing.T) {
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("expected valid configuration, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"empty listen address", func(c *Config) { c.Server.ListenAddress = "" }, "server.listen_address"},
		{"listen address without port", func(c *Config) { c.Server.ListenAddress = "localhost" }, "server.listen_address"},
		{"empty key prefix", func(c *Config) { c.Keys.Prefix = "" }, "keys.prefix"},
		{"short secret", func(c *Config) { c.Keys.SecretBytes = 8 }, "keys.secret_bytes"},
		{"unknown keys backend", func(c *Config) { c.Keys.Backend = "postgres" }, "keys.backend"},
		{"sqlite backend without path", func(c *Config) { c.Keys.SQLitePath = "" }, "keys.sqlite_path"},
		{"negative rate limit", func(c *Config) { c.Limits.RequestsPerMinute = -1 }, "limits.requests_per_minute"},
		{"unknown usage backend", func(c *Config) { c.Usage.Backend = "redis" }, "usage.backend"},
		{"bad retention schedule", func(c *Config) { c.Usage.Retention.Schedule = "whenever" }, "usage.retention.schedule"},
		{"empty moderation url", func(c *Config) { c.Moderation.BaseURL = "" }, "moderation.base_url"},
		{"relative moderation url", func(c *Config) { c.Moderation.BaseURL = "api.openai.com" }, "moderation.base_url"},
		{"missing moderation key", func(c *Config) { c.Moderation.APIKey = "" }, "moderation.api_key"},
		{"missing admin token", func(c *Config) { c.Admin.Token = "" }, "admin.token"},
		{"short admin token", func(c *Config) { c.Admin.Token = "short" }, "admin.token"},
		{"unknown log level", func(c *Config) { c.Telemetry.Logging.Level = "verbose" }, "telemetry.logging.level"},
		{"unknown log format", func(c *Config) { c.Telemetry.Logging.Format = "xml" }, "telemetry.logging.format"},
		{"relative metrics path", func(c *Config) { c.Telemetry.Metrics.Path = "metrics" }, "telemetry.metrics.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Fatalf("expected error to name %s, got: %v", tt.field, err)
			}
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.ListenAddress = ""
	cfg.Keys.Prefix = ""
	cfg.Admin.Token = ""

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error")
	}

	verr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 3 {
		t.Fatalf("expected 3 field errors, got %d: %v", len(verr.Errors), verr)
	}
}

func TestZeroRateLimitIsValid(t *testing.T) {
	cfg := validConfig()
	cfg.Limits.RequestsPerMinute = 0
	if err := Validate(cfg); err != nil {
		t.Fatalf("zero disables limiting and must validate: %v", err)
	}
}

func TestEmptyRetentionScheduleIsValid(t *testing.T) {
	cfg := validConfig()
	cfg.Usage.Retention.Schedule = ""
	if err := Validate(cfg); err != nil {
		t.Fatalf("empty schedule disables the scheduler and must validate: %v", err)
	}
}
