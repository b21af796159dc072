// Package config provides configuration management for Palisade.
//
// Configuration is loaded from a YAML file with environment variable
// overrides, validated, and exposed either as an explicit value or through
// an application-wide singleton.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("config.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("config.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention PALISADE_SECTION_FIELD:
//
//   - PALISADE_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - PALISADE_MODERATION_API_KEY overrides moderation.api_key
//   - PALISADE_ADMIN_TOKEN overrides admin.token
//
// Environment variables always take precedence over file values.
//
// # Configuration Precedence
//
// Values are applied in order (later overrides earlier):
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For application-wide access:
//
//	if err := config.Initialize("config.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// For testing, prefer dependency injection with explicit Config instances.
//
// # Hot Reload
//
// Watch observes the configuration file with fsnotify and swaps the
// singleton when the file changes and still validates. Only the rate limit
// setting is applied to a running server; structural settings such as
// listen address and storage paths require a restart.
package config
