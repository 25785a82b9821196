// Package config provides configuration management for Quill.
//
// This package handles loading, validating, and reloading configuration from
// YAML files with environment variable overrides.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("quill.yaml")
//
//  2. From a YAML file (or no file at all) with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("quill.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention QUILL_SECTION_FIELD.
// For example:
//
//   - QUILL_PROXY_LISTEN_ADDRESS overrides proxy.listen_address
//   - QUILL_UPSTREAM_MODEL overrides upstream.model
//   - QUILL_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// DEEPSEEK_API_KEY sets upstream.api_key and PORT replaces the port of
// proxy.listen_address.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// Watcher observes the configuration file with fsnotify and hands each
// successfully reloaded Config to a callback. The server uses it to change
// the log level without a restart.
//
// # Example Configuration
//
//	proxy:
//	  listen_address: "0.0.0.0:8015"
//	upstream:
//	  base_url: "https://api.deepseek.com"
//	  model: "deepseek-chat"
//	  temperature: 0.7
//	conversation:
//	  max_messages: 20
//	  idle_ttl: "1h"
//	copywriter:
//	  temperature: 0.8
//	  max_tokens: 1000
//	limits:
//	  requests: 100
//	  window: "15m"
//	ledger:
//	  backend: "sqlite"
//	  driver: "sqlite"
//	  path: "data/ledger.db"
//	  retention_days: 30
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//	  metrics:
//	    enabled: true
package config
