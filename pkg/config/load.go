package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable overrides.
const EnvPrefix = "QUILL_"

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded on top of NewDefault, remaining zero values are
// defaulted, and the result is validated. Environment variables are not
// consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration bytes on top of the defaults. It does not
// validate the result.
func Parse(data []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention QUILL_SECTION_FIELD (e.g., QUILL_PROXY_LISTEN_ADDRESS).
// DEEPSEEK_API_KEY and PORT are honoured as well.
//
// An empty path skips the file and starts from the defaults, so the service
// can be configured purely through the environment.
//
// The loading sequence is:
// 1. Load YAML from file (or defaults)
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = NewDefault()
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		cfg, err = Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Plain variables understood by the service before it had a config file.
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		cfg.Upstream.APIKey = val
	}
	if val := os.Getenv("PORT"); val != "" {
		cfg.Proxy.ListenAddress = replacePort(cfg.Proxy.ListenAddress, val)
	}

	// Proxy overrides
	envString("PROXY_LISTEN_ADDRESS", &cfg.Proxy.ListenAddress)
	envDuration("PROXY_READ_TIMEOUT", &cfg.Proxy.ReadTimeout)
	envDuration("PROXY_WRITE_TIMEOUT", &cfg.Proxy.WriteTimeout)
	envDuration("PROXY_IDLE_TIMEOUT", &cfg.Proxy.IdleTimeout)
	envDuration("PROXY_SHUTDOWN_TIMEOUT", &cfg.Proxy.ShutdownTimeout)
	envInt("PROXY_MAX_HEADER_BYTES", &cfg.Proxy.MaxHeaderBytes)
	if val := os.Getenv(EnvPrefix + "PROXY_MAX_BODY_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Proxy.MaxBodyBytes = i
		}
	}
	envBool("PROXY_CORS_ENABLED", &cfg.Proxy.CORS.Enabled)
	if val := os.Getenv(EnvPrefix + "PROXY_CORS_ALLOWED_ORIGINS"); val != "" {
		cfg.Proxy.CORS.AllowedOrigins = splitList(val)
	}

	// Upstream overrides
	envString("UPSTREAM_NAME", &cfg.Upstream.Name)
	envString("UPSTREAM_BASE_URL", &cfg.Upstream.BaseURL)
	envString("UPSTREAM_API_KEY", &cfg.Upstream.APIKey)
	envString("UPSTREAM_MODEL", &cfg.Upstream.Model)
	envFloat("UPSTREAM_TEMPERATURE", &cfg.Upstream.Temperature)
	envDuration("UPSTREAM_TIMEOUT", &cfg.Upstream.Timeout)
	envInt("UPSTREAM_MAX_RETRIES", &cfg.Upstream.MaxRetries)

	// Conversation overrides
	envInt("CONVERSATION_MAX_MESSAGES", &cfg.Conversation.MaxMessages)
	envString("CONVERSATION_SYSTEM_PROMPT", &cfg.Conversation.SystemPrompt)
	envDuration("CONVERSATION_IDLE_TTL", &cfg.Conversation.IdleTTL)
	envString("CONVERSATION_REAP_SCHEDULE", &cfg.Conversation.ReapSchedule)

	// Copywriter overrides
	envString("COPYWRITER_MODEL", &cfg.Copywriter.Model)
	envFloat("COPYWRITER_TEMPERATURE", &cfg.Copywriter.Temperature)
	envInt("COPYWRITER_MAX_TOKENS", &cfg.Copywriter.MaxTokens)

	// Limits overrides
	envBool("LIMITS_ENABLED", &cfg.Limits.Enabled)
	envInt("LIMITS_REQUESTS", &cfg.Limits.Requests)
	envDuration("LIMITS_WINDOW", &cfg.Limits.Window)
	envBool("LIMITS_TRUST_FORWARDED_FOR", &cfg.Limits.TrustForwardedFor)

	// Ledger overrides
	envBool("LEDGER_ENABLED", &cfg.Ledger.Enabled)
	envString("LEDGER_BACKEND", &cfg.Ledger.Backend)
	envString("LEDGER_DRIVER", &cfg.Ledger.Driver)
	envString("LEDGER_PATH", &cfg.Ledger.Path)
	envInt("LEDGER_RETENTION_DAYS", &cfg.Ledger.RetentionDays)
	envString("LEDGER_PRUNE_SCHEDULE", &cfg.Ledger.PruneSchedule)

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	envBool("TELEMETRY_LOGGING_REDACT", &cfg.Telemetry.Logging.Redact)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envString("TELEMETRY_METRICS_NAMESPACE", &cfg.Telemetry.Metrics.Namespace)
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envFloat(key string, dst *float64) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// replacePort swaps the port of a host:port address.
func replacePort(addr, port string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[:i+1] + port
	}
	return addr + ":" + port
}
