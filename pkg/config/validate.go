package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "proxy.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
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

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All field errors are collected and returned
// together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateProxy(&cfg.Proxy)...)
	errs = append(errs, validateUpstream(&cfg.Upstream)...)
	errs = append(errs, validateConversation(&cfg.Conversation)...)
	errs = append(errs, validateCopywriter(&cfg.Copywriter)...)
	errs = append(errs, validateLimits(&cfg.Limits)...)
	errs = append(errs, validateLedger(&cfg.Ledger)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateProxy(cfg *ProxyConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "proxy.listen_address",
			Message: "listen address is required",
		})
	} else if !strings.Contains(cfg.ListenAddress, ":") {
		errs = append(errs, FieldError{
			Field:   "proxy.listen_address",
			Message: fmt.Sprintf("listen address %q must be in host:port form", cfg.ListenAddress),
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.read_timeout", Message: "read timeout must not be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.write_timeout", Message: "write timeout must not be negative"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.idle_timeout", Message: "idle timeout must not be negative"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "proxy.shutdown_timeout", Message: "shutdown timeout must not be negative"})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{Field: "proxy.max_header_bytes", Message: "max header bytes must be non-negative"})
	}
	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{Field: "proxy.max_body_bytes", Message: "max body bytes must be positive"})
	}
	if cfg.CORS.MaxAge < 0 {
		errs = append(errs, FieldError{Field: "proxy.cors.max_age", Message: "max age must be non-negative"})
	}

	return errs
}

func validateUpstream(cfg *UpstreamConfig) []FieldError {
	var errs []FieldError

	if cfg.BaseURL == "" {
		errs = append(errs, FieldError{Field: "upstream.base_url", Message: "base URL is required"})
	} else if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "upstream.base_url",
			Message: fmt.Sprintf("invalid base URL %q", cfg.BaseURL),
		})
	}
	if cfg.Model == "" {
		errs = append(errs, FieldError{Field: "upstream.model", Message: "model is required"})
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, FieldError{Field: "upstream.temperature", Message: "temperature must be between 0 and 2"})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{Field: "upstream.timeout", Message: "timeout must not be negative"})
	}
	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{Field: "upstream.max_retries", Message: "max retries must be non-negative"})
	}

	return errs
}

func validateConversation(cfg *ConversationConfig) []FieldError {
	var errs []FieldError

	// A session must hold the system message plus at least one exchange.
	if cfg.MaxMessages < 2 {
		errs = append(errs, FieldError{Field: "conversation.max_messages", Message: "max messages must be at least 2"})
	}
	if strings.TrimSpace(cfg.SystemPrompt) == "" {
		errs = append(errs, FieldError{Field: "conversation.system_prompt", Message: "system prompt is required"})
	}
	if cfg.IdleTTL < 0 {
		errs = append(errs, FieldError{Field: "conversation.idle_ttl", Message: "idle TTL must not be negative"})
	}
	if err := validateSchedule(cfg.ReapSchedule); err != nil {
		errs = append(errs, FieldError{Field: "conversation.reap_schedule", Message: err.Error()})
	}

	return errs
}

func validateCopywriter(cfg *CopywriterConfig) []FieldError {
	var errs []FieldError

	if cfg.Model == "" {
		errs = append(errs, FieldError{Field: "copywriter.model", Message: "model is required"})
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		errs = append(errs, FieldError{Field: "copywriter.temperature", Message: "temperature must be between 0 and 2"})
	}
	if cfg.MaxTokens <= 0 {
		errs = append(errs, FieldError{Field: "copywriter.max_tokens", Message: "max tokens must be positive"})
	}

	return errs
}

func validateLimits(cfg *LimitsConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	var errs []FieldError
	if cfg.Requests <= 0 {
		errs = append(errs, FieldError{Field: "limits.requests", Message: "requests must be positive"})
	}
	if cfg.Window <= 0 {
		errs = append(errs, FieldError{Field: "limits.window", Message: "window must be positive"})
	}
	if cfg.CleanupInterval <= 0 {
		errs = append(errs, FieldError{Field: "limits.cleanup_interval", Message: "cleanup interval must be positive"})
	}
	for i, p := range cfg.ExemptPaths {
		if !strings.HasPrefix(p, "/") {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("limits.exempt_paths[%d]", i),
				Message: fmt.Sprintf("path %q must start with /", p),
			})
		}
	}
	return errs
}

func validateLedger(cfg *LedgerConfig) []FieldError {
	if !cfg.Enabled {
		return nil
	}

	var errs []FieldError

	switch cfg.Backend {
	case "memory":
		if cfg.MaxRecords < 0 {
			errs = append(errs, FieldError{Field: "ledger.max_records", Message: "max records must be non-negative"})
		}
	case "sqlite":
		if cfg.Path == "" {
			errs = append(errs, FieldError{Field: "ledger.path", Message: "path is required for the sqlite backend"})
		}
		if cfg.Driver != "sqlite" && cfg.Driver != "sqlite3" {
			errs = append(errs, FieldError{
				Field:   "ledger.driver",
				Message: fmt.Sprintf("invalid driver %q (must be: sqlite, sqlite3)", cfg.Driver),
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "ledger.backend",
			Message: fmt.Sprintf("invalid backend %q (must be: memory, sqlite)", cfg.Backend),
		})
	}

	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{Field: "ledger.retention_days", Message: "retention days must be non-negative"})
	}
	if cfg.RetentionDays > 0 {
		if err := validateSchedule(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{Field: "ledger.prune_schedule", Message: err.Error()})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be: debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be: json, text)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: fmt.Sprintf("metrics path %q must start with /", cfg.Metrics.Path),
		})
	}

	for i := 1; i < len(cfg.Metrics.LatencyBuckets); i++ {
		if cfg.Metrics.LatencyBuckets[i] <= cfg.Metrics.LatencyBuckets[i-1] {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.latency_buckets",
				Message: "buckets must be in increasing order",
			})
			break
		}
	}

	return errs
}

// validateSchedule checks a cron expression with the same parser the
// schedulers use.
func validateSchedule(expr string) error {
	if expr == "" {
		return fmt.Errorf("schedule is required")
	}
	if _, err := cron.ParseStandard(expr); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %v", expr, err)
	}
	return nil
}
