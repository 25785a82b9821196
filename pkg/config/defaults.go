package config

import "time"

// Default values for configuration fields.
const (
	// Proxy defaults
	DefaultListenAddress   = "0.0.0.0:8015"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 5 * time.Minute
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB
	DefaultMaxBodyBytes    = int64(1048576)

	// CORS defaults
	DefaultCORSEnabled = true
	DefaultCORSMaxAge  = 3600 // 1 hour

	// Upstream defaults
	DefaultUpstreamName                = "deepseek"
	DefaultUpstreamBaseURL             = "https://api.deepseek.com"
	DefaultUpstreamModel               = "deepseek-chat"
	DefaultUpstreamTemperature         = 0.7
	DefaultUpstreamTimeout             = 60 * time.Second
	DefaultUpstreamMaxRetries          = 0
	DefaultUpstreamMaxIdleConns        = 100
	DefaultUpstreamMaxIdleConnsPerHost = 10
	DefaultUpstreamIdleConnTimeout     = 90 * time.Second

	// Conversation defaults
	DefaultConversationMaxMessages  = 20
	DefaultConversationSystemPrompt = "You are a helpful research assistant. Provide detailed and accurate responses to user queries."
	DefaultConversationIdleTTL      = time.Hour
	DefaultConversationReapSchedule = "@every 5m"

	// Copywriter defaults
	DefaultCopywriterModel        = "deepseek-chat"
	DefaultCopywriterTemperature  = 0.8
	DefaultCopywriterMaxTokens    = 1000
	DefaultCopywriterSystemPrompt = "你是一位专业的小红书文案撰写专家，擅长撰写各种场景的优质文案。请根据用户提供的信息，生成符合小红书平台风格的文案，包含适当的表情符号、话题标签和互动引导语。"

	// Limits defaults
	DefaultLimitsEnabled         = true
	DefaultLimitsRequests        = 100
	DefaultLimitsWindow          = 15 * time.Minute
	DefaultLimitsCleanupInterval = time.Minute

	// Ledger defaults
	DefaultLedgerEnabled       = true
	DefaultLedgerBackend       = "memory"
	DefaultLedgerDriver        = "sqlite"
	DefaultLedgerPath          = "data/ledger.db"
	DefaultLedgerBusyTimeout   = 5 * time.Second
	DefaultLedgerMaxRecords    = 10000
	DefaultLedgerRetentionDays = 30
	DefaultLedgerPruneSchedule = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultLoggingRedact    = true
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "quill"
)

// DefaultLatencyBuckets are the upstream latency histogram buckets in seconds.
var DefaultLatencyBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// NewDefault returns a Config with every field set to its default value.
// LoadConfig decodes YAML on top of it, so fields whose zero value is
// meaningful (enabled flags, retention limits) keep their defaults unless the
// file sets them explicitly.
func NewDefault() *Config {
	cfg := &Config{
		Proxy: ProxyConfig{
			CORS: CORSConfig{Enabled: DefaultCORSEnabled},
		},
		Limits: LimitsConfig{Enabled: DefaultLimitsEnabled},
		Ledger: LedgerConfig{
			Enabled:       DefaultLedgerEnabled,
			RetentionDays: DefaultLedgerRetentionDays,
			MaxRecords:    DefaultLedgerMaxRecords,
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{Redact: DefaultLoggingRedact},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Proxy defaults
	if cfg.Proxy.ListenAddress == "" {
		cfg.Proxy.ListenAddress = DefaultListenAddress
	}
	if cfg.Proxy.ReadTimeout == 0 {
		cfg.Proxy.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Proxy.WriteTimeout == 0 {
		cfg.Proxy.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Proxy.IdleTimeout == 0 {
		cfg.Proxy.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Proxy.ShutdownTimeout == 0 {
		cfg.Proxy.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Proxy.MaxHeaderBytes == 0 {
		cfg.Proxy.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if cfg.Proxy.MaxBodyBytes == 0 {
		cfg.Proxy.MaxBodyBytes = DefaultMaxBodyBytes
	}
	applyCORSDefaults(&cfg.Proxy.CORS)

	// Upstream defaults
	if cfg.Upstream.Name == "" {
		cfg.Upstream.Name = DefaultUpstreamName
	}
	if cfg.Upstream.BaseURL == "" {
		cfg.Upstream.BaseURL = DefaultUpstreamBaseURL
	}
	if cfg.Upstream.Model == "" {
		cfg.Upstream.Model = DefaultUpstreamModel
	}
	// A zero temperature falls back to the default, matching how the
	// upstream request is built.
	if cfg.Upstream.Temperature == 0 {
		cfg.Upstream.Temperature = DefaultUpstreamTemperature
	}
	if cfg.Upstream.Timeout == 0 {
		cfg.Upstream.Timeout = DefaultUpstreamTimeout
	}
	if cfg.Upstream.MaxIdleConns == 0 {
		cfg.Upstream.MaxIdleConns = DefaultUpstreamMaxIdleConns
	}
	if cfg.Upstream.MaxIdleConnsPerHost == 0 {
		cfg.Upstream.MaxIdleConnsPerHost = DefaultUpstreamMaxIdleConnsPerHost
	}
	if cfg.Upstream.IdleConnTimeout == 0 {
		cfg.Upstream.IdleConnTimeout = DefaultUpstreamIdleConnTimeout
	}

	// Conversation defaults
	if cfg.Conversation.MaxMessages == 0 {
		cfg.Conversation.MaxMessages = DefaultConversationMaxMessages
	}
	if cfg.Conversation.SystemPrompt == "" {
		cfg.Conversation.SystemPrompt = DefaultConversationSystemPrompt
	}
	if cfg.Conversation.IdleTTL == 0 {
		cfg.Conversation.IdleTTL = DefaultConversationIdleTTL
	}
	if cfg.Conversation.ReapSchedule == "" {
		cfg.Conversation.ReapSchedule = DefaultConversationReapSchedule
	}

	// Copywriter defaults
	if cfg.Copywriter.Model == "" {
		cfg.Copywriter.Model = DefaultCopywriterModel
	}
	if cfg.Copywriter.Temperature == 0 {
		cfg.Copywriter.Temperature = DefaultCopywriterTemperature
	}
	if cfg.Copywriter.MaxTokens == 0 {
		cfg.Copywriter.MaxTokens = DefaultCopywriterMaxTokens
	}
	if cfg.Copywriter.SystemPrompt == "" {
		cfg.Copywriter.SystemPrompt = DefaultCopywriterSystemPrompt
	}

	// Limits defaults
	if cfg.Limits.Requests == 0 {
		cfg.Limits.Requests = DefaultLimitsRequests
	}
	if cfg.Limits.Window == 0 {
		cfg.Limits.Window = DefaultLimitsWindow
	}
	if cfg.Limits.ExemptPaths == nil {
		cfg.Limits.ExemptPaths = []string{"/health", "/ready", "/version"}
	}
	if cfg.Limits.CleanupInterval == 0 {
		cfg.Limits.CleanupInterval = DefaultLimitsCleanupInterval
	}

	// Ledger defaults
	if cfg.Ledger.Backend == "" {
		cfg.Ledger.Backend = DefaultLedgerBackend
	}
	if cfg.Ledger.Driver == "" {
		cfg.Ledger.Driver = DefaultLedgerDriver
	}
	if cfg.Ledger.Path == "" {
		cfg.Ledger.Path = DefaultLedgerPath
	}
	if cfg.Ledger.BusyTimeout == 0 {
		cfg.Ledger.BusyTimeout = DefaultLedgerBusyTimeout
	}
	if cfg.Ledger.PruneSchedule == "" {
		cfg.Ledger.PruneSchedule = DefaultLedgerPruneSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Telemetry.Metrics.LatencyBuckets) == 0 {
		cfg.Telemetry.Metrics.LatencyBuckets = append([]float64(nil), DefaultLatencyBuckets...)
	}
}

// applyCORSDefaults fills in CORS lists left empty by the configuration.
func applyCORSDefaults(cors *CORSConfig) {
	if len(cors.AllowedOrigins) == 0 {
		cors.AllowedOrigins = []string{"*"}
	}
	if len(cors.AllowedMethods) == 0 {
		cors.AllowedMethods = []string{"GET", "POST", "OPTIONS"}
	}
	if len(cors.AllowedHeaders) == 0 {
		cors.AllowedHeaders = []string{"Content-Type", "X-Request-ID", "X-Session-ID"}
	}
	if len(cors.ExposedHeaders) == 0 {
		cors.ExposedHeaders = []string{"X-Request-ID", "X-Session-ID", "X-Generation-Status"}
	}
	if cors.MaxAge == 0 {
		cors.MaxAge = DefaultCORSMaxAge
	}
}
