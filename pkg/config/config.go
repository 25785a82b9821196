package config

import "time"

// Config is the root configuration structure for Quill.
// It contains all configuration sections for the HTTP server, the upstream
// chat model, conversation state, the copywriter, rate limiting, the
// generation ledger, and telemetry.
type Config struct {
	// Proxy contains HTTP server configuration including listen address,
	// timeouts, body limits, and CORS.
	Proxy ProxyConfig `yaml:"proxy"`

	// Upstream contains configuration for the OpenAI-compatible chat
	// completion endpoint (DeepSeek by default).
	Upstream UpstreamConfig `yaml:"upstream"`

	// Conversation contains configuration for session history and idle
	// session reaping.
	Conversation ConversationConfig `yaml:"conversation"`

	// Copywriter contains configuration for scene template generation.
	Copywriter CopywriterConfig `yaml:"copywriter"`

	// Limits contains per-client rate limiting configuration.
	Limits LimitsConfig `yaml:"limits"`

	// Ledger contains configuration for the generation outcome ledger.
	Ledger LedgerConfig `yaml:"ledger"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ProxyConfig contains configuration for the HTTP server.
type ProxyConfig struct {
	// ListenAddress is the address and port for the server to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8015", "0.0.0.0:8015").
	// Default: "0.0.0.0:8015"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. A zero value means no timeout.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It bounds the whole lifetime of a streamed chat reply.
	// A zero value means no timeout.
	// Default: 5m
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes controls the maximum number of bytes the server will
	// read parsing the request header.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// MaxBodyBytes is the largest JSON request body accepted by the API
	// endpoints. Larger bodies are rejected with a validation error.
	// Default: 1048576 (1MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// CORS contains Cross-Origin Resource Sharing configuration.
	CORS CORSConfig `yaml:"cors"`
}

// CORSConfig contains Cross-Origin Resource Sharing (CORS) configuration.
type CORSConfig struct {
	// Enabled controls whether CORS headers are emitted.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// AllowedOrigins is a list of allowed origins for CORS requests.
	// Default: ["*"]
	AllowedOrigins []string `yaml:"allowed_origins"`

	// AllowedMethods is a list of allowed HTTP methods for CORS requests.
	// Default: ["GET", "POST", "OPTIONS"]
	AllowedMethods []string `yaml:"allowed_methods"`

	// AllowedHeaders is a list of allowed HTTP headers for CORS requests.
	// Default: ["Content-Type", "X-Request-ID", "X-Session-ID"]
	AllowedHeaders []string `yaml:"allowed_headers"`

	// ExposedHeaders is a list of headers that are exposed to the client.
	// Default: ["X-Request-ID", "X-Session-ID", "X-Generation-Status"]
	ExposedHeaders []string `yaml:"exposed_headers"`

	// MaxAge is the maximum age (in seconds) for preflight request cache.
	// Default: 3600
	MaxAge int `yaml:"max_age"`

	// AllowCredentials controls whether credentials are allowed in CORS requests.
	// Default: false
	AllowCredentials bool `yaml:"allow_credentials"`
}

// UpstreamConfig contains configuration for the chat completion endpoint.
type UpstreamConfig struct {
	// Name identifies the upstream in logs and metrics.
	// Default: "deepseek"
	Name string `yaml:"name"`

	// BaseURL is the base URL of the OpenAI-compatible API. The client
	// appends "/chat/completions".
	// Default: "https://api.deepseek.com"
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer token sent to the upstream. It is usually
	// supplied through DEEPSEEK_API_KEY rather than the file.
	APIKey string `yaml:"api_key"`

	// Model is the chat model used for conversational turns.
	// Default: "deepseek-chat"
	Model string `yaml:"model"`

	// Temperature is the sampling temperature for conversational turns.
	// Default: 0.7 (a zero value in the file also selects the default)
	Temperature float64 `yaml:"temperature"`

	// Timeout bounds the wait for upstream response headers. Streamed bodies
	// are bounded only by the caller's context.
	// Default: 60s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries for failed non-streaming calls.
	// Default: 0
	MaxRetries int `yaml:"max_retries"`

	// MaxIdleConns is the maximum number of idle upstream connections.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the maximum number of idle connections per host.
	// Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long idle connections are kept in the pool.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// ConversationConfig contains configuration for session history.
type ConversationConfig struct {
	// MaxMessages is the maximum number of messages retained per session,
	// including the leading system message.
	// Default: 20
	MaxMessages int `yaml:"max_messages"`

	// SystemPrompt is the persona text placed at the head of every session.
	SystemPrompt string `yaml:"system_prompt"`

	// IdleTTL is how long a session may go untouched before the reaper
	// drops it. The default session is never reaped.
	// Default: 1h
	IdleTTL time.Duration `yaml:"idle_ttl"`

	// ReapSchedule is the cron expression for the idle session sweep.
	// Default: "@every 5m"
	ReapSchedule string `yaml:"reap_schedule"`
}

// CopywriterConfig contains configuration for scene copy generation.
type CopywriterConfig struct {
	// Model is the chat model used for copy generation.
	// Default: "deepseek-chat"
	Model string `yaml:"model"`

	// Temperature is the sampling temperature for copy generation.
	// Default: 0.8 (a zero value in the file also selects the default)
	Temperature float64 `yaml:"temperature"`

	// MaxTokens caps the length of a generated copy.
	// Default: 1000
	MaxTokens int `yaml:"max_tokens"`

	// SystemPrompt instructs the model to write in the platform's style.
	SystemPrompt string `yaml:"system_prompt"`
}

// LimitsConfig contains per-client rate limiting configuration.
type LimitsConfig struct {
	// Enabled controls whether rate limiting is applied.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Requests is the number of requests a client may make per Window.
	// Default: 100
	Requests int `yaml:"requests"`

	// Window is the period over which Requests are counted.
	// Default: 15m
	Window time.Duration `yaml:"window"`

	// ExemptPaths are request paths that are never rate limited.
	// Default: ["/health", "/ready", "/version"]
	ExemptPaths []string `yaml:"exempt_paths"`

	// TrustForwardedFor makes the limiter key clients by the first address
	// in X-Forwarded-For instead of the connection's remote address.
	// Default: false
	TrustForwardedFor bool `yaml:"trust_forwarded_for"`

	// CleanupInterval is how often idle per-client limiters are discarded.
	// Default: 1m
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// LedgerConfig contains configuration for the generation outcome ledger.
type LedgerConfig struct {
	// Enabled controls whether generation outcomes are recorded.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend: "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Driver selects the SQLite driver: "sqlite" (modernc.org/sqlite, pure Go)
	// or "sqlite3" (github.com/mattn/go-sqlite3, cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// Path is the SQLite database file.
	// Default: "data/ledger.db"
	Path string `yaml:"path"`

	// BusyTimeout is the SQLite busy timeout.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// MaxRecords caps the number of records kept; the oldest are pruned
	// first. Zero means unlimited.
	// Default: 10000
	MaxRecords int `yaml:"max_records"`

	// RetentionDays is how long records are kept. Zero keeps records forever.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is the cron expression for retention pruning.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource adds source file and line to log records.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// Redact masks API keys and bearer tokens in log output.
	// Default: true
	Redact bool `yaml:"redact"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the Prometheus metric namespace.
	// Default: "quill"
	Namespace string `yaml:"namespace"`

	// Subsystem is the Prometheus metric subsystem.
	// Default: ""
	Subsystem string `yaml:"subsystem"`

	// LatencyBuckets are the histogram buckets (seconds) for upstream latency.
	// Default: [0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60]
	LatencyBuckets []float64 `yaml:"latency_buckets"`
}
