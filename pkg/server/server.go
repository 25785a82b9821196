package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/conversation"
	"mercator-hq/quill/pkg/copywriter"
	"mercator-hq/quill/pkg/ledger"
	"mercator-hq/quill/pkg/providers"
	"mercator-hq/quill/pkg/proxy"
	"mercator-hq/quill/pkg/proxy/handlers"
	"mercator-hq/quill/pkg/proxy/middleware"
	"mercator-hq/quill/pkg/proxy/types"
	"mercator-hq/quill/pkg/relay"
	"mercator-hq/quill/pkg/telemetry/health"
	"mercator-hq/quill/pkg/telemetry/metrics"
)

// writeTimeoutSlack is added to the request deadline to get the
// connection write timeout, so a timed-out reply can still send its
// failure fragment and trailer.
const writeTimeoutSlack = 5 * time.Second

// BuildInfo is reported by GET /version.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Dependencies are the components the server routes requests to.
type Dependencies struct {
	Sessions   *conversation.Manager
	Agent      *relay.Agent
	Copywriter *copywriter.Service

	// Provider is checked by the readiness probe.
	Provider providers.Provider

	// Ledger is pinged by the readiness probe. Optional.
	Ledger ledger.Storage

	// Limiter enforces per-client limits. Nil disables rate limiting.
	Limiter *middleware.RateLimiter

	Metrics *metrics.Collector
	Logger  *slog.Logger
	Build   BuildInfo
}

// Server is the HTTP front of the service.
type Server struct {
	config     *config.Config
	deps       Dependencies
	logger     *slog.Logger
	health     *health.Checker
	httpServer *http.Server

	mu        sync.RWMutex
	isRunning bool
	addr      net.Addr
}

// New creates a server. Nothing listens until Start or Serve.
func New(cfg *config.Config, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config: cfg,
		deps:   deps,
		logger: logger.With("component", "server"),
		health: health.New(5 * time.Second),
	}
	s.registerChecks()
	return s
}

func (s *Server) registerChecks() {
	if s.deps.Ledger != nil {
		s.health.RegisterCheck("ledger", s.deps.Ledger.Ping)
	}
	if s.deps.Provider != nil {
		p := s.deps.Provider
		s.health.RegisterCheck("upstream", func(ctx context.Context) error {
			h := p.GetHealth()
			if !h.IsHealthy {
				return fmt.Errorf("%s: %d consecutive failures", p.GetName(), h.ConsecutiveFailures)
			}
			return nil
		})
	}
}

// Start listens on the configured address and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Proxy.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Proxy.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		_ = ln.Close()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.addr = ln.Addr()

	proxyCfg := s.config.Proxy
	writeTimeout := proxyCfg.WriteTimeout
	if writeTimeout > 0 {
		writeTimeout += writeTimeoutSlack
	}
	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    proxyCfg.ReadTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    proxyCfg.IdleTimeout,
		MaxHeaderBytes: proxyCfg.MaxHeaderBytes,
		ErrorLog:       slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	if s.deps.Limiter != nil {
		go s.deps.Limiter.Run(ctx, s.config.Limits.CleanupInterval)
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", ln.Addr().String())
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		if !ok {
			return nil
		}
		return err
	}
}

// Shutdown stops accepting connections and waits for in-flight requests,
// streamed replies included, up to the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	httpServer := s.httpServer
	s.mu.Unlock()

	timeout := s.config.Proxy.ShutdownTimeout
	s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

	shutdownCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the address the server listens on, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	cfg := s.config
	deps := s.deps
	maxBody := cfg.Proxy.MaxBodyBytes

	mux := http.NewServeMux()
	mux.Handle("/chat", handlers.NewChatHandler(deps.Sessions, deps.Agent, maxBody, s.logger))
	mux.Handle("/history", handlers.NewHistoryHandler(deps.Sessions, s.logger))
	mux.Handle("/clear", handlers.NewClearHandler(deps.Sessions, s.logger))
	mux.Handle("/xiaohongshu/copy", handlers.NewCopyHandler(deps.Copywriter, maxBody, s.logger))
	mux.Handle("/xiaohongshu/scenes", handlers.NewScenesHandler(s.logger))

	mux.Handle("GET /health", s.health.LivenessHandler())
	mux.Handle("GET /ready", s.health.ReadinessHandler())
	mux.Handle("GET /version", health.VersionHandler(deps.Build.Version, deps.Build.Commit, deps.Build.BuildTime))

	if cfg.Telemetry.Metrics.Enabled && deps.Metrics != nil {
		mux.Handle("GET "+cfg.Telemetry.Metrics.Path, deps.Metrics.Handler())
	}

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_ = proxy.WriteErrorResponse(w, types.NewNotFoundError(r.URL.Path))
	})

	var handler http.Handler = mux
	handler = middleware.TimeoutMiddleware(cfg.Proxy.WriteTimeout)(handler)
	if cfg.Limits.Enabled {
		handler = middleware.RateLimitMiddleware(deps.Limiter)(handler)
	}
	handler = middleware.CORSMiddleware(s.corsConfig())(handler)
	handler = middleware.LoggingMiddleware(s.logger, deps.Metrics)(handler)
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.RecoveryMiddleware(s.logger)(handler)

	return handler
}

// corsConfig converts config.CORSConfig to middleware.CORSConfig.
func (s *Server) corsConfig() *middleware.CORSConfig {
	c := s.config.Proxy.CORS
	return &middleware.CORSConfig{
		Enabled:          c.Enabled,
		AllowedOrigins:   c.AllowedOrigins,
		AllowedMethods:   c.AllowedMethods,
		AllowedHeaders:   c.AllowedHeaders,
		ExposedHeaders:   c.ExposedHeaders,
		MaxAge:           c.MaxAge,
		AllowCredentials: c.AllowCredentials,
	}
}
