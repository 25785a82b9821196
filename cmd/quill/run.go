package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/quill/pkg/cli"
	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/proxy/middleware"
	"mercator-hq/quill/pkg/server"
	"mercator-hq/quill/pkg/telemetry/logging"
)

type runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	watch         bool
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the Quill server",
		Long: `Start the Quill HTTP server with the specified configuration.

The server streams chat replies from the upstream model, generates 小红书
copies, records generation outcomes in the ledger and exposes health,
readiness and Prometheus endpoints.

Examples:
  # Start with configuration from the environment
  DEEPSEEK_API_KEY=sk-... quill run

  # Start with a config file and reload its log level on change
  quill run --config /etc/quill/quill.yaml --watch

  # Override listen address
  quill run --listen 127.0.0.1:9000

  # Validate config without starting the server
  quill run --config quill.yaml --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), opts, flags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&flags.listenAddress, "listen", "l", "", "override listen address")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "validate config without starting server")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "reload the log level when the config file changes")

	return cmd
}

func runServer(ctx context.Context, opts *rootOptions, flags *runFlags, out io.Writer) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	if flags.listenAddress != "" {
		cfg.Proxy.ListenAddress = flags.listenAddress
	}
	if flags.logLevel != "" {
		cfg.Telemetry.Logging.Level = flags.logLevel
	}
	if opts.verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError(opts.configPath, err)
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		Redact:    cfg.Telemetry.Logging.Redact,
		Writer:    out,
	})
	if err != nil {
		return cli.NewConfigError(opts.configPath, err)
	}

	if cfg.Upstream.APIKey == "" {
		return cli.NewConfigError(opts.configPath, fmt.Errorf("upstream API key is not set (DEEPSEEK_API_KEY)"))
	}

	if flags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler(ctx)
	defer stop()

	a, err := newApp(cfg, logger.Logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("error during cleanup", "error", err)
		}
	}()

	if flags.watch && opts.configPath != "" {
		if err := watchConfig(ctx, opts.configPath, flags.logLevel, logger); err != nil {
			logger.Warn("config watcher not started", "error", err)
		}
	}

	var limiter *middleware.RateLimiter
	if cfg.Limits.Enabled {
		limiter = middleware.NewRateLimiter(cfg.Limits, a.metrics, logger.Logger)
	}

	srv := server.New(cfg, server.Dependencies{
		Sessions:   a.sessions,
		Agent:      a.agent,
		Copywriter: a.copywriter,
		Provider:   a.provider,
		Ledger:     a.storage,
		Limiter:    limiter,
		Metrics:    a.metrics,
		Logger:     logger.Logger,
		Build: server.BuildInfo{
			Version:   Version,
			Commit:    GitCommit,
			BuildTime: BuildDate,
		},
	})

	a.scheduler.Start(ctx)

	logger.Info("quill starting",
		"version", Version,
		"listen_address", cfg.Proxy.ListenAddress,
		"upstream", cfg.Upstream.Name,
		"model", cfg.Upstream.Model,
		"ledger_backend", ledgerBackend(cfg),
		"rate_limit", cfg.Limits.Enabled,
	)

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	return nil
}

// watchConfig re-applies the log level whenever the config file changes.
// A --log-level flag pins the level and disables the reload.
func watchConfig(ctx context.Context, path, pinnedLevel string, logger *logging.Logger) error {
	watcher, err := config.NewWatcher(path, logger.Logger)
	if err != nil {
		return err
	}
	go func() {
		err := watcher.Watch(ctx, func(cfg *config.Config) {
			if pinnedLevel != "" {
				return
			}
			if err := logger.SetLevel(cfg.Telemetry.Logging.Level); err != nil {
				logger.Warn("ignoring reloaded log level", "level", cfg.Telemetry.Logging.Level, "error", err)
				return
			}
			logger.Info("log level changed", "level", cfg.Telemetry.Logging.Level)
		})
		if err != nil {
			logger.Error("config watcher stopped", "error", err)
		}
	}()
	return nil
}

func ledgerBackend(cfg *config.Config) string {
	if !cfg.Ledger.Enabled {
		return "disabled"
	}
	return cfg.Ledger.Backend
}
