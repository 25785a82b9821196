package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/quill/pkg/cli"
	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/telemetry/logging"
)

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "quill",
		Short: "Quill - streaming chat proxy and 小红书 copywriter",
		Long: `Quill sits in front of an OpenAI-compatible chat model (DeepSeek by default).

It provides:
  - A streamed chat endpoint with per-session conversation history
  - 小红书 copy generation from per-scene prompt templates
  - A ledger of generation outcomes with scheduled retention
  - Prometheus metrics, health and readiness probes

Configuration comes from an optional YAML file (--config) and the
environment (QUILL_SECTION_FIELD, DEEPSEEK_API_KEY, PORT).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (default: environment only)")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(
		newRunCmd(opts),
		newChatCmd(opts),
		newRenderCmd(),
		newScenesCmd(),
		newLedgerCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return cli.ExitCode(err)
	}
	return cli.ExitOK
}

// loadConfig reads the config file, if any, and applies environment
// overrides.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(o.configPath)
	if err != nil {
		return nil, cli.NewConfigError(o.configPath, err)
	}
	return cfg, nil
}

// commandLogger is the logger for the one-shot commands. It writes text to
// w and only shows warnings unless --verbose is set.
func (o *rootOptions) commandLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Config{
		Level:  level,
		Format: "text",
		Redact: cfg.Telemetry.Logging.Redact,
		Writer: w,
	})
	if err != nil {
		return nil, err
	}
	return logger.Logger, nil
}
