package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/quill/pkg/cli"
	"mercator-hq/quill/pkg/conversation"
	"mercator-hq/quill/pkg/relay"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var newSession bool
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the upstream model on the terminal",
		Long: `Send a message to the upstream model and stream the reply to stdout.

With a message argument, one turn is run and the command exits. Without
one, lines are read from stdin and each is a turn of the same conversation,
until EOF or Ctrl+C. The configured persona and history limit apply.

By default the shared default session is used. --new-session starts a
conversation under a generated session ID, printed to stderr.

Examples:
  quill chat "推荐三本适合入门的经济学书"
  echo "你好" | quill chat
  quill chat --new-session`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), opts, newSession, strings.Join(args, " "), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().BoolVar(&newSession, "new-session", false, "start a conversation under a generated session ID")
	return cmd
}

func runChat(ctx context.Context, opts *rootOptions, newSession bool, message string, in io.Reader, out, errOut io.Writer) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger, err := opts.commandLogger(cfg, errOut)
	if err != nil {
		return cli.NewConfigError(opts.configPath, err)
	}
	if cfg.Upstream.APIKey == "" {
		return cli.NewConfigError(opts.configPath, fmt.Errorf("upstream API key is not set (DEEPSEEK_API_KEY)"))
	}

	// Terminal turns are not recorded in the ledger.
	cfg.Ledger.Enabled = false

	a, err := newApp(cfg, logger)
	if err != nil {
		return cli.NewCommandError("chat", err)
	}
	defer a.Close()

	ctx, stop := cli.SetupSignalHandler(ctx)
	defer stop()

	session := a.sessions.Default()
	if newSession {
		session = a.sessions.Create()
		fmt.Fprintf(errOut, "session %s\n", session.ID())
	}

	if message != "" {
		return chatTurn(ctx, a.agent, session, message, out)
	}

	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			return nil
		}
		fmt.Fprint(errOut, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(errOut)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := chatTurn(ctx, a.agent, session, line, out); err != nil {
			fmt.Fprintln(errOut, "✗", err)
		}
	}
}

// chatTurn streams one reply to out. A failed turn has already printed the
// apology; its underlying error is returned.
func chatTurn(ctx context.Context, agent *relay.Agent, session *conversation.Session, message string, out io.Writer) error {
	result := agent.Respond(ctx, session, message, func(fragment string) error {
		_, err := io.WriteString(out, fragment)
		return err
	})
	fmt.Fprintln(out)

	switch result.Outcome {
	case relay.OutcomeFailed:
		return cli.NewCommandError("chat", result.Err)
	case relay.OutcomeCancelled:
		if ctx.Err() != nil {
			return nil
		}
		return cli.NewCommandError("chat", result.Err)
	}
	return nil
}
