package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/quill/pkg/cli"
	"mercator-hq/quill/pkg/config"
	"mercator-hq/quill/pkg/ledger"
)

// exportPageSize is the number of records read per query during export.
const exportPageSize = 500

type exportFlags struct {
	format     string
	kind       string
	status     string
	sessionID  string
	scene      string
	since      time.Duration
	limit      int
	outPath    string
	noProgress bool
}

func newLedgerCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and maintain the generation ledger",
		Long: `The ledger records the outcome of every chat turn and copy generation:
kind, session, scene, status, sizes and latency. It never stores
conversation or copy text.

These commands need a persistent backend (ledger.backend: sqlite).`,
	}
	cmd.AddCommand(newLedgerExportCmd(opts), newLedgerPruneCmd(opts))
	return cmd
}

func newLedgerExportCmd(opts *rootOptions) *cobra.Command {
	flags := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export ledger records as JSON or CSV",
		Long: `Export ledger records, oldest first.

Examples:
  # Everything from the last day as CSV
  quill ledger export --format csv --since 24h > ledger.csv

  # Failed copy generations
  quill ledger export --kind copy --status failed --out failed.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedgerExport(cmd.Context(), opts, flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&flags.format, "format", ledger.FormatJSON, "export format (json, csv)")
	cmd.Flags().StringVar(&flags.kind, "kind", "", "only records of this kind (chat, copy)")
	cmd.Flags().StringVar(&flags.status, "status", "", "only records with this status (completed, failed, cancelled)")
	cmd.Flags().StringVar(&flags.sessionID, "session", "", "only records of this session")
	cmd.Flags().StringVar(&flags.scene, "scene", "", "only records of this scene")
	cmd.Flags().DurationVar(&flags.since, "since", 0, "only records newer than this (e.g. 24h)")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "maximum number of records (0 for all)")
	cmd.Flags().StringVarP(&flags.outPath, "out", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "do not draw a progress bar")

	return cmd
}

func newLedgerPruneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Apply the retention policy now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLedgerPrune(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

// openLedger opens the configured persistent ledger backend.
func openLedger(opts *rootOptions, errOut io.Writer) (*config.Config, ledger.Storage, *slog.Logger, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := opts.commandLogger(cfg, errOut)
	if err != nil {
		return nil, nil, nil, cli.NewConfigError(opts.configPath, err)
	}
	if !cfg.Ledger.Enabled || cfg.Ledger.Backend != "sqlite" {
		return nil, nil, nil, cli.NewUsageError("ledger backend is %q; only the sqlite backend keeps records between runs", ledgerBackend(cfg))
	}
	storage, err := ledger.Open(cfg.Ledger, logger)
	if err != nil {
		return nil, nil, nil, cli.NewCommandError("ledger", err)
	}
	return cfg, storage, logger, nil
}

func runLedgerExport(ctx context.Context, opts *rootOptions, flags *exportFlags, out, errOut io.Writer) error {
	switch flags.format {
	case ledger.FormatJSON, ledger.FormatCSV:
	default:
		return cli.NewUsageError("unknown export format %q (want json or csv)", flags.format)
	}

	_, storage, _, err := openLedger(opts, errOut)
	if err != nil {
		return err
	}
	defer storage.Close()

	query := &ledger.Query{
		Kind:      flags.kind,
		Status:    flags.status,
		SessionID: flags.sessionID,
		Scene:     flags.scene,
		Ascending: true,
	}
	if flags.since > 0 {
		start := time.Now().Add(-flags.since)
		query.StartTime = &start
	}

	var progress cli.ProgressReporter = cli.NopProgress{}
	if !flags.noProgress && flags.outPath != "" {
		progress = cli.NewProgressReporter(errOut, "records")
	}

	records, err := collectRecords(ctx, storage, query, flags.limit, progress)
	if err != nil {
		progress.Error(err)
		return cli.NewCommandError("ledger export", err)
	}

	w := out
	if flags.outPath != "" {
		f, err := os.Create(flags.outPath)
		if err != nil {
			return cli.NewCommandError("ledger export", err)
		}
		defer f.Close()
		w = f
	}

	if err := ledger.Export(records, flags.format, w); err != nil {
		return cli.NewCommandError("ledger export", err)
	}
	if flags.outPath != "" {
		fmt.Fprintf(errOut, "✓ Exported %d records to %s\n", len(records), flags.outPath)
	}
	return nil
}

// collectRecords reads the records matching query page by page, up to limit
// when limit is positive.
func collectRecords(ctx context.Context, storage ledger.Storage, query *ledger.Query, limit int, progress cli.ProgressReporter) ([]*ledger.Record, error) {
	total, err := storage.Count(ctx, query)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(limit) < total {
		total = int64(limit)
	}

	progress.Start(total)
	records := make([]*ledger.Record, 0, total)
	for int64(len(records)) < total {
		page := *query
		page.Offset = len(records)
		page.Limit = exportPageSize
		if remaining := int(total) - len(records); remaining < page.Limit {
			page.Limit = remaining
		}

		batch, err := storage.Query(ctx, &page)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		records = append(records, batch...)
		progress.Update(int64(len(records)))
	}
	progress.Finish()
	return records, nil
}

func runLedgerPrune(ctx context.Context, opts *rootOptions, out, errOut io.Writer) error {
	cfg, storage, logger, err := openLedger(opts, errOut)
	if err != nil {
		return err
	}
	defer storage.Close()

	retention := ledger.RetentionFromConfig(cfg.Ledger)
	if retention.RetentionDays <= 0 && retention.MaxRecords <= 0 {
		fmt.Fprintln(out, "Retention is disabled (retention_days and max_records are 0)")
		return nil
	}

	deleted, err := ledger.NewPruner(storage, retention, logger).Prune(ctx)
	if err != nil {
		return cli.NewCommandError("ledger prune", err)
	}
	fmt.Fprintf(out, "✓ Pruned %d records\n", deleted)
	return nil
}
