/*
Package cli provides helpers shared by the quill subcommands.

Output Formatting:

Commands that list things (scenes, ledger records) return a value
implementing Table and print it in the format picked by --output:

	format, err := cli.ParseOutputFormat(flags.output)
	if err != nil {
		return err
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), scenesTable(defs))

Text output is aligned with text/tabwriter; JSON output is indented; CSV
output requires a Table.

Progress Reporting:

Long exports draw a progress bar on stderr so stdout stays clean for the
exported data:

	progress := cli.NewProgressReporter(cmd.ErrOrStderr(), "records")
	progress.Start(total)
	progress.Update(done)
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(cmd.Context())
	defer stop()

Exit Codes:

ExitCode maps command errors to process exit codes: 2 for configuration
errors, 64 for usage errors and 1 for anything else.
*/
package cli
