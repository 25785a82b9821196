package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/quill/pkg/cli"
	"mercator-hq/quill/pkg/copywriter"
	"mercator-hq/quill/pkg/proxy/types"
)

type renderFlags struct {
	set  []string
	file string
}

func newRenderCmd() *cobra.Command {
	flags := &renderFlags{}

	cmd := &cobra.Command{
		Use:   "render [scene]",
		Short: "Print the prompt a scene would send to the model",
		Long: `Render a scene template offline. Nothing is sent upstream.

Fields are given with --set key=value or read from a JSON file holding a
copy request body ({"scene": ..., "config": {...}}). --set values and a
scene argument take precedence over the file. Unknown scenes render the
generic prompt.

Examples:
  quill render travel --set destination=京都 --set days=5
  quill render --file request.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(args, flags, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringArrayVarP(&flags.set, "set", "s", nil, "template field as key=value (repeatable)")
	cmd.Flags().StringVarP(&flags.file, "file", "f", "", "JSON copy request to read fields from")

	return cmd
}

func runRender(args []string, flags *renderFlags, out, errOut io.Writer) error {
	req := &types.CopyRequest{Config: map[string]string{}}
	if flags.file != "" {
		data, err := os.ReadFile(flags.file)
		if err != nil {
			return cli.NewCommandError("render", err)
		}
		if err := json.Unmarshal(data, req); err != nil {
			return cli.NewUsageError("invalid request file %s: %v", flags.file, err)
		}
	}

	if len(args) == 1 {
		req.Scene = args[0]
	}
	if strings.TrimSpace(req.Scene) == "" {
		return cli.NewUsageError("a scene is required (see 'quill scenes')")
	}

	for _, kv := range flags.set {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return cli.NewUsageError("--set %q: want key=value", kv)
		}
		req.Config[key] = value
	}

	scene := copywriter.Scene(req.Scene)
	fields := copywriter.Fields(req.Config)

	def, known := copywriter.Lookup(scene)
	if !known {
		fmt.Fprintf(errOut, "warning: unknown scene %q, using the generic prompt\n", req.Scene)
	} else {
		if missing := def.Missing(fields); len(missing) > 0 {
			fmt.Fprintf(errOut, "warning: missing required fields: %s\n", strings.Join(missing, ", "))
		}
		if unused := unusedFields(def, fields); len(unused) > 0 {
			fmt.Fprintf(errOut, "warning: fields not used by %s: %s\n", scene, strings.Join(unused, ", "))
		}
	}

	_, err := fmt.Fprintln(out, copywriter.Render(scene, fields))
	return err
}

func unusedFields(def copywriter.Definition, fields copywriter.Fields) []string {
	known := make(map[string]bool, len(def.Fields))
	for _, f := range def.Fields {
		known[f.Key] = true
	}
	var unused []string
	for k := range fields {
		if !known[k] {
			unused = append(unused, k)
		}
	}
	sort.Strings(unused)
	return unused
}
