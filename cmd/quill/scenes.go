package main

import (
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/quill/pkg/cli"
	"mercator-hq/quill/pkg/copywriter"
)

// scenesTable lists scene definitions for text and CSV output.
type scenesTable []copywriter.Definition

func (t scenesTable) Header() []string {
	return []string{"scene", "name", "required", "optional"}
}

func (t scenesTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, def := range t {
		var required, optional []string
		for _, f := range def.Fields {
			if f.Required {
				required = append(required, f.Key)
			} else {
				optional = append(optional, f.Key)
			}
		}
		rows = append(rows, []string{
			string(def.Scene),
			def.Name,
			strings.Join(required, ","),
			strings.Join(optional, ","),
		})
	}
	return rows
}

func newScenesCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "List copywriting scenes and their fields",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			var data any = scenesTable(copywriter.Scenes())
			if format == cli.FormatJSON {
				data = copywriter.Scenes()
			}
			return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), data)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format (text, json, csv)")
	return cmd
}
