package main

import (
	"fmt"

	"github.com/Veraticus/flowqa/internal/cli"
	"github.com/Veraticus/flowqa/internal/common"
	"github.com/Veraticus/flowqa/internal/xlsx"
	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the rows of a flowmeter export",
		Long: `Load a flowmeter .xlsx export and list its samples with the position
numbers used by "flowqa test --rows".

Rows missing the flow counter, timestamp or device id are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := xlsx.NewParser().ParsePath(cmd.Context(), args[0])
			if err != nil {
				return common.NewUserError("Could not load "+args[0], err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, cli.FormatTitle("Flowmeter Data"))
			fmt.Fprintln(out, cli.LabelStyle.Render("Device ID")+data.DeviceID)
			fmt.Fprintln(out, cli.LabelStyle.Render("Samples")+fmt.Sprintf("%d", len(data.Samples)))
			if data.DroppedRows > 0 {
				fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("%d incomplete rows skipped", data.DroppedRows)))
			}
			fmt.Fprintln(out)

			samples := data.Samples
			if limit > 0 && len(samples) > limit {
				samples = samples[:limit]
			}
			fmt.Fprint(out, cli.RenderSamples(samples, nil))
			if len(samples) < len(data.Samples) {
				fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("... %d more rows", len(data.Samples)-len(samples))))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many rows (0 shows all)")

	return cmd
}
