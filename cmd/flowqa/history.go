package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/flowqa/internal/cli"
	"github.com/Veraticus/flowqa/internal/common"
	"github.com/Veraticus/flowqa/internal/model"
	"github.com/Veraticus/flowqa/internal/report"
	"github.com/Veraticus/flowqa/internal/service"
	"github.com/spf13/cobra"
)

var errInvalidVerdict = errors.New("verdict must be pass, fail or undetermined")

func historyCmd() *cobra.Command {
	var filter model.TestRunFilter
	var verdict string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List exported test runs",
		Long: `Every exported report is recorded in a local SQLite database.
List recent runs, show one in detail, or delete a run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if verdict != "" {
				v := model.Verdict(verdict)
				if model.ParseVerdict(verdict) != v {
					return common.NewUserError("Invalid --verdict", errInvalidVerdict)
				}
				filter.Verdict = v
			}
			return withStorage(cmd.Context(), func(ctx context.Context, store service.Storage) error {
				runs, err := store.ListTestRuns(ctx, filter)
				if err != nil {
					return fmt.Errorf("failed to list test runs: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), cli.RenderTestRuns(runs))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&filter.DeviceID, "device", "", "only runs of this flowmeter device")
	cmd.Flags().StringVar(&verdict, "verdict", "", "only runs with this verdict (pass, fail, undetermined)")
	cmd.Flags().IntVar(&filter.Limit, "limit", 50, "maximum number of runs to list")

	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyDeleteCmd())

	return cmd
}

func historyShowCmd() *cobra.Command {
	var showSamples bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one test run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd.Context(), func(ctx context.Context, store service.Storage) error {
				run, err := store.GetTestRun(ctx, args[0])
				if err != nil {
					if errors.Is(err, common.ErrNotFound) {
						return common.NewUserError("No test run with id "+args[0], err)
					}
					return fmt.Errorf("failed to get test run: %w", err)
				}
				renderTestRun(cmd.OutOrStdout(), run, showSamples)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&showSamples, "samples", false, "also list the selected samples")

	return cmd
}

func historyDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one test run",
		Long:  `Delete a test run from the history. The PDF report itself is left in place.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withStorage(cmd.Context(), func(ctx context.Context, store service.Storage) error {
				if _, err := store.GetTestRun(ctx, id); err != nil {
					if errors.Is(err, common.ErrNotFound) {
						return common.NewUserError("No test run with id "+id, err)
					}
					return fmt.Errorf("failed to get test run: %w", err)
				}

				out := cmd.OutOrStdout()
				if !yes {
					reader := cli.NewNonBlockingReader(cmd.InOrStdin())
					ok, err := cli.Confirm(ctx, reader, out, "Delete test run "+id+"?")
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(out, cli.FormatInfo("Nothing deleted."))
						return nil
					}
				}

				if err := store.DeleteTestRun(ctx, id); err != nil {
					common.LogError(err, "Failed to delete test run", common.Fields{"id": id})
					return fmt.Errorf("failed to delete test run: %w", err)
				}
				common.LogInfo("Deleted test run", common.Fields{"id": id})
				fmt.Fprintln(out, cli.FormatSuccess("Deleted test run "+id))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "delete without asking")

	return cmd
}

func withStorage(ctx context.Context, fn func(context.Context, service.Storage) error) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	store, err := openStorage(ctx, settings)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(ctx, store)
}

func renderTestRun(out io.Writer, run *model.TestRun, showSamples bool) {
	label := cli.LabelStyle.Render
	lines := []string{
		label("Test Run") + run.ID,
		label("Created") + run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		label("Device ID") + run.DeviceID,
		label("Selected Meter") + run.MeterName,
		label("Multiplier") + run.Multiplier.StringFixed(2),
		label("Formula") + run.Formula.Describe(),
		label("Water Meter Start Value") + run.StartValue.StringFixed(3),
		label("Water Meter End Value") + run.EndValue.StringFixed(3),
		label("Water Meter Count") + report.FormatLiters(run.MeterConsumption),
		label("Flowmeter Count") + report.FormatLiters(run.FlowmeterTotal),
		label("Relative Error") + report.FormatPercent(run.RelativeError),
		label("Test Approval") + cli.FormatVerdict(run.Verdict),
		label("Selected Samples") + fmt.Sprintf("%d", run.SampleCount),
		label("Source File") + run.SourceFile,
		label("Report") + run.ReportPath,
	}
	fmt.Fprintln(out, cli.RenderBox("Test Run", strings.Join(lines, "\n")))

	if showSamples {
		fmt.Fprint(out, cli.RenderSamples(run.Samples, nil))
	}
}
