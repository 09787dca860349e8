package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/Veraticus/flowqa/internal/cli"
	"github.com/Veraticus/flowqa/internal/common"
	"github.com/Veraticus/flowqa/internal/config"
	"github.com/Veraticus/flowqa/internal/model"
	"github.com/Veraticus/flowqa/internal/report"
	"github.com/Veraticus/flowqa/internal/session"
	"github.com/Veraticus/flowqa/internal/xlsx"
	"github.com/spf13/cobra"
)

var errTestNotPassed = errors.New("test not approved")

type testOptions struct {
	rows            string
	meter           string
	start           string
	end             string
	reportPath      string
	outputDir       string
	startTenths     int
	startHundredths int
	endTenths       int
	endHundredths   int
	export          bool
	sheets          bool
	strict          bool
	noHistory       bool
}

func testCmd() *cobra.Command {
	var opts testOptions

	cmd := &cobra.Command{
		Use:   "test <file>",
		Short: "Perform a flowmeter test and optionally export the report",
		Long: `Load a flowmeter export, select the rows covering the test, apply the
water meter's start and end dial readings, and print the test summary.

Rows are selected explicitly with --rows using the positions listed by
"flowqa inspect", e.g. --rows 1-3,7 or --rows all.

A reading of 123.45 is entered as --start 123 --start-tenths 4 --start-hundredths 5.

With --report, --export or --sheets the report is also written as a PDF and
recorded in the local history.`,
		Example: `  flowqa test export.xlsx --rows 1-40 --meter "Klepsan Woltman DN50" \
    --start 1200 --start-tenths 5 --end 1210 --end-hundredths 2 --export`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.rows, "rows", "", "samples to include, e.g. 1-3,7 or all (required)")
	cmd.Flags().StringVar(&opts.meter, "meter", "", "water meter model (default: first catalog entry)")
	cmd.Flags().StringVar(&opts.start, "start", "", "whole part of the start dial reading")
	cmd.Flags().IntVar(&opts.startTenths, "start-tenths", 0, "tenths digit of the start reading (0-9)")
	cmd.Flags().IntVar(&opts.startHundredths, "start-hundredths", 0, "hundredths digit of the start reading (0-9)")
	cmd.Flags().StringVar(&opts.end, "end", "", "whole part of the end dial reading")
	cmd.Flags().IntVar(&opts.endTenths, "end-tenths", 0, "tenths digit of the end reading (0-9)")
	cmd.Flags().IntVar(&opts.endHundredths, "end-hundredths", 0, "hundredths digit of the end reading (0-9)")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "write the PDF report to this path")
	cmd.Flags().BoolVar(&opts.export, "export", false, "write the PDF report with its default name")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "directory for default-named reports (default: report.output_dir)")
	cmd.Flags().BoolVar(&opts.sheets, "sheets", false, "also upload the report to Google Sheets")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "do not record the exported report in the history")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "exit with an error unless the test is approved")
	_ = cmd.MarkFlagRequired("rows")

	return cmd
}

func runTest(cmd *cobra.Command, path string, opts testOptions) error {
	handler := cli.NewInterruptHandler(cmd.ErrOrStderr(), "Interrupted, stopping...")
	ctx, stop := handler.HandleInterrupts(cmd.Context())
	defer stop()

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if opts.outputDir != "" {
		settings.ReportOutputDir = config.ExpandPath(opts.outputDir)
	}
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	sess, err := session.New(cat)
	if err != nil {
		return err
	}

	data, err := xlsx.NewParser().ParsePath(ctx, path)
	if err != nil {
		return common.NewUserError("Could not load "+path, err)
	}
	sess.Load(data)
	common.LogDebug("Loaded flowmeter export", common.Fields{
		"path":    path,
		"samples": len(data.Samples),
		"dropped": data.DroppedRows,
	})

	indexes, err := parseRowSelection(opts.rows, len(data.Samples))
	if err != nil {
		return common.NewUserError("Invalid --rows", err)
	}
	if err := sess.Select(indexes...); err != nil {
		return common.NewUserError("Invalid --rows", err)
	}

	if opts.meter != "" {
		if err := sess.SelectMeter(opts.meter); err != nil {
			return common.NewUserError("Run 'flowqa meters' to list the available models", err)
		}
	}

	start, err := digitReading(opts.start, opts.startTenths, opts.startHundredths)
	if err != nil {
		return common.NewUserError("Invalid start reading", err)
	}
	end, err := digitReading(opts.end, opts.endTenths, opts.endHundredths)
	if err != nil {
		return common.NewUserError("Invalid end reading", err)
	}
	sess.SetStart(start)
	sess.SetEnd(end)

	result := sess.PerformTest()
	r, err := sess.Report(time.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.RenderSummary(r))

	if opts.reportPath != "" || opts.export || opts.sheets {
		reportPath := opts.reportPath
		if reportPath == "" {
			reportPath = filepath.Join(settings.ReportOutputDir, report.DefaultFileName(r.DeviceID, r.GeneratedAt))
		}
		if err := exportReport(ctx, cmd, settings, r, reportPath, opts); err != nil {
			return err
		}
	}

	if opts.strict && result.Verdict != model.VerdictPass {
		return fmt.Errorf("%w: %s", errTestNotPassed, result.Verdict.Label())
	}
	return nil
}

func exportReport(ctx context.Context, cmd *cobra.Command, settings config.Settings, r model.Report, path string, opts testOptions) error {
	exporter, cleanup, err := newExporter(ctx, settings, exportTargets{
		progress: cli.ProgressFunc(cmd.ErrOrStderr(), "Rendering report"),
		history:  !opts.noHistory,
		sheets:   opts.sheets,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	res, err := exporter.Export(ctx, r, path)
	if err != nil {
		return common.NewUserError("Export failed", err)
	}
	printExportResult(cmd.OutOrStdout(), res.Path, res.Run, res.RemoteErr, res.HistoryErr, opts.sheets)
	return nil
}

func printExportResult(out io.Writer, path string, run *model.TestRun, remoteErr, historyErr error, sheets bool) {
	fmt.Fprintln(out, cli.FormatSuccess("Report saved to "+path))
	if sheets {
		if remoteErr != nil {
			fmt.Fprintln(out, cli.FormatWarning("Google Sheets upload failed: "+common.UserMessage(remoteErr)))
		} else {
			fmt.Fprintln(out, cli.FormatSuccess("Report uploaded to Google Sheets"))
		}
	}
	if historyErr != nil {
		fmt.Fprintln(out, cli.FormatWarning("Test run not recorded in history: "+common.UserMessage(historyErr)))
	}
	if run != nil {
		fmt.Fprintln(out, cli.FormatInfo("Recorded as test run "+run.ID))
	}
}
