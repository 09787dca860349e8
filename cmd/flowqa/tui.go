package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/flowqa/internal/common"
	"github.com/Veraticus/flowqa/internal/tui"
	"github.com/Veraticus/flowqa/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func tuiCmd() *cobra.Command {
	var (
		theme     string
		outputDir string
		sheets    bool
		noHistory bool
	)

	cmd := &cobra.Command{
		Use:   "tui [file]",
		Short: "Run the interactive test form",
		Long: `Open the interactive form: load a flowmeter export, select rows, pick the
water meter, enter the dial readings, perform the test and export the report.

Press ? inside the form for the key bindings.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			settings, err := loadSettings()
			if err != nil {
				return err
			}
			if outputDir != "" {
				settings.ReportOutputDir = outputDir
			}
			cat, err := loadCatalog()
			if err != nil {
				return err
			}

			// The alternate screen owns the terminal, so logs go to a file.
			logFile, err := redirectLogs(settings.DatabasePath)
			if err != nil {
				return err
			}
			defer logFile.Close()

			exporter, cleanup, err := newExporter(ctx, settings, exportTargets{
				history: !noHistory,
				sheets:  sheets,
			})
			if err != nil {
				return err
			}
			defer cleanup()

			opts := []tui.Option{
				tui.WithCatalog(cat),
				tui.WithExporter(exporter),
				tui.WithOutputDir(settings.ReportOutputDir),
				tui.WithTheme(themes.GetTheme(theme)),
			}
			if len(args) == 1 {
				opts = append(opts, tui.WithInitialFile(args[0]))
			}

			return tui.Run(ctx, opts...)
		},
	}

	cmd.Flags().StringVar(&theme, "theme", "default", "color theme (default, catppuccin-mocha)")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "directory proposed for exported reports (default: report.output_dir)")
	cmd.Flags().BoolVar(&sheets, "sheets", false, "also upload exported reports to Google Sheets")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record exported reports in the history")

	return cmd
}

// redirectLogs sends slog output to flowqa.log next to the history database.
func redirectLogs(dbPath string) (*os.File, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "flowqa.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if err := common.SetupLogger(f, viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}
