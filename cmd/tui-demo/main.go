// Package main runs the flowmeter test form on generated data.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Veraticus/flowqa/internal/tui"
	"github.com/Veraticus/flowqa/internal/tui/themes"
)

func main() {
	rows := flag.Int("rows", 60, "number of generated flowmeter rows")
	theme := flag.String("theme", "default", "color theme (default, catppuccin-mocha)")
	outputDir := flag.String("output-dir", os.TempDir(), "directory proposed for exported reports")
	flag.Parse()

	err := tui.Run(context.Background(),
		tui.WithTestMode(true),
		tui.WithDemoRows(*rows),
		tui.WithTheme(themes.GetTheme(*theme)),
		tui.WithOutputDir(*outputDir),
		tui.WithSize(120, 40),
	)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
