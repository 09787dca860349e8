package tui

import (
	"context"
	"time"

	"github.com/Veraticus/flowqa/internal/catalog"
	"github.com/Veraticus/flowqa/internal/export"
	"github.com/Veraticus/flowqa/internal/model"
	"github.com/Veraticus/flowqa/internal/service"
	"github.com/Veraticus/flowqa/internal/tui/themes"
)

// ReportExporter writes a report to path and any configured extra targets.
type ReportExporter interface {
	Export(ctx context.Context, r model.Report, path string) (*export.Result, error)
}

// Config holds TUI configuration.
type Config struct {
	Theme       themes.Theme
	Catalog     *catalog.Catalog
	Importer    service.Importer
	Exporter    ReportExporter
	Now         func() time.Time
	OutputDir   string
	InitialFile string
	Width       int
	Height      int
	DemoRows    int
	TestMode    bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:     themes.Default,
		Now:       time.Now,
		OutputDir: ".",
		Width:     110,
		Height:    32,
		DemoRows:  40,
	}
}

// WithCatalog sets the meter catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(cfg *Config) {
		cfg.Catalog = c
	}
}

// WithImporter sets how flowmeter exports are loaded.
func WithImporter(i service.Importer) Option {
	return func(cfg *Config) {
		cfg.Importer = i
	}
}

// WithExporter sets how reports are exported.
func WithExporter(e ReportExporter) Option {
	return func(cfg *Config) {
		cfg.Exporter = e
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(cfg *Config) {
		cfg.Theme = theme
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(cfg *Config) {
		cfg.Width = width
		cfg.Height = height
	}
}

// WithInitialFile loads path as soon as the UI starts.
func WithInitialFile(path string) Option {
	return func(cfg *Config) {
		cfg.InitialFile = path
	}
}

// WithOutputDir sets the directory proposed for exported reports.
func WithOutputDir(dir string) Option {
	return func(cfg *Config) {
		if dir != "" {
			cfg.OutputDir = dir
		}
	}
}

// WithClock overrides the time source used for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(cfg *Config) {
		cfg.Now = now
	}
}

// WithTestMode starts the UI with generated demo data.
func WithTestMode(enabled bool) Option {
	return func(cfg *Config) {
		cfg.TestMode = enabled
	}
}

// WithDemoRows sets how many rows test mode generates.
func WithDemoRows(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.DemoRows = n
		}
	}
}
