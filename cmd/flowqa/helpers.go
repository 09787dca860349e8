package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Veraticus/flowqa/internal/catalog"
	"github.com/Veraticus/flowqa/internal/config"
	"github.com/Veraticus/flowqa/internal/export"
	"github.com/Veraticus/flowqa/internal/model"
	"github.com/Veraticus/flowqa/internal/report"
	"github.com/Veraticus/flowqa/internal/service"
	"github.com/Veraticus/flowqa/internal/sheets"
	"github.com/Veraticus/flowqa/internal/storage"
	"github.com/spf13/viper"
)

var (
	errEmptyRowSelection = errors.New("row selection is empty")
	errInvalidRowRange   = errors.New("invalid row range")
	errInvalidDigit      = errors.New("dial digit must be between 0 and 9")
)

// parseRowSelection turns "1-3,7" into 0-based sample indexes. Numbers refer
// to the sample list position shown by inspect, not the spreadsheet row.
// "all" selects every sample.
func parseRowSelection(selection string, count int) ([]int, error) {
	selection = strings.TrimSpace(selection)
	if selection == "" {
		return nil, errEmptyRowSelection
	}
	if strings.EqualFold(selection, "all") {
		indexes := make([]int, count)
		for i := range indexes {
			indexes[i] = i
		}
		return indexes, nil
	}

	seen := make(map[int]bool)
	for _, part := range strings.Split(selection, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		lo, hi, err := parseRange(part)
		if err != nil {
			return nil, err
		}
		if lo < 1 || hi > count {
			return nil, fmt.Errorf("%w: %q is outside 1-%d", errInvalidRowRange, part, count)
		}
		for n := lo; n <= hi; n++ {
			seen[n-1] = true
		}
	}
	if len(seen) == 0 {
		return nil, errEmptyRowSelection
	}

	indexes := make([]int, 0, len(seen))
	for i := range seen {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	return indexes, nil
}

func parseRange(part string) (int, int, error) {
	from, to, isRange := strings.Cut(part, "-")
	lo, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", errInvalidRowRange, part)
	}
	if !isRange {
		return lo, lo, nil
	}
	hi, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil || hi < lo {
		return 0, 0, fmt.Errorf("%w: %q", errInvalidRowRange, part)
	}
	return lo, hi, nil
}

// digitReading validates the dial digits entered on the command line.
func digitReading(whole string, tenths, hundredths int) (model.DigitReading, error) {
	for _, d := range []int{tenths, hundredths} {
		if d < 0 || d > model.MaxDialDigit {
			return model.DigitReading{}, fmt.Errorf("%w: got %d", errInvalidDigit, d)
		}
	}
	return model.DigitReading{Whole: strings.TrimSpace(whole), Tenths: tenths, Hundredths: hundredths}, nil
}

func loadCatalog() (*catalog.Catalog, error) {
	return config.LoadCatalog(viper.GetViper())
}

func loadSettings() (config.Settings, error) {
	return config.Load(viper.GetViper())
}

// openStorage opens the history database and applies migrations.
func openStorage(ctx context.Context, settings config.Settings) (service.Storage, error) {
	store, err := storage.NewSQLiteStorage(settings.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// exportTargets describes which optional targets an export writes to.
type exportTargets struct {
	progress func(done, total int)
	history  bool
	sheets   bool
}

// newExporter assembles the exporter. The returned cleanup closes the
// history database when one was opened.
func newExporter(ctx context.Context, settings config.Settings, targets exportTargets) (*export.Exporter, func(), error) {
	var pdfOpts []report.Option
	if targets.progress != nil {
		pdfOpts = append(pdfOpts, report.WithProgress(targets.progress))
	}
	opts := []export.Option{export.WithPDFWriter(report.NewWriter(pdfOpts...))}
	cleanup := func() {}

	if targets.sheets {
		sheetsConfig, err := config.LoadSheetsConfig(viper.GetViper())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load sheets config: %w", err)
		}
		writer, err := sheets.NewWriter(ctx, *sheetsConfig, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create sheets writer: %w", err)
		}
		opts = append(opts, export.WithRemote(writer))
	}

	if targets.history && settings.HistoryEnabled {
		store, err := openStorage(ctx, settings)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open history: %w", err)
		}
		opts = append(opts, export.WithHistory(store))
		cleanup = func() { _ = store.Close() }
	}

	return export.New(opts...), cleanup, nil
}
