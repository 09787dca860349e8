// Package export writes a finished report to every configured target: the
// PDF file, optionally Google Sheets, and the local test-run history.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Veraticus/flowqa/internal/model"
	"github.com/Veraticus/flowqa/internal/report"
	"github.com/Veraticus/flowqa/internal/service"
)

// ErrNoPath is returned when no report path was given.
var ErrNoPath = errors.New("report path is required")

// Result describes what an export produced. Failures of the optional
// targets do not fail the export; they are reported here instead.
type Result struct {
	RemoteErr  error
	HistoryErr error
	Run        *model.TestRun
	Path       string
}

// Exporter fans a report out to its targets.
type Exporter struct {
	pdf     *report.Writer
	remote  service.ReportWriter
	storage service.Storage
	logger  *slog.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithPDFWriter overrides the PDF writer, e.g. to attach a progress callback.
func WithPDFWriter(w *report.Writer) Option {
	return func(e *Exporter) {
		e.pdf = w
	}
}

// WithRemote also sends every report to w.
func WithRemote(w service.ReportWriter) Option {
	return func(e *Exporter) {
		e.remote = w
	}
}

// WithHistory records every exported report in s.
func WithHistory(s service.Storage) Option {
	return func(e *Exporter) {
		e.storage = s
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) {
		e.logger = l
	}
}

// New creates an Exporter that writes PDFs and nothing else unless
// options add targets.
func New(opts ...Option) *Exporter {
	e := &Exporter{}
	for _, opt := range opts {
		opt(e)
	}
	if e.pdf == nil {
		e.pdf = report.NewWriter()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Export writes r to path and then to the optional targets.
func (e *Exporter) Export(ctx context.Context, r model.Report, path string) (*Result, error) {
	if path == "" {
		return nil, ErrNoPath
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	if err := e.pdf.WriteFile(ctx, path, r); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	e.logger.Debug("Report written", "path", path, "verdict", r.Result.Verdict)

	res := &Result{Path: path}

	if e.remote != nil {
		if err := e.remote.Write(ctx, r); err != nil {
			e.logger.Warn("Remote export failed", "error", err)
			res.RemoteErr = err
		}
	}

	if e.storage != nil {
		run := model.NewTestRun(r, path)
		if err := e.storage.SaveTestRun(ctx, &run); err != nil {
			e.logger.Warn("Failed to record test run", "error", err)
			res.HistoryErr = err
		} else {
			res.Run = &run
			e.logger.Debug("Recorded test run", "id", run.ID)
		}
	}

	return res, nil
}
