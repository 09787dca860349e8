package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Veraticus/flowqa/internal/model"
	"github.com/go-pdf/fpdf"
)

// Page geometry in millimeters (A4 portrait).
const (
	pageHeight   = 297.0
	marginLeft   = 20.0
	marginTop    = 20.0
	marginBottom = 20.0
	titleHeight  = 10.0
	headerHeight = 8.0
	rowHeight    = 7.0
	summaryStep  = 10.0

	colIndexWidth  = 20.0
	colVolumeWidth = 45.0
	colTimeWidth   = 105.0

	cancelCheckInterval = 100
)

// RowsPerPage is how many samples fit under the header of one data page.
var RowsPerPage = int(usableRowHeight / rowHeight)

// usableRowHeight is a typed variable so the conversion above truncates
// at run time; constant float-to-int conversion must be exact.
var usableRowHeight float64 = pageHeight - marginTop - marginBottom - titleHeight - headerHeight

// ErrRender wraps failures reported by the PDF engine.
var ErrRender = errors.New("failed to render report")

// SamplePages returns how many data pages a listing of n samples needs.
// An empty listing still gets one page.
func SamplePages(n int) int {
	if n <= 0 {
		return 1
	}
	return (n + RowsPerPage - 1) / RowsPerPage
}

// Writer renders reports as PDF documents.
type Writer struct {
	progress func(done, total int)
	title    string
}

// Option configures a Writer.
type Option func(*Writer)

// WithProgress registers a callback invoked after each sample row.
func WithProgress(fn func(done, total int)) Option {
	return func(w *Writer) {
		w.progress = fn
	}
}

// WithTitle overrides the summary page title.
func WithTitle(title string) Option {
	return func(w *Writer) {
		if title != "" {
			w.title = title
		}
	}
}

// NewWriter creates a PDF report writer.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{title: "Flowmeter Quality Assurance Test Summary"}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteFile renders the report to path, creating parent directories. The
// document is written to a temporary file in the same directory and renamed
// into place, so a failed export leaves any existing file at path untouched.
func (w *Writer) WriteFile(ctx context.Context, path string, r model.Report) (err error) {
	dir := filepath.Dir(path)
	if mkErr := os.MkdirAll(dir, 0o750); mkErr != nil {
		return fmt.Errorf("failed to create report directory: %w", mkErr)
	}

	f, err := os.CreateTemp(dir, ".flowqa-report-*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	tmpPath := f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if err = w.Write(ctx, f, r); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}
	if err = os.Chmod(tmpPath, 0o644); err != nil { // #nosec G302 - reports are meant to be shared
		return fmt.Errorf("failed to set report permissions: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move report into place: %w", err)
	}

	slog.Info("Report exported", "path", path, "samples", len(r.Samples))
	return nil
}

// Write renders the report to out. Nothing is written when ctx is canceled
// before rendering finishes.
func (w *Writer) Write(ctx context.Context, out io.Writer, r model.Report) error {
	doc, err := w.render(ctx, r)
	if err != nil {
		return err
	}
	if doc.Err() {
		return fmt.Errorf("%w: %w", ErrRender, doc.Error())
	}
	if err := doc.Output(out); err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	return nil
}

func (w *Writer) render(ctx context.Context, r model.Report) (*fpdf.Fpdf, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(marginLeft, marginTop, marginLeft)
	doc.SetAutoPageBreak(false, marginBottom)
	doc.SetTitle(w.title, true)
	doc.SetCreator("flowqa", true)
	if !r.GeneratedAt.IsZero() {
		doc.SetCreationDate(r.GeneratedAt)
	}
	doc.AliasNbPages("")

	tr := doc.UnicodeTranslatorFromDescriptor("")
	doc.SetFooterFunc(func() {
		doc.SetY(-marginBottom + 5)
		doc.SetFont("Helvetica", "I", 8)
		doc.SetTextColor(110, 110, 110)
		doc.CellFormat(0, 5, fmt.Sprintf("Page %d of {nb}", doc.PageNo()), "", 0, "C", false, 0, "")
		doc.SetTextColor(0, 0, 0)
	})

	w.renderSummary(doc, tr, r)
	if err := w.renderSamples(ctx, doc, tr, r.Samples); err != nil {
		return nil, err
	}
	return doc, nil
}

func (w *Writer) renderSummary(doc *fpdf.Fpdf, tr func(string) string, r model.Report) {
	doc.AddPage()
	doc.SetFont("Helvetica", "B", 14)
	doc.CellFormat(0, titleHeight, tr(w.title), "", 1, "L", false, 0, "")
	doc.Ln(5)

	doc.SetFont("Helvetica", "", 12)
	for _, line := range Summary(r) {
		if line.Verdict {
			red, green, blue := verdictColor(r.Result.Verdict)
			doc.SetTextColor(red, green, blue)
			doc.SetFont("Helvetica", "B", 12)
		}
		doc.CellFormat(0, summaryStep, tr(line.String()), "", 1, "L", false, 0, "")
		doc.SetTextColor(0, 0, 0)
		doc.SetFont("Helvetica", "", 12)
	}
}

func (w *Writer) renderSamples(ctx context.Context, doc *fpdf.Fpdf, tr func(string) string, samples []model.FlowSample) error {
	pages := SamplePages(len(samples))
	for page := 0; page < pages; page++ {
		doc.AddPage()
		title := "Flowmeter Data"
		if page > 0 {
			title += " (continued)"
		}
		doc.SetFont("Helvetica", "B", 14)
		doc.CellFormat(0, titleHeight, title, "", 1, "L", false, 0, "")
		writeHeader(doc)

		if len(samples) == 0 {
			doc.SetFont("Helvetica", "I", 10)
			doc.CellFormat(0, rowHeight, "No samples selected.", "", 1, "L", false, 0, "")
			return nil
		}

		doc.SetFont("Helvetica", "", 10)
		first := page * RowsPerPage
		last := min(first+RowsPerPage, len(samples))
		for i := first; i < last; i++ {
			if i%cancelCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			s := samples[i]
			doc.CellFormat(colIndexWidth, rowHeight, strconv.Itoa(i+1)+".", "", 0, "R", false, 0, "")
			doc.CellFormat(colVolumeWidth, rowHeight, tr(s.Volume+" lt"), "", 0, "R", false, 0, "")
			doc.CellFormat(colTimeWidth, rowHeight, tr(s.Timestamp), "", 1, "L", false, 0, "")
			if w.progress != nil {
				w.progress(i+1, len(samples))
			}
		}
	}
	return nil
}

func writeHeader(doc *fpdf.Fpdf) {
	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(colIndexWidth, headerHeight, "#", "B", 0, "R", false, 0, "")
	doc.CellFormat(colVolumeWidth, headerHeight, "Water Count", "B", 0, "R", false, 0, "")
	doc.CellFormat(colTimeWidth, headerHeight, "Timestamp", "B", 1, "L", false, 0, "")
}

func verdictColor(v model.Verdict) (int, int, int) {
	switch v {
	case model.VerdictPass:
		return 0, 128, 0
	case model.VerdictFail:
		return 200, 0, 0
	default:
		return 0, 0, 0
	}
}
