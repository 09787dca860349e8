// Package xlsx reads flowmeter log exports.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/flowqa/internal/model"
	"github.com/xuri/excelize/v2"
)

// Required column headers of a flowmeter export.
const (
	ColumnVolume    = "Flow Counter (lt)"
	ColumnTimestamp = "Device TS Date"
	ColumnDeviceID  = "Master Device ID"
)

// Import errors.
var (
	ErrUnreadableFile = errors.New("spreadsheet could not be read")
	ErrMissingColumns = errors.New("required columns not found")
	ErrNoSheets       = errors.New("spreadsheet has no worksheets")
)

// RequiredColumns lists the headers every import must contain.
func RequiredColumns() []string {
	return []string{ColumnVolume, ColumnTimestamp, ColumnDeviceID}
}

// Parser reads the first worksheet of a flowmeter export.
type Parser struct{}

// NewParser creates a new spreadsheet parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParsePath opens and parses the file at path.
func (p *Parser) ParsePath(ctx context.Context, path string) (*model.FlowImport, error) {
	f, err := os.Open(path) // #nosec G304 - path chosen by the operator
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}
	defer func() { _ = f.Close() }()

	imp, err := p.Parse(ctx, f)
	if err != nil {
		return nil, err
	}
	imp.SourcePath = path
	return imp, nil
}

// Parse reads an export from r. Rows missing a volume, timestamp or device
// id are dropped; the first kept row supplies the session's device id.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (*model.FlowImport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	book, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}
	defer func() { _ = book.Close() }()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}
	sheet := sheets[0]

	formatted, err := book.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}
	raw, err := book.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}

	if len(formatted) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(RequiredColumns(), ", "))
	}

	columns, err := locateColumns(formatted[0])
	if err != nil {
		return nil, err
	}

	imp := &model.FlowImport{}
	for i := 1; i < len(formatted); i++ {
		if i%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		volume := cell(raw, i, columns.volume)
		timestamp := cell(formatted, i, columns.timestamp)
		deviceID := cell(formatted, i, columns.deviceID)

		if volume == "" || timestamp == "" || deviceID == "" {
			if !blankRow(formatted[i]) {
				imp.DroppedRows++
			}
			continue
		}

		imp.Samples = append(imp.Samples, model.FlowSample{
			Row:       i + 1,
			Volume:    volume,
			Timestamp: timestamp,
			DeviceID:  deviceID,
		})
	}

	if len(imp.Samples) > 0 {
		imp.DeviceID = imp.Samples[0].DeviceID
	}

	slog.Debug("Parsed flowmeter export",
		"sheet", sheet,
		"samples", len(imp.Samples),
		"dropped_rows", imp.DroppedRows,
		"device_id", imp.DeviceID)

	return imp, nil
}

type columnIndex struct {
	volume    int
	timestamp int
	deviceID  int
}

func locateColumns(header []string) (columnIndex, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	var missing []string
	for _, required := range RequiredColumns() {
		if _, ok := positions[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return columnIndex{}, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	return columnIndex{
		volume:    positions[ColumnVolume],
		timestamp: positions[ColumnTimestamp],
		deviceID:  positions[ColumnDeviceID],
	}, nil
}

func cell(rows [][]string, row, col int) string {
	if row >= len(rows) || col >= len(rows[row]) {
		return ""
	}
	return strings.TrimSpace(rows[row][col])
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
