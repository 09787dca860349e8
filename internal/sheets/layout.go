package sheets

import (
	"fmt"
	"strings"

	"github.com/Veraticus/flowqa/internal/model"
	"github.com/Veraticus/flowqa/internal/report"
	"google.golang.org/api/sheets/v4"
)

// sampleColumns is the width of the sample table.
const sampleColumns = 4

// layout records where prepareReportData put things so formatting can find them.
type layout struct {
	verdict     model.Verdict
	titleRow    int
	summaryRows [2]int // [start, end)
	verdictRow  int
	headerRow   int
	totalRows   int
}

// TabTitle names the worksheet a report is written to.
func TabTitle(r model.Report) string {
	device := strings.TrimSpace(r.DeviceID)
	if device == "" {
		device = "unknown"
	}
	title := fmt.Sprintf("%s %s", device, r.GeneratedAt.Format("2006-01-02 15:04:05"))
	// Sheet titles may not contain these characters.
	return strings.NewReplacer("[", "(", "]", ")", ":", ".", "*", "_", "?", "_", "/", "-", "\\", "-").Replace(title)
}

// prepareReportData lays the report out as rows: title, summary block, then
// the selected samples.
func prepareReportData(r model.Report) ([][]any, layout) {
	summary := report.Summary(r)
	values := make([][]any, 0, len(summary)+len(r.Samples)+5)
	var l layout
	l.verdict = r.Result.Verdict

	l.titleRow = len(values)
	values = append(values,
		[]any{"Flowmeter Quality Assurance Test Summary"},
		[]any{},
	)

	l.summaryRows[0] = len(values)
	for _, line := range summary {
		if line.Verdict {
			l.verdictRow = len(values)
		}
		values = append(values, []any{line.Label, line.Value})
	}
	l.summaryRows[1] = len(values)

	values = append(values, []any{}, []any{"Flowmeter Data"})
	l.headerRow = len(values)
	values = append(values, []any{"#", "Row", "Flow Counter (lt)", "Device TS Date"})

	for i, s := range r.Samples {
		values = append(values, []any{i + 1, s.Row, s.Volume, s.Timestamp})
	}

	l.totalRows = len(values)
	return values, l
}

func verdictColor(v model.Verdict) *sheets.Color {
	switch v {
	case model.VerdictPass:
		return &sheets.Color{Red: 0, Green: 0.6, Blue: 0}
	case model.VerdictFail:
		return &sheets.Color{Red: 0.8, Green: 0, Blue: 0}
	default:
		return &sheets.Color{}
	}
}

func rowRange(sheetID int64, start, end, startCol, endCol int) *sheets.GridRange {
	return &sheets.GridRange{
		SheetId:          sheetID,
		StartRowIndex:    int64(start),
		EndRowIndex:      int64(end),
		StartColumnIndex: int64(startCol),
		EndColumnIndex:   int64(endCol),
	}
}

func boldRequest(rng *sheets.GridRange, size int64) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: rng,
			Cell: &sheets.CellData{
				UserEnteredFormat: &sheets.CellFormat{
					TextFormat: &sheets.TextFormat{Bold: true, FontSize: size},
				},
			},
			Fields: "userEnteredFormat.textFormat",
		},
	}
}

// formattingRequests styles the title, labels, header row and verdict cell.
func formattingRequests(sheetID int64, l layout) []*sheets.Request {
	requests := []*sheets.Request{
		boldRequest(rowRange(sheetID, l.titleRow, l.titleRow+1, 0, 1), 14),
		boldRequest(rowRange(sheetID, l.summaryRows[0], l.summaryRows[1], 0, 1), 10),
		boldRequest(rowRange(sheetID, l.headerRow-1, l.headerRow+1, 0, sampleColumns), 10),
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: rowRange(sheetID, l.verdictRow, l.verdictRow+1, 1, 2),
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{
							Bold:            true,
							ForegroundColor: verdictColor(l.verdict),
						},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   sampleColumns,
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						FrozenRowCount: int64(l.titleRow + 1),
					},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}
	return requests
}
