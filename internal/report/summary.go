// Package report renders an exported test run as a fixed-layout PDF.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/flowqa/internal/model"
	"github.com/shopspring/decimal"
)

// SummaryLine is one labeled value of the report's summary block.
type SummaryLine struct {
	Label string
	Value string
	// Verdict marks the approval line so renderers can color it.
	Verdict bool
}

// String renders the line as "Label: Value".
func (l SummaryLine) String() string {
	return l.Label + ": " + l.Value
}

// Summary returns the summary block in display order.
func Summary(r model.Report) []SummaryLine {
	res := r.Result
	lines := []SummaryLine{
		{Label: "Device ID", Value: orDash(r.DeviceID)},
		{Label: "Selected Meter", Value: r.Meter.Name},
		{Label: "Multiplier", Value: r.Meter.Multiplier.StringFixed(2)},
		{Label: "Water Meter Start Value", Value: res.StartValue.StringFixed(3)},
		{Label: "Water Meter End Value", Value: res.EndValue.StringFixed(3)},
		{Label: "Consumption", Value: res.Delta.StringFixed(3) + " " + r.Meter.Formula.Describe()},
		{Label: "Water Meter Count", Value: FormatLiters(res.MeterConsumption)},
		{Label: "Flowmeter Count", Value: FormatLiters(res.FlowmeterTotal)},
		{Label: "Relative Error", Value: FormatPercent(res.RelativeErrorPercent)},
		{Label: "Test Approval", Value: res.Verdict.Label(), Verdict: true},
		{Label: "Selected Samples", Value: sampleCount(res)},
	}
	if !r.GeneratedAt.IsZero() {
		lines = append(lines, SummaryLine{Label: "Generated", Value: r.GeneratedAt.Format("2006-01-02 15:04:05")})
	}
	if r.SourceFile != "" {
		lines = append(lines, SummaryLine{Label: "Source File", Value: filepath.Base(r.SourceFile)})
	}
	return lines
}

// FormatLiters renders a volume with two decimals.
func FormatLiters(d decimal.Decimal) string {
	return d.StringFixed(2) + " liter"
}

// FormatPercent renders a relative error, or "-" when it is undefined.
func FormatPercent(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.StringFixed(2) + "%"
}

// DefaultFileName builds report_<device>_<YYYYmmdd_HHMMSS>.pdf.
func DefaultFileName(deviceID string, now time.Time) string {
	return fmt.Sprintf("report_%s_%s.pdf", sanitize(deviceID), now.Format("20060102_150405"))
}

func sampleCount(res model.EvaluationResult) string {
	total := res.CountedSamples + res.SkippedSamples
	if res.SkippedSamples == 0 {
		return fmt.Sprintf("%d", total)
	}
	return fmt.Sprintf("%d (%d not numeric, skipped)", total, res.SkippedSamples)
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
