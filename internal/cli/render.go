package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/flowqa/internal/model"
	"github.com/Veraticus/flowqa/internal/report"
	"github.com/charmbracelet/lipgloss"
)

// VerdictStyle returns the style an approval label is drawn with.
func VerdictStyle(v model.Verdict) lipgloss.Style {
	switch v {
	case model.VerdictPass:
		return SuccessStyle.Bold(true)
	case model.VerdictFail:
		return ErrorStyle.Bold(true)
	default:
		return BoldStyle
	}
}

// FormatVerdict renders OK / NOT OK / - in its verdict color.
func FormatVerdict(v model.Verdict) string {
	return VerdictStyle(v).Render(v.Label())
}

// RenderSummary draws the report summary block inside a box.
func RenderSummary(r model.Report) string {
	lines := report.Summary(r)
	rows := make([]string, 0, len(lines))
	for _, line := range lines {
		value := line.Value
		if line.Verdict {
			value = FormatVerdict(r.Result.Verdict)
		}
		rows = append(rows, LabelStyle.Render(line.Label)+value)
	}
	return RenderBox("Flowmeter Quality Assurance Test Summary", strings.Join(rows, "\n"))
}

// RenderSamples draws samples as an aligned table. Selected rows, when
// given, are marked with an asterisk.
func RenderSamples(samples []model.FlowSample, selected map[int]bool) string {
	var b strings.Builder
	header := fmt.Sprintf("  %-6s %-6s %-18s %s", "#", "Row", "Flow Counter (lt)", "Device TS Date")
	b.WriteString(TableHeaderStyle.Render(header))
	b.WriteString("\n")
	for i, s := range samples {
		mark := " "
		if selected[i] {
			mark = "*"
		}
		b.WriteString(fmt.Sprintf("%s %-6d %-6d %-18s %s\n", mark, i+1, s.Row, s.Volume, s.Timestamp))
	}
	return b.String()
}

// RenderTestRuns draws a history listing.
func RenderTestRuns(runs []model.TestRun) string {
	if len(runs) == 0 {
		return SubtleStyle.Render("No test runs recorded.")
	}

	var b strings.Builder
	header := fmt.Sprintf("%-36s  %-19s  %-14s  %-24s  %-10s  %s", "ID", "Created", "Device", "Meter", "Rel. Error", "Result")
	b.WriteString(TableHeaderStyle.Render(header))
	b.WriteString("\n")
	for _, run := range runs {
		b.WriteString(fmt.Sprintf("%-36s  %-19s  %-14s  %-24s  %-10s  %s\n",
			run.ID,
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			truncate(run.DeviceID, 14),
			truncate(run.MeterName, 24),
			report.FormatPercent(run.RelativeError),
			FormatVerdict(run.Verdict)))
	}
	return b.String()
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
