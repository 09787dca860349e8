package tui

import (
	"strings"

	"github.com/Veraticus/flowqa/internal/model"
	"github.com/Veraticus/flowqa/internal/report"
	"github.com/charmbracelet/lipgloss"
)

const leftColumnWidth = 52

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	if m.mode == ModeHelp {
		body = m.renderHelp()
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			m.renderLeftColumn(),
			" ",
			m.renderSamples(),
		)
	}

	sections := []string{m.renderHeader(), body}
	if m.mode == ModeLoadPrompt || m.mode == ModeExportPrompt {
		sections = append(sections, m.renderPrompt())
	}
	sections = append(sections, m.renderStatusBar(), m.help.ShortHelpView(m.keymap.ShortHelp()))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	title := m.theme.Title.Render("💧 Flowmeter Quality Assurance")
	if !m.session.HasData() {
		return title
	}
	data := m.session.Data()
	info := m.theme.Label.Width(0).Render("  Device ID ") + m.theme.Bold.Render(orDash(data.DeviceID))
	if data.SourcePath != "" {
		info += m.theme.Label.Width(0).Render("  File ") + m.theme.Normal.Render(data.SourcePath)
	}
	return title + info
}

func (m Model) renderLeftColumn() string {
	formBox := m.theme.Box
	if m.focus == FocusForm && m.mode == ModeNormal {
		formBox = m.theme.FocusedBox
	}
	form := formBox.Width(leftColumnWidth).Render(m.form.View())
	return lipgloss.JoinVertical(lipgloss.Left, form, m.renderResult())
}

// renderResult shows the last performed test using the report's summary lines.
func (m Model) renderResult() string {
	result, ok := m.session.LastResult()
	if !ok {
		return m.theme.Box.Width(leftColumnWidth).Render(
			lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Press ctrl+t to perform the test."),
		)
	}

	r := model.Report{
		DeviceID: m.session.DeviceID(),
		Meter:    m.session.Meter(),
		Start:    m.session.Start(),
		End:      m.session.End(),
		Result:   result,
	}

	lines := make([]string, 0, 12)
	for _, line := range report.Summary(r) {
		value := m.theme.Normal.Render(line.Value)
		if line.Verdict {
			value = m.verdictStyle(result.Verdict).Render(line.Value)
		}
		lines = append(lines, m.theme.Label.Width(26).Render(line.Label)+value)
	}
	if m.dirty {
		lines = append(lines, "", m.theme.StatusWarning.Render("Inputs changed since this test. Press ctrl+t to re-run."))
	}
	return m.theme.Box.Width(leftColumnWidth).Render(strings.Join(lines, "\n"))
}

func (m Model) verdictStyle(v model.Verdict) lipgloss.Style {
	switch v {
	case model.VerdictPass:
		return m.theme.Bold.Foreground(m.theme.Success)
	case model.VerdictFail:
		return m.theme.Bold.Foreground(m.theme.Error)
	default:
		return m.theme.Bold
	}
}

func (m Model) renderSamples() string {
	box := m.theme.Box
	if m.focus == FocusSamples && m.mode == ModeNormal {
		box = m.theme.FocusedBox
	}
	title := m.theme.Subtitle.Render("Flowmeter Data")
	return box.Render(lipgloss.JoinVertical(lipgloss.Left, title, m.samples.View()))
}

func (m Model) renderPrompt() string {
	label := "Load file: "
	if m.mode == ModeExportPrompt {
		label = "Export report to: "
	}
	return m.theme.Focused.Render(label) + m.prompt.View()
}

func (m Model) renderHelp() string {
	m.help.ShowAll = true
	content := lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Subtitle.Render("Keyboard shortcuts"),
		"",
		m.help.View(m.keymap),
		"",
		lipgloss.NewStyle().Foreground(m.theme.Muted).Render("Press any key to return."),
	)
	return m.theme.FocusedBox.Render(content)
}

// renderStatusBar renders the bottom status line.
func (m Model) renderStatusBar() string {
	style := m.theme.StatusInfo
	switch m.statusKind {
	case statusSuccess:
		style = m.theme.StatusSuccess
	case statusWarning:
		style = m.theme.StatusWarning
	case statusError:
		style = m.theme.StatusError
	}
	text := m.status
	if m.busy {
		text = "⏳ " + text
	}
	return style.MaxWidth(max(m.width, 20)).Render(text)
}
