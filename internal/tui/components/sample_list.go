// Package components holds the building blocks of the flowqa terminal UI.
package components

import (
	"fmt"

	"github.com/Veraticus/flowqa/internal/model"
	"github.com/Veraticus/flowqa/internal/tui/themes"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SampleListModel shows the loaded flowmeter rows and which of them are
// selected. Selection itself lives in the session; the list only mirrors it.
type SampleListModel struct {
	theme    themes.Theme
	selected map[int]bool
	samples  []model.FlowSample
	table    table.Model
	width    int
	height   int
}

// NewSampleList creates an empty sample list.
func NewSampleList(theme themes.Theme) SampleListModel {
	t := table.New(
		table.WithColumns(sampleColumns(60)),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(theme.Primary).
		Bold(true)
	t.SetStyles(s)

	// space and ctrl+d are selection keys in this UI.
	km := table.DefaultKeyMap()
	km.PageDown = key.NewBinding(key.WithKeys("f", "pgdown"))
	km.HalfPageDown = key.NewBinding(key.WithKeys("d"))
	t.KeyMap = km

	m := SampleListModel{
		theme:    theme,
		selected: make(map[int]bool),
		table:    t,
		width:    60,
		height:   12,
	}
	return m
}

func sampleColumns(width int) []table.Column {
	fixed := 3 + 5 + 6 + 18
	ts := max(width-fixed-10, 12)
	return []table.Column{
		{Title: "Sel", Width: 3},
		{Title: "#", Width: 5},
		{Title: "Row", Width: 6},
		{Title: "Flow Counter (lt)", Width: 18},
		{Title: "Device TS Date", Width: ts},
	}
}

// SetSamples replaces the listed rows and clears the selection marks.
func (m *SampleListModel) SetSamples(samples []model.FlowSample) {
	m.samples = samples
	m.selected = make(map[int]bool)
	m.table.SetCursor(0)
	m.refresh()
}

// SetSelected marks exactly the given indexes as selected.
func (m *SampleListModel) SetSelected(indexes []int) {
	m.selected = make(map[int]bool, len(indexes))
	for _, i := range indexes {
		m.selected[i] = true
	}
	m.refresh()
}

// IsSelected reports whether row i is marked.
func (m SampleListModel) IsSelected(i int) bool {
	return m.selected[i]
}

// Cursor returns the index of the highlighted row.
func (m SampleListModel) Cursor() int {
	return m.table.Cursor()
}

// Len returns the number of listed rows.
func (m SampleListModel) Len() int {
	return len(m.samples)
}

// Focus enables keyboard navigation.
func (m *SampleListModel) Focus() {
	m.table.Focus()
}

// Blur disables keyboard navigation.
func (m *SampleListModel) Blur() {
	m.table.Blur()
}

// Focused reports whether the list receives navigation keys.
func (m SampleListModel) Focused() bool {
	return m.table.Focused()
}

// Resize sets the outer size of the list.
func (m *SampleListModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.table.SetColumns(sampleColumns(width))
	m.table.SetWidth(width)
	m.table.SetHeight(max(height-2, 3))
}

// Update handles navigation keys.
func (m SampleListModel) Update(msg tea.Msg) (SampleListModel, tea.Cmd) {
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the list with a selection counter.
func (m SampleListModel) View() string {
	if len(m.samples) == 0 {
		return lipgloss.NewStyle().
			Foreground(m.theme.Muted).
			Render("No data loaded. Press ctrl+o to open a flowmeter export.")
	}

	counter := m.theme.StatusInfo.Render(fmt.Sprintf("%d of %d rows selected", len(m.selected), len(m.samples)))
	return lipgloss.JoinVertical(lipgloss.Left, m.table.View(), counter)
}

func (m *SampleListModel) refresh() {
	rows := make([]table.Row, len(m.samples))
	for i, s := range m.samples {
		mark := "[ ]"
		if m.selected[i] {
			mark = "[x]"
		}
		rows[i] = table.Row{
			mark,
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%d", s.Row),
			s.Volume,
			s.Timestamp,
		}
	}
	m.table.SetRows(rows)
}
