package components

import (
	"strconv"
	"strings"

	"github.com/Veraticus/flowqa/internal/model"
	"github.com/Veraticus/flowqa/internal/tui/themes"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Field identifies one input of the meter form.
type Field int

// Form fields in tab order.
const (
	FieldMeter Field = iota
	FieldStartWhole
	FieldStartTenths
	FieldStartHundredths
	FieldEndWhole
	FieldEndTenths
	FieldEndHundredths
	fieldCount
)

// MeterFormModel edits the meter model and the start/end dial readings.
type MeterFormModel struct {
	theme   themes.Theme
	meter   model.MeterModel
	inputs  [fieldCount - 1]textinput.Model
	focus   Field
	focused bool
}

// NewMeterForm creates a form showing meter.
func NewMeterForm(theme themes.Theme, meter model.MeterModel) MeterFormModel {
	m := MeterFormModel{theme: theme, meter: meter}
	for f := FieldStartWhole; f < fieldCount; f++ {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = "0"
		if isDigitField(f) {
			ti.CharLimit = 1
			ti.Width = 1
		} else {
			ti.CharLimit = 9
			ti.Width = 9
		}
		m.inputs[f-1] = ti
	}
	return m
}

func isDigitField(f Field) bool {
	switch f {
	case FieldStartTenths, FieldStartHundredths, FieldEndTenths, FieldEndHundredths:
		return true
	default:
		return false
	}
}

// SetMeter changes the displayed meter model.
func (m *MeterFormModel) SetMeter(meter model.MeterModel) {
	m.meter = meter
}

// Meter returns the displayed meter model.
func (m MeterFormModel) Meter() model.MeterModel {
	return m.meter
}

// FocusedField returns the field receiving input.
func (m MeterFormModel) FocusedField() Field {
	return m.focus
}

// Focused reports whether the form has keyboard focus.
func (m MeterFormModel) Focused() bool {
	return m.focused
}

// Focus gives keyboard focus to field f.
func (m *MeterFormModel) Focus(f Field) tea.Cmd {
	m.focused = true
	m.focus = f
	var cmd tea.Cmd
	for i := range m.inputs {
		if Field(i+1) == f {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

// Blur removes keyboard focus from the form.
func (m *MeterFormModel) Blur() {
	m.focused = false
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
}

// Next moves focus forward. It returns false when focus leaves the last field.
func (m *MeterFormModel) Next() (bool, tea.Cmd) {
	if m.focus+1 >= fieldCount {
		m.Blur()
		return false, nil
	}
	return true, m.Focus(m.focus + 1)
}

// Prev moves focus backward. It returns false when focus leaves the first field.
func (m *MeterFormModel) Prev() (bool, tea.Cmd) {
	if m.focus == FieldMeter {
		m.Blur()
		return false, nil
	}
	return true, m.Focus(m.focus - 1)
}

// Start returns the start reading as entered.
func (m MeterFormModel) Start() model.DigitReading {
	return m.reading(FieldStartWhole)
}

// End returns the end reading as entered.
func (m MeterFormModel) End() model.DigitReading {
	return m.reading(FieldEndWhole)
}

func (m MeterFormModel) reading(whole Field) model.DigitReading {
	return model.DigitReading{
		Whole:      m.value(whole),
		Tenths:     digit(m.value(whole + 1)),
		Hundredths: digit(m.value(whole + 2)),
	}
}

// SetReadings fills the reading inputs.
func (m *MeterFormModel) SetReadings(start, end model.DigitReading) {
	set := func(whole Field, r model.DigitReading) {
		m.inputs[whole-1].SetValue(r.Whole)
		m.inputs[whole].SetValue(strconv.Itoa(r.Tenths))
		m.inputs[whole+1].SetValue(strconv.Itoa(r.Hundredths))
	}
	set(FieldStartWhole, start)
	set(FieldEndWhole, end)
}

func (m MeterFormModel) value(f Field) string {
	return strings.TrimSpace(m.inputs[f-1].Value())
}

// digit maps an empty dial field to 0.
func digit(s string) int {
	d, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return d
}

// Update forwards key presses to the focused reading input. Only digits
// reach the inputs; the meter field is cycled by the parent.
func (m MeterFormModel) Update(msg tea.Msg) (MeterFormModel, bool, tea.Cmd) {
	if !m.focused || m.focus == FieldMeter {
		return m, false, nil
	}

	if k, ok := msg.(tea.KeyMsg); ok && k.Type == tea.KeyRunes {
		for _, r := range k.Runes {
			if r < '0' || r > '9' {
				return m, false, nil
			}
		}
		if isDigitField(m.focus) {
			// Typing into a full dial field replaces its digit.
			m.inputs[m.focus-1].SetValue("")
		}
	}

	before := m.inputs[m.focus-1].Value()
	var cmd tea.Cmd
	m.inputs[m.focus-1], cmd = m.inputs[m.focus-1].Update(msg)
	return m, before != m.inputs[m.focus-1].Value(), cmd
}

// View renders the form.
func (m MeterFormModel) View() string {
	label := m.theme.Label

	meterName := m.meter.Name
	if m.focused && m.focus == FieldMeter {
		meterName = m.theme.Focused.Render("◀ " + meterName + " ▶")
	} else {
		meterName = m.theme.Normal.Render(meterName)
	}

	lines := []string{
		label.Render("Water Meter") + meterName,
		label.Render("Multiplier") + m.theme.Normal.Render(m.meter.Multiplier.StringFixed(2)),
		label.Render("Formula") + m.theme.Normal.Render(m.meter.Formula.Describe()),
		"",
		label.Render("Start Value") + m.readingView(FieldStartWhole),
		label.Render("End Value") + m.readingView(FieldEndWhole),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m MeterFormModel) readingView(whole Field) string {
	return m.inputView(whole) + m.theme.Normal.Render(" . ") +
		m.inputView(whole+1) + m.theme.Normal.Render(" ") +
		m.inputView(whole+2)
}

func (m MeterFormModel) inputView(f Field) string {
	view := "[" + m.inputs[f-1].View() + "]"
	if m.focused && m.focus == f {
		return m.theme.Focused.Render(view)
	}
	return m.theme.Normal.Render(view)
}
