package components

import (
	"testing"

	"github.com/Veraticus/flowqa/internal/catalog"
	"github.com/Veraticus/flowqa/internal/model"
	"github.com/Veraticus/flowqa/internal/tui/themes"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeInto(t *testing.T, m MeterFormModel, s string) MeterFormModel {
	t.Helper()
	for _, r := range s {
		m, _, _ = m.Update(runes(string(r)))
	}
	return m
}

func testSamples(n int) []model.FlowSample {
	samples := make([]model.FlowSample, n)
	for i := range samples {
		samples[i] = model.FlowSample{Row: i + 2, Volume: "1.5", Timestamp: "2024-05-01 10:00", DeviceID: "FM-1"}
	}
	return samples
}

func TestMeterForm_FocusOrder(t *testing.T) {
	form := NewMeterForm(themes.Default, catalog.Default().First())
	form.Focus(FieldMeter)

	visited := []Field{form.FocusedField()}
	for {
		ok, _ := form.Next()
		if !ok {
			break
		}
		visited = append(visited, form.FocusedField())
	}

	assert.Equal(t, []Field{
		FieldMeter,
		FieldStartWhole, FieldStartTenths, FieldStartHundredths,
		FieldEndWhole, FieldEndTenths, FieldEndHundredths,
	}, visited)
	assert.False(t, form.Focused())

	form.Focus(FieldStartWhole)
	ok, _ := form.Prev()
	assert.True(t, ok)
	assert.Equal(t, FieldMeter, form.FocusedField())
	ok, _ = form.Prev()
	assert.False(t, ok)
}

func TestMeterForm_Readings(t *testing.T) {
	form := NewMeterForm(themes.Default, catalog.Default().First())

	form.Focus(FieldStartWhole)
	form = typeInto(t, form, "12a3")
	form.Focus(FieldStartTenths)
	form = typeInto(t, form, "4")
	form.Focus(FieldStartHundredths)
	form = typeInto(t, form, "58")
	form.Focus(FieldEndWhole)
	form = typeInto(t, form, "130")

	assert.Equal(t, model.DigitReading{Whole: "123", Tenths: 4, Hundredths: 8}, form.Start())
	assert.Equal(t, model.DigitReading{Whole: "130"}, form.End())
}

func TestMeterForm_UpdateReportsChange(t *testing.T) {
	form := NewMeterForm(themes.Default, catalog.Default().First())

	form.Focus(FieldMeter)
	_, changed, _ := form.Update(runes("5"))
	assert.False(t, changed, "meter field takes no text")

	form.Focus(FieldEndTenths)
	form, changed, _ = form.Update(runes("7"))
	assert.True(t, changed)
	_, changed, _ = form.Update(runes("q"))
	assert.False(t, changed)
	assert.Equal(t, 7, form.End().Tenths)
}

func TestMeterForm_SetReadingsAndView(t *testing.T) {
	meters := catalog.Default()
	form := NewMeterForm(themes.Default, meters.First())
	form.SetReadings(
		model.DigitReading{Whole: "100", Tenths: 1, Hundredths: 2},
		model.DigitReading{Whole: "105", Tenths: 3, Hundredths: 4},
	)
	assert.Equal(t, model.DigitReading{Whole: "105", Tenths: 3, Hundredths: 4}, form.End())

	form.SetMeter(meters.At(4))
	assert.Equal(t, meters.At(4).Name, form.Meter().Name)

	view := form.View()
	assert.Contains(t, view, meters.At(4).Name)
	assert.Contains(t, view, "100.00")
	assert.Contains(t, view, "Start Value")
}

func TestSampleList_Empty(t *testing.T) {
	list := NewSampleList(themes.Default)
	assert.Equal(t, 0, list.Len())
	assert.Contains(t, list.View(), "No data loaded")
}

func TestSampleList_SelectionMarks(t *testing.T) {
	list := NewSampleList(themes.Default)
	list.SetSamples(testSamples(5))
	list.SetSelected([]int{0, 3})

	assert.True(t, list.IsSelected(0))
	assert.False(t, list.IsSelected(1))
	assert.True(t, list.IsSelected(3))
	assert.Contains(t, list.View(), "2 of 5 rows selected")

	list.SetSamples(testSamples(2))
	assert.False(t, list.IsSelected(0), "new data clears marks")
	assert.Contains(t, list.View(), "0 of 2 rows selected")
}

func TestSampleList_Navigation(t *testing.T) {
	list := NewSampleList(themes.Default)
	list.SetSamples(testSamples(5))

	list, _ = list.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, list.Cursor(), "blurred list ignores keys")

	list.Focus()
	require.True(t, list.Focused())
	list, _ = list.Update(tea.KeyMsg{Type: tea.KeyDown})
	list, _ = list.Update(runes("j"))
	assert.Equal(t, 2, list.Cursor())

	list, _ = list.Update(tea.KeyMsg{Type: tea.KeySpace})
	assert.Equal(t, 2, list.Cursor(), "space does not page")

	list, _ = list.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, list.Cursor())
}
