package tui

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Veraticus/flowqa/internal/catalog"
	"github.com/Veraticus/flowqa/internal/export"
	"github.com/Veraticus/flowqa/internal/model"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)

type fakeImporter struct {
	data  *model.FlowImport
	err   error
	paths []string
}

func (f *fakeImporter) ParsePath(_ context.Context, path string) (*model.FlowImport, error) {
	f.paths = append(f.paths, path)
	if f.err != nil {
		return nil, f.err
	}
	data := *f.data
	data.SourcePath = path
	return &data, nil
}

type fakeExporter struct {
	result  *export.Result
	err     error
	reports []model.Report
	paths   []string
	mu      sync.Mutex
}

func (f *fakeExporter) Export(_ context.Context, r model.Report, path string) (*export.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reports = append(f.reports, r)
	f.paths = append(f.paths, path)
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		res := *f.result
		res.Path = path
		return &res, nil
	}
	return &export.Result{Path: path}, nil
}

func flowImport(volumes ...string) *model.FlowImport {
	imp := &model.FlowImport{DeviceID: "FM-042"}
	for i, v := range volumes {
		imp.Samples = append(imp.Samples, model.FlowSample{
			Row:       i + 2,
			Volume:    v,
			Timestamp: "2024-05-01 10:00",
			DeviceID:  "FM-042",
		})
	}
	return imp
}

func newTestModel(t *testing.T, opts ...Option) Model {
	t.Helper()
	base := []Option{WithClock(func() time.Time { return fixedNow }), WithOutputDir("/reports")}
	m, err := New(context.Background(), append(base, opts...)...)
	require.NoError(t, err)
	return m
}

// send feeds msgs to m. When a message starts a load or export, the
// returned command is run so the flow completes synchronously.
func send(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)

		if cmd != nil && m.Busy() {
			m, cmd = send(t, m, cmd())
		}
	}
	return m, cmd
}

func keyType(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typed(s string) []tea.Msg {
	msgs := make([]tea.Msg, 0, len(s))
	for _, r := range s {
		msgs = append(msgs, runes(string(r)))
	}
	return msgs
}

func loadViaPrompt(t *testing.T, m Model, path string) Model {
	t.Helper()
	m, _ = send(t, m, keyType(tea.KeyCtrlO))
	require.Equal(t, ModeLoadPrompt, m.Mode())
	m, _ = send(t, m, typed(path)...)
	m, _ = send(t, m, keyType(tea.KeyEnter))
	return m
}

// focusSamples tabs from the meter field past every reading field.
func focusSamples(t *testing.T, m Model) Model {
	t.Helper()
	for m.Focus() != FocusSamples {
		m, _ = send(t, m, keyType(tea.KeyTab))
	}
	return m
}

func TestNew_Defaults(t *testing.T) {
	m := newTestModel(t)

	assert.Equal(t, ModeNormal, m.Mode())
	assert.Equal(t, FocusForm, m.Focus())
	assert.False(t, m.Session().HasData())
	assert.Equal(t, catalog.Default().First().Name, m.Session().Meter().Name)
	assert.Contains(t, m.Status(), "ctrl+o")
	assert.Contains(t, m.View(), "Flowmeter Quality Assurance")
}

func TestLoadData(t *testing.T) {
	importer := &fakeImporter{data: flowImport("4", "6", "")}
	importer.data.DroppedRows = 1
	m := newTestModel(t, WithImporter(importer))

	m = loadViaPrompt(t, m, "export.xlsx")

	assert.Equal(t, []string{"export.xlsx"}, importer.paths)
	assert.Equal(t, ModeNormal, m.Mode())
	assert.False(t, m.Busy())
	require.True(t, m.Session().HasData())
	assert.Equal(t, "FM-042", m.Session().DeviceID())
	assert.Contains(t, m.Status(), "Loaded 3 rows")
	assert.Contains(t, m.Status(), "1 incomplete rows skipped")
	assert.Contains(t, m.View(), "FM-042")
}

func TestLoadData_Failure(t *testing.T) {
	importer := &fakeImporter{err: errors.New("required columns not found: Master Device ID")}
	m := newTestModel(t, WithImporter(importer))

	m = loadViaPrompt(t, m, "bad.xlsx")

	assert.False(t, m.Session().HasData())
	assert.Contains(t, m.Status(), "Load failed")
	assert.Contains(t, m.Status(), "Master Device ID")
}

func TestPrompt_Cancel(t *testing.T) {
	importer := &fakeImporter{data: flowImport("1")}
	m := newTestModel(t, WithImporter(importer))

	m, _ = send(t, m, keyType(tea.KeyCtrlO))
	m, _ = send(t, m, typed("x.xlsx")...)
	m, _ = send(t, m, keyType(tea.KeyEsc))

	assert.Equal(t, ModeNormal, m.Mode())
	assert.Empty(t, importer.paths)
	assert.Equal(t, "Canceled.", m.Status())
}

func TestPrompt_EmptyPath(t *testing.T) {
	m := newTestModel(t, WithImporter(&fakeImporter{data: flowImport("1")}))

	m, _ = send(t, m, keyType(tea.KeyCtrlO), keyType(tea.KeyEnter))

	assert.Equal(t, ModeNormal, m.Mode())
	assert.Contains(t, m.Status(), "path is required")
}

func TestExport_WithoutData(t *testing.T) {
	exporter := &fakeExporter{}
	m := newTestModel(t, WithExporter(exporter))

	m, _ = send(t, m, keyType(tea.KeyCtrlE))

	assert.Equal(t, ModeNormal, m.Mode())
	assert.Contains(t, m.Status(), "No flowmeter data loaded")
	assert.Empty(t, exporter.reports)
}

func TestSelectRows(t *testing.T) {
	m := newTestModel(t, WithImporter(&fakeImporter{data: flowImport("1", "2", "3", "4")}))
	m = loadViaPrompt(t, m, "export.xlsx")
	m = focusSamples(t, m)

	m, _ = send(t, m,
		keyType(tea.KeySpace),
		keyType(tea.KeyDown),
		keyType(tea.KeyDown),
		runes("x"),
	)
	assert.Equal(t, []int{0, 2}, m.Session().SelectedIndexes())
	assert.Contains(t, m.View(), "2 of 4 rows selected")

	m, _ = send(t, m, runes("x"))
	assert.Equal(t, []int{0}, m.Session().SelectedIndexes())

	m, _ = send(t, m, keyType(tea.KeyCtrlD))
	assert.Empty(t, m.Session().SelectedIndexes())
}

func TestSelectMeter(t *testing.T) {
	meters := catalog.Default()
	m := newTestModel(t)

	m, _ = send(t, m, keyType(tea.KeyRight))
	assert.Equal(t, meters.At(1).Name, m.Session().Meter().Name)
	assert.Contains(t, m.View(), meters.At(1).Name)

	m, _ = send(t, m, keyType(tea.KeyLeft), keyType(tea.KeyLeft))
	assert.Equal(t, meters.At(meters.Len()-1).Name, m.Session().Meter().Name, "cycling wraps")
}

func TestEnterReadings(t *testing.T) {
	m := newTestModel(t)

	m, _ = send(t, m, keyType(tea.KeyTab))
	m, _ = send(t, m, typed("12")...)
	m, _ = send(t, m, keyType(tea.KeyTab))
	m, _ = send(t, m, typed("3")...)
	m, _ = send(t, m, keyType(tea.KeyTab), keyType(tea.KeyTab))
	m, _ = send(t, m, typed("14")...)

	assert.Equal(t, model.DigitReading{Whole: "12", Tenths: 3}, m.Session().Start())
	assert.Equal(t, model.DigitReading{Whole: "14"}, m.Session().End())
}

func TestFocusCycle(t *testing.T) {
	m := newTestModel(t)

	m = focusSamples(t, m)
	m, _ = send(t, m, keyType(tea.KeyTab))
	assert.Equal(t, FocusForm, m.Focus())

	m, _ = send(t, m, keyType(tea.KeyShiftTab))
	assert.Equal(t, FocusSamples, m.Focus(), "shift+tab from the meter field wraps to the list")

	m, _ = send(t, m, keyType(tea.KeyShiftTab))
	assert.Equal(t, FocusForm, m.Focus())
}

// performPassingTest loads 4 + 6 liters and reads a 1.00 delta on a x10 meter.
func performPassingTest(t *testing.T, opts ...Option) Model {
	t.Helper()
	opts = append([]Option{WithImporter(&fakeImporter{data: flowImport("4", "6")})}, opts...)
	m := newTestModel(t, opts...)
	m = loadViaPrompt(t, m, "export.xlsx")

	m, _ = send(t, m, keyType(tea.KeyTab))
	m, _ = send(t, m, typed("100")...)
	m, _ = send(t, m, keyType(tea.KeyTab), keyType(tea.KeyTab), keyType(tea.KeyTab))
	m, _ = send(t, m, typed("101")...)

	m = focusSamples(t, m)
	m, _ = send(t, m, keyType(tea.KeySpace), keyType(tea.KeyDown), keyType(tea.KeySpace))
	m, _ = send(t, m, keyType(tea.KeyCtrlT))
	return m
}

func TestPerformTest(t *testing.T) {
	m := performPassingTest(t)

	result, ok := m.Session().LastResult()
	require.True(t, ok)
	assert.Equal(t, model.VerdictPass, result.Verdict)
	assert.Equal(t, "10", result.FlowmeterTotal.String())
	assert.Equal(t, "10", result.MeterConsumption.String())
	assert.Contains(t, m.Status(), "Test Approval: OK")

	view := m.View()
	assert.Contains(t, view, "Test Approval")
	assert.NotContains(t, view, "Inputs changed")
}

func TestPerformTest_NoSelectionIsUndetermined(t *testing.T) {
	m := newTestModel(t, WithImporter(&fakeImporter{data: flowImport("4", "6")}))
	m = loadViaPrompt(t, m, "export.xlsx")

	m, _ = send(t, m, keyType(tea.KeyCtrlT))

	result, ok := m.Session().LastResult()
	require.True(t, ok)
	assert.Equal(t, model.VerdictUndetermined, result.Verdict)
	assert.Contains(t, m.Status(), "Test Approval: -")
}

func TestPerformTest_StaleAfterChange(t *testing.T) {
	m := performPassingTest(t)

	m, _ = send(t, m, runes("x"))
	assert.Contains(t, m.View(), "Inputs changed")

	m, _ = send(t, m, keyType(tea.KeyCtrlT))
	assert.NotContains(t, m.View(), "Inputs changed")
}

func TestExportReport(t *testing.T) {
	exporter := &fakeExporter{}
	m := performPassingTest(t, WithExporter(exporter))

	m, _ = send(t, m, keyType(tea.KeyCtrlE))
	require.Equal(t, ModeExportPrompt, m.Mode())
	m, _ = send(t, m, keyType(tea.KeyEnter))

	wantPath := filepath.Join("/reports", "report_FM-042_20240501_143000.pdf")
	require.Equal(t, []string{wantPath}, exporter.paths)

	r := exporter.reports[0]
	assert.Equal(t, "FM-042", r.DeviceID)
	assert.Equal(t, fixedNow, r.GeneratedAt)
	assert.Len(t, r.Samples, 2)
	assert.Equal(t, model.VerdictPass, r.Result.Verdict)
	assert.Equal(t, "Report saved to "+wantPath, m.Status())
	assert.False(t, m.Busy())
}

func TestExportReport_RemoteFailureIsWarning(t *testing.T) {
	exporter := &fakeExporter{result: &export.Result{RemoteErr: errors.New("quota exceeded")}}
	m := performPassingTest(t, WithExporter(exporter))

	m, _ = send(t, m, keyType(tea.KeyCtrlE), keyType(tea.KeyEnter))

	assert.Contains(t, m.Status(), "Report saved to")
	assert.Contains(t, m.Status(), "quota exceeded")
}

func TestExportReport_Failure(t *testing.T) {
	exporter := &fakeExporter{err: errors.New("disk full")}
	m := performPassingTest(t, WithExporter(exporter))

	m, _ = send(t, m, keyType(tea.KeyCtrlE), keyType(tea.KeyEnter))

	assert.Contains(t, m.Status(), "Export failed: disk full")
	_, ok := m.Session().LastResult()
	assert.True(t, ok, "session survives a failed export")
}

func TestHelpMode(t *testing.T) {
	m := newTestModel(t)

	m, _ = send(t, m, runes("?"))
	assert.Equal(t, ModeHelp, m.Mode())
	assert.Contains(t, m.View(), "Keyboard shortcuts")

	m, _ = send(t, m, runes("q"))
	assert.Equal(t, ModeNormal, m.Mode(), "any key leaves help without quitting")
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)

	m, cmd := send(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestInit_TestMode(t *testing.T) {
	m := newTestModel(t, WithTestMode(true), WithDemoRows(12))

	msg := m.Init()()
	m, _ = send(t, m, msg)

	require.True(t, m.Session().HasData())
	assert.Len(t, m.Session().Samples(), 12)
	assert.Equal(t, "FM-DEMO-01", m.Session().DeviceID())
}

func TestInit_InitialFile(t *testing.T) {
	importer := &fakeImporter{data: flowImport("1", "2")}
	m := newTestModel(t, WithImporter(importer), WithInitialFile("start.xlsx"))

	m, _ = send(t, m, m.Init()())

	assert.Equal(t, []string{"start.xlsx"}, importer.paths)
	assert.True(t, m.Session().HasData())
}

func TestMeterFieldIgnoresText(t *testing.T) {
	m := newTestModel(t)
	require.Equal(t, FocusForm, m.Focus())

	m, _ = send(t, m, typed("123")...)

	assert.Equal(t, model.DigitReading{}, m.Session().Start())
}
