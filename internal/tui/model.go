// Package tui is the interactive terminal form: load a flowmeter export,
// select rows, choose a meter, enter the dial readings, perform the test
// and export the report.
package tui

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/Veraticus/flowqa/internal/catalog"
	"github.com/Veraticus/flowqa/internal/common"
	"github.com/Veraticus/flowqa/internal/export"
	"github.com/Veraticus/flowqa/internal/model"
	"github.com/Veraticus/flowqa/internal/report"
	"github.com/Veraticus/flowqa/internal/session"
	"github.com/Veraticus/flowqa/internal/tui/components"
	"github.com/Veraticus/flowqa/internal/tui/themes"
	"github.com/Veraticus/flowqa/internal/xlsx"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Mode is what the keyboard currently drives.
type Mode int

const (
	ModeNormal Mode = iota
	ModeLoadPrompt
	ModeExportPrompt
	ModeHelp
)

// Focus is the pane receiving navigation keys in ModeNormal.
type Focus int

const (
	FocusForm Focus = iota
	FocusSamples
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusWarning
	statusError
)

// Model holds the main TUI state.
type Model struct {
	ctx        context.Context
	session    *session.Session
	theme      themes.Theme
	config     Config
	keymap     KeyMap
	help       help.Model
	prompt     textinput.Model
	status     string
	samples    components.SampleListModel
	form       components.MeterFormModel
	statusKind statusKind
	mode       Mode
	focus      Focus
	width      int
	height     int
	busy       bool
	dirty      bool
	quitting   bool
}

// New creates the TUI model.
func New(ctx context.Context, opts ...Option) (Model, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.Importer == nil {
		cfg.Importer = xlsx.NewParser()
	}
	if cfg.Exporter == nil {
		cfg.Exporter = export.New()
	}
	if cfg.Now == nil {
		cfg.Now = defaultConfig().Now
	}

	sess, err := session.New(cfg.Catalog)
	if err != nil {
		return Model{}, fmt.Errorf("failed to start session: %w", err)
	}

	prompt := textinput.New()
	prompt.CharLimit = 1024

	m := Model{
		ctx:     ctx,
		session: sess,
		config:  cfg,
		theme:   cfg.Theme,
		keymap:  DefaultKeyMap(),
		help:    help.New(),
		prompt:  prompt,
		form:    components.NewMeterForm(cfg.Theme, sess.Meter()),
		samples: components.NewSampleList(cfg.Theme),
		width:   cfg.Width,
		height:  cfg.Height,
	}
	m.form.Focus(components.FieldMeter)
	m.resize()
	m.setStatus(statusInfo, "Press ctrl+o to load a flowmeter export.")
	return m, nil
}

// Session exposes the session driven by the UI.
func (m Model) Session() *session.Session {
	return m.session
}

// Mode returns the current input mode.
func (m Model) Mode() Mode {
	return m.mode
}

// Focus returns the pane receiving navigation keys.
func (m Model) Focus() Focus {
	return m.focus
}

// Status returns the status bar text.
func (m Model) Status() string {
	return m.status
}

// Busy reports whether a load or export is running.
func (m Model) Busy() bool {
	return m.busy
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	switch {
	case m.config.TestMode:
		data := DemoImport(m.config.DemoRows)
		return func() tea.Msg {
			return fileLoadedMsg{path: data.SourcePath, data: data}
		}
	case m.config.InitialFile != "":
		return m.loadFile(m.config.InitialFile)
	default:
		return textinput.Blink
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case fileLoadedMsg:
		m.busy = false
		m.handleFileLoaded(msg)
		return m, nil

	case reportExportedMsg:
		m.busy = false
		m.handleReportExported(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	switch {
	case m.mode == ModeLoadPrompt || m.mode == ModeExportPrompt:
		m.prompt, cmd = m.prompt.Update(msg)
	case m.focus == FocusForm:
		m.form, _, cmd = m.form.Update(msg)
	default:
		m.samples, cmd = m.samples.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.mode {
	case ModeHelp:
		m.mode = ModeNormal
		return m, nil
	case ModeLoadPrompt, ModeExportPrompt:
		return m.handlePromptKey(msg)
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keymap.Help):
		m.mode = ModeHelp
		return m, nil
	case key.Matches(msg, m.keymap.Load):
		return m.openLoadPrompt()
	case key.Matches(msg, m.keymap.Export):
		return m.openExportPrompt()
	case key.Matches(msg, m.keymap.PerformTest):
		m.performTest()
		return m, nil
	case key.Matches(msg, m.keymap.ClearSelection):
		m.session.ClearSelection()
		m.samples.SetSelected(nil)
		m.markDirty()
		return m, nil
	case key.Matches(msg, m.keymap.NextFocus):
		cmd := m.nextFocus()
		return m, cmd
	case key.Matches(msg, m.keymap.PrevFocus):
		cmd := m.prevFocus()
		return m, cmd
	}

	if m.focus == FocusSamples {
		return m.handleSamplesKey(msg)
	}
	return m.handleFormKey(msg)
}

func (m Model) handleSamplesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.Toggle) {
		if m.samples.Len() == 0 {
			return m, nil
		}
		if _, err := m.session.Toggle(m.samples.Cursor()); err != nil {
			m.setStatus(statusError, common.UserMessage(err))
			return m, nil
		}
		m.samples.SetSelected(m.session.SelectedIndexes())
		m.markDirty()
		return m, nil
	}

	var cmd tea.Cmd
	m.samples, cmd = m.samples.Update(msg)
	return m, cmd
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form.FocusedField() == components.FieldMeter {
		switch {
		case key.Matches(msg, m.keymap.PrevMeter):
			m.cycleMeter(-1)
			return m, nil
		case key.Matches(msg, m.keymap.NextMeter):
			m.cycleMeter(1)
			return m, nil
		}
	}

	var (
		cmd     tea.Cmd
		changed bool
	)
	m.form, changed, cmd = m.form.Update(msg)
	if changed {
		m.session.SetStart(m.form.Start())
		m.session.SetEnd(m.form.End())
		m.markDirty()
	}
	return m, cmd
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Cancel):
		m.closePrompt()
		m.setStatus(statusInfo, "Canceled.")
		return m, nil
	case key.Matches(msg, m.keymap.Confirm):
		path := m.prompt.Value()
		mode := m.mode
		m.closePrompt()
		if path == "" {
			m.setStatus(statusError, "A file path is required.")
			return m, nil
		}
		var cmd tea.Cmd
		if mode == ModeLoadPrompt {
			cmd = m.loadFile(path)
		} else {
			cmd = m.exportReport(path)
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) openLoadPrompt() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	m.mode = ModeLoadPrompt
	m.prompt.Placeholder = "path/to/flowmeter-export.xlsx"
	m.prompt.SetValue("")
	if data := m.session.Data(); data != nil {
		m.prompt.SetValue(data.SourcePath)
	}
	m.prompt.CursorEnd()
	cmd := m.prompt.Focus()
	return m, cmd
}

func (m Model) openExportPrompt() (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	if !m.session.HasData() {
		m.setStatus(statusError, "No flowmeter data loaded. Load a file before exporting.")
		return m, nil
	}
	m.mode = ModeExportPrompt
	m.prompt.Placeholder = "report.pdf"
	name := report.DefaultFileName(m.session.DeviceID(), m.config.Now())
	m.prompt.SetValue(filepath.Join(m.config.OutputDir, name))
	m.prompt.CursorEnd()
	cmd := m.prompt.Focus()
	return m, cmd
}

func (m *Model) closePrompt() {
	m.mode = ModeNormal
	m.prompt.Blur()
}

func (m *Model) loadFile(path string) tea.Cmd {
	m.busy = true
	m.setStatus(statusInfo, "Loading "+path+"...")
	ctx, importer := m.ctx, m.config.Importer
	return func() tea.Msg {
		data, err := importer.ParsePath(ctx, path)
		return fileLoadedMsg{path: path, data: data, err: err}
	}
}

func (m *Model) exportReport(path string) tea.Cmd {
	r, err := m.session.Report(m.config.Now())
	if err != nil {
		m.setStatus(statusError, common.UserMessage(err))
		return nil
	}
	m.busy = true
	m.setStatus(statusInfo, "Exporting "+path+"...")
	ctx, exporter := m.ctx, m.config.Exporter
	return func() tea.Msg {
		result, err := exporter.Export(ctx, r, path)
		return reportExportedMsg{result: result, err: err}
	}
}

func (m *Model) handleFileLoaded(msg fileLoadedMsg) {
	if msg.err != nil {
		m.setStatus(statusError, "Load failed: "+common.UserMessage(msg.err))
		return
	}
	m.session.Load(msg.data)
	m.samples.SetSamples(msg.data.Samples)
	m.dirty = false

	status := fmt.Sprintf("Loaded %d rows from %s (device %s)",
		len(msg.data.Samples), filepath.Base(msg.path), orDash(msg.data.DeviceID))
	if msg.data.DroppedRows > 0 {
		status += fmt.Sprintf(", %d incomplete rows skipped", msg.data.DroppedRows)
	}
	m.setStatus(statusSuccess, status)
}

func (m *Model) handleReportExported(msg reportExportedMsg) {
	if msg.err != nil {
		m.setStatus(statusError, "Export failed: "+common.UserMessage(msg.err))
		return
	}
	res := msg.result
	switch {
	case res.RemoteErr != nil:
		m.setStatus(statusWarning, "Report saved to "+res.Path+", Google Sheets upload failed: "+common.UserMessage(res.RemoteErr))
	case res.HistoryErr != nil:
		m.setStatus(statusWarning, "Report saved to "+res.Path+", history not recorded: "+common.UserMessage(res.HistoryErr))
	default:
		m.setStatus(statusSuccess, "Report saved to "+res.Path)
	}
}

func (m *Model) performTest() {
	result := m.session.PerformTest()
	m.dirty = false

	kind := statusInfo
	switch result.Verdict {
	case model.VerdictPass:
		kind = statusSuccess
	case model.VerdictFail:
		kind = statusError
	}
	m.setStatus(kind, fmt.Sprintf("Test Approval: %s (relative error %s)",
		result.Verdict.Label(), report.FormatPercent(result.RelativeErrorPercent)))
}

func (m *Model) cycleMeter(step int) {
	cat := m.session.Catalog()
	meter := m.session.SelectMeterAt(cat.IndexOf(m.session.Meter().Name) + step)
	m.form.SetMeter(meter)
	m.markDirty()
}

// nextFocus walks the form fields and then the sample list.
func (m *Model) nextFocus() tea.Cmd {
	if m.focus == FocusSamples {
		m.samples.Blur()
		m.focus = FocusForm
		return m.form.Focus(components.FieldMeter)
	}
	if ok, cmd := m.form.Next(); ok {
		return cmd
	}
	m.focus = FocusSamples
	m.samples.Focus()
	return nil
}

func (m *Model) prevFocus() tea.Cmd {
	if m.focus == FocusSamples {
		m.samples.Blur()
		m.focus = FocusForm
		return m.form.Focus(components.FieldEndHundredths)
	}
	if ok, cmd := m.form.Prev(); ok {
		return cmd
	}
	m.focus = FocusSamples
	m.samples.Focus()
	return nil
}

// markDirty flags a shown result as no longer matching the inputs.
func (m *Model) markDirty() {
	if _, ok := m.session.LastResult(); ok {
		m.dirty = true
	}
}

func (m *Model) setStatus(kind statusKind, text string) {
	m.statusKind = kind
	m.status = text
}

func (m *Model) resize() {
	listWidth := m.width - leftColumnWidth - 4
	if listWidth < 30 {
		listWidth = 30
	}
	listHeight := m.height - 8
	if listHeight < 5 {
		listHeight = 5
	}
	m.samples.Resize(listWidth, listHeight)
	m.help.Width = m.width
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
