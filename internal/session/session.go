// Package session holds the state of one interactive test: the loaded
// flowmeter export, the operator's row selection, the chosen meter and the
// dial readings.
package session

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Veraticus/flowqa/internal/catalog"
	"github.com/Veraticus/flowqa/internal/evaluator"
	"github.com/Veraticus/flowqa/internal/model"
)

// Session errors.
var (
	ErrNoData           = errors.New("no flowmeter data loaded")
	ErrSampleOutOfRange = errors.New("sample index out of range")
	ErrNilCatalog       = errors.New("meter catalog is required")
)

// Session is the single mutable object an operator works on. It is not
// safe for concurrent use.
type Session struct {
	catalog  *catalog.Catalog
	data     *model.FlowImport
	selected map[int]bool
	result   *model.EvaluationResult
	start    model.DigitReading
	end      model.DigitReading
	meter    model.MeterModel
}

// New starts a session with the first catalog model selected.
func New(cat *catalog.Catalog) (*Session, error) {
	if cat == nil {
		return nil, ErrNilCatalog
	}
	return &Session{
		catalog:  cat,
		meter:    cat.First(),
		selected: make(map[int]bool),
	}, nil
}

// Catalog returns the meter catalog the session selects from.
func (s *Session) Catalog() *catalog.Catalog {
	return s.catalog
}

// Load replaces the current import. The previous selection and result are
// discarded.
func (s *Session) Load(data *model.FlowImport) {
	s.data = data
	s.selected = make(map[int]bool)
	s.result = nil
}

// HasData reports whether an export has been loaded.
func (s *Session) HasData() bool {
	return s.data != nil
}

// Data returns the current import, or nil.
func (s *Session) Data() *model.FlowImport {
	return s.data
}

// DeviceID returns the loaded export's device id, or "" before a load.
func (s *Session) DeviceID() string {
	if s.data == nil {
		return ""
	}
	return s.data.DeviceID
}

// Samples returns every loaded sample.
func (s *Session) Samples() []model.FlowSample {
	if s.data == nil {
		return nil
	}
	return s.data.Samples
}

// SelectMeter switches to the named catalog model.
func (s *Session) SelectMeter(name string) error {
	m, err := s.catalog.Lookup(name)
	if err != nil {
		return err
	}
	s.meter = m
	return nil
}

// SelectMeterAt switches to the catalog model at index i (wrapping).
func (s *Session) SelectMeterAt(i int) model.MeterModel {
	s.meter = s.catalog.At(i)
	return s.meter
}

// Meter returns the selected meter model.
func (s *Session) Meter() model.MeterModel {
	return s.meter
}

// SetStart records the dial reading at test start.
func (s *Session) SetStart(r model.DigitReading) {
	s.start = r
}

// SetEnd records the dial reading at test end.
func (s *Session) SetEnd(r model.DigitReading) {
	s.end = r
}

// Start returns the start reading.
func (s *Session) Start() model.DigitReading {
	return s.start
}

// End returns the end reading.
func (s *Session) End() model.DigitReading {
	return s.end
}

// Toggle flips the selection of sample i (0-based) and reports the new state.
func (s *Session) Toggle(i int) (bool, error) {
	if err := s.checkIndex(i); err != nil {
		return false, err
	}
	if s.selected[i] {
		delete(s.selected, i)
		return false, nil
	}
	s.selected[i] = true
	return true, nil
}

// Select marks the given sample indexes (0-based) as selected. Nothing
// changes when any index is out of range.
func (s *Session) Select(indexes ...int) error {
	for _, i := range indexes {
		if err := s.checkIndex(i); err != nil {
			return err
		}
	}
	for _, i := range indexes {
		s.selected[i] = true
	}
	return nil
}

// ClearSelection deselects every sample.
func (s *Session) ClearSelection() {
	s.selected = make(map[int]bool)
}

// IsSelected reports whether sample i is selected.
func (s *Session) IsSelected(i int) bool {
	return s.selected[i]
}

// SelectedIndexes returns the selected sample indexes in ascending order.
func (s *Session) SelectedIndexes() []int {
	out := make([]int, 0, len(s.selected))
	for i := range s.selected {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// SelectedSamples returns the selected samples in spreadsheet order.
func (s *Session) SelectedSamples() []model.FlowSample {
	indexes := s.SelectedIndexes()
	out := make([]model.FlowSample, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, s.data.Samples[i])
	}
	return out
}

// Input assembles an evaluation input from the current state.
func (s *Session) Input() model.EvaluationInput {
	return model.EvaluationInput{
		Meter:   s.meter,
		Start:   s.start,
		End:     s.end,
		Samples: s.SelectedSamples(),
	}
}

// PerformTest evaluates the current state from scratch and keeps the result.
func (s *Session) PerformTest() model.EvaluationResult {
	result := evaluator.Evaluate(s.Input())
	s.result = &result
	return result
}

// LastResult returns the most recent PerformTest result, if any.
func (s *Session) LastResult() (model.EvaluationResult, bool) {
	if s.result == nil {
		return model.EvaluationResult{}, false
	}
	return *s.result, true
}

// Report builds the export payload. It fails with ErrNoData before a load.
func (s *Session) Report(now time.Time) (model.Report, error) {
	if s.data == nil {
		return model.Report{}, ErrNoData
	}
	input := s.Input()
	return model.Report{
		GeneratedAt: now,
		DeviceID:    s.data.DeviceID,
		SourceFile:  s.data.SourcePath,
		Meter:       input.Meter,
		Start:       input.Start,
		End:         input.End,
		Samples:     input.Samples,
		Result:      evaluator.Evaluate(input),
	}, nil
}

func (s *Session) checkIndex(i int) error {
	if s.data == nil {
		return ErrNoData
	}
	if i < 0 || i >= len(s.data.Samples) {
		return fmt.Errorf("%w: %d (have %d samples)", ErrSampleOutOfRange, i+1, len(s.data.Samples))
	}
	return nil
}
