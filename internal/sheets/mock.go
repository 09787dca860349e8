package sheets

import (
	"context"
	"sync"

	"github.com/Veraticus/flowqa/internal/model"
)

// MockWriter is a mock implementation of service.ReportWriter for testing.
type MockWriter struct {
	WriteFunc      func(ctx context.Context, r model.Report) error
	Reports        []model.Report
	WriteCallCount int
	mu             sync.Mutex
}

// NewMockWriter creates a new mock writer.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write records the report and returns WriteFunc's result.
func (m *MockWriter) Write(ctx context.Context, r model.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteCallCount++
	m.Reports = append(m.Reports, r)

	if m.WriteFunc != nil {
		return m.WriteFunc(ctx, r)
	}
	return nil
}

// LastReport returns the most recently written report.
func (m *MockWriter) LastReport() (model.Report, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Reports) == 0 {
		return model.Report{}, false
	}
	return m.Reports[len(m.Reports)-1], true
}

// SetWriteError configures the mock to fail every Write call with err.
func (m *MockWriter) SetWriteError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.WriteFunc = func(context.Context, model.Report) error {
		return err
	}
}
