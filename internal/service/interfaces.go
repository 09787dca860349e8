// Package service defines the interfaces shared between the application's
// components.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/flowqa/internal/model"
)

// Storage defines the contract for the test-run history store.
type Storage interface {
	SaveTestRun(ctx context.Context, run *model.TestRun) error
	GetTestRun(ctx context.Context, id string) (*model.TestRun, error)
	ListTestRuns(ctx context.Context, filter model.TestRunFilter) ([]model.TestRun, error)
	DeleteTestRun(ctx context.Context, id string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// ReportWriter exports a finished test report to an external target.
type ReportWriter interface {
	Write(ctx context.Context, report model.Report) error
}

// Importer loads a flowmeter export from disk.
type Importer interface {
	ParsePath(ctx context.Context, path string) (*model.FlowImport, error)
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
