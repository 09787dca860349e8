// Package storage persists the history of exported test runs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/flowqa/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrNilParameter   = errors.New("parameter cannot be nil")
	ErrInvalidTestRun = errors.New("invalid test run")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateTestRun(run *model.TestRun) error {
	if run == nil {
		return fmt.Errorf("%w: test run", ErrNilParameter)
	}
	if strings.TrimSpace(run.MeterName) == "" {
		return fmt.Errorf("%w: missing meter name", ErrInvalidTestRun)
	}
	if !run.Formula.IsValid() {
		return fmt.Errorf("%w: formula %q", ErrInvalidTestRun, run.Formula)
	}
	switch run.Verdict {
	case model.VerdictPass, model.VerdictFail, model.VerdictUndetermined:
	default:
		return fmt.Errorf("%w: verdict %q", ErrInvalidTestRun, run.Verdict)
	}
	if run.RelativeError.Valid == (run.Verdict == model.VerdictUndetermined) {
		return fmt.Errorf("%w: relative error does not match verdict", ErrInvalidTestRun)
	}
	return nil
}
