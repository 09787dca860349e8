package model

import "github.com/shopspring/decimal"

// Verdict classifies a single test run against the pass threshold.
type Verdict string

const (
	VerdictPass         Verdict = "pass"
	VerdictFail         Verdict = "fail"
	VerdictUndetermined Verdict = "undetermined"
)

// Label returns the operator-facing approval text.
func (v Verdict) Label() string {
	switch v {
	case VerdictPass:
		return "OK"
	case VerdictFail:
		return "NOT OK"
	default:
		return "-"
	}
}

// ParseVerdict converts a stored verdict string back into a Verdict.
// Unknown values map to VerdictUndetermined.
func ParseVerdict(s string) Verdict {
	switch Verdict(s) {
	case VerdictPass, VerdictFail:
		return Verdict(s)
	default:
		return VerdictUndetermined
	}
}

// EvaluationInput is assembled from the session each time a test is performed.
type EvaluationInput struct {
	Meter   MeterModel
	Start   DigitReading
	End     DigitReading
	Samples []FlowSample
}

// EvaluationResult holds the outcome of one test run.
type EvaluationResult struct {
	StartValue           decimal.Decimal
	EndValue             decimal.Decimal
	Delta                decimal.Decimal
	MeterConsumption     decimal.Decimal
	FlowmeterTotal       decimal.Decimal
	RelativeErrorPercent decimal.NullDecimal
	Verdict              Verdict
	CountedSamples       int
	SkippedSamples       int
}

// HasRelativeError reports whether a relative error could be computed.
func (r EvaluationResult) HasRelativeError() bool {
	return r.RelativeErrorPercent.Valid
}
