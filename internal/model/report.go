package model

import "time"

// Report is everything an export target needs to render one test run.
type Report struct {
	GeneratedAt time.Time
	DeviceID    string
	SourceFile  string
	Meter       MeterModel
	Start       DigitReading
	End         DigitReading
	Samples     []FlowSample
	Result      EvaluationResult
}
