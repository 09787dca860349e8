package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TestRun is the history record written when a report is exported.
type TestRun struct {
	CreatedAt        time.Time
	RelativeError    decimal.NullDecimal
	ID               string
	DeviceID         string
	MeterName        string
	Formula          FormulaVariant
	SourceFile       string
	ReportPath       string
	Verdict          Verdict
	Multiplier       decimal.Decimal
	StartValue       decimal.Decimal
	EndValue         decimal.Decimal
	MeterConsumption decimal.Decimal
	FlowmeterTotal   decimal.Decimal
	Samples          []FlowSample
	SampleCount      int
}

// TestRunFilter narrows history queries.
type TestRunFilter struct {
	DeviceID string
	Verdict  Verdict
	Limit    int
}

// NewTestRun builds the history record for an exported report.
func NewTestRun(r Report, reportPath string) TestRun {
	samples := make([]FlowSample, len(r.Samples))
	copy(samples, r.Samples)
	return TestRun{
		CreatedAt:        r.GeneratedAt,
		RelativeError:    r.Result.RelativeErrorPercent,
		DeviceID:         r.DeviceID,
		MeterName:        r.Meter.Name,
		Formula:          r.Meter.Formula,
		SourceFile:       r.SourceFile,
		ReportPath:       reportPath,
		Verdict:          r.Result.Verdict,
		Multiplier:       r.Meter.Multiplier,
		StartValue:       r.Result.StartValue,
		EndValue:         r.Result.EndValue,
		MeterConsumption: r.Result.MeterConsumption,
		FlowmeterTotal:   r.Result.FlowmeterTotal,
		Samples:          samples,
		SampleCount:      len(samples),
	}
}
