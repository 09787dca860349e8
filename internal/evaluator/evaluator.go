// Package evaluator compares a flowmeter's logged volume against a water
// meter's dial readings.
//
// Every function here is pure. Malformed input never produces an error;
// it degrades to zero or to an undetermined verdict instead.
package evaluator

import (
	"github.com/Veraticus/flowqa/internal/model"
	"github.com/shopspring/decimal"
)

var (
	// PassThreshold is the relative error, in percent, below which a run passes.
	PassThreshold = decimal.NewFromInt(1)

	litersPerCubicMeter = decimal.NewFromInt(1000)
	hundred             = decimal.NewFromInt(100)
)

// DecodeReading combines the dial fields into one value. It returns false
// when a digit field is outside 0-9.
func DecodeReading(r model.DigitReading) (decimal.Decimal, bool) {
	if !validDigit(r.Tenths) || !validDigit(r.Hundredths) {
		return decimal.Zero, false
	}
	return ParseOrZero(r.Whole).
		Add(decimal.New(int64(r.Tenths), -1)).
		Add(decimal.New(int64(r.Hundredths), -2)), true
}

// ComputeMeterConsumption converts the dial movement between start and end
// into liters. A reversed reading counts as zero consumption, and any decode
// failure makes the whole result zero.
func ComputeMeterConsumption(start, end model.DigitReading, multiplier decimal.Decimal, variant model.FormulaVariant) decimal.Decimal {
	delta, ok := dialDelta(start, end)
	if !ok {
		return decimal.Zero
	}
	return applyFormula(delta, multiplier, variant)
}

// Evaluate runs one test against the given input.
func Evaluate(input model.EvaluationInput) model.EvaluationResult {
	var result model.EvaluationResult

	for _, sample := range input.Samples {
		volume, ok := ParseVolume(sample.Volume)
		if !ok {
			result.SkippedSamples++
			continue
		}
		result.FlowmeterTotal = result.FlowmeterTotal.Add(volume)
		result.CountedSamples++
	}

	if start, ok := DecodeReading(input.Start); ok {
		result.StartValue = start
	}
	if end, ok := DecodeReading(input.End); ok {
		result.EndValue = end
	}
	if delta, ok := dialDelta(input.Start, input.End); ok {
		result.Delta = delta
	}
	result.MeterConsumption = ComputeMeterConsumption(input.Start, input.End, input.Meter.Multiplier, input.Meter.Formula)

	result.RelativeErrorPercent, result.Verdict = judge(result.MeterConsumption, result.FlowmeterTotal)
	return result
}

// RelativeError returns |consumption - total| / consumption * 100.
// The boolean is false when either value is zero.
func RelativeError(consumption, total decimal.Decimal) (decimal.Decimal, bool) {
	if consumption.IsZero() || total.IsZero() {
		return decimal.Zero, false
	}
	return consumption.Sub(total).Abs().Mul(hundred).Div(consumption), true
}

// VerdictFor classifies a relative error against PassThreshold.
func VerdictFor(relativeError decimal.Decimal) model.Verdict {
	if relativeError.LessThan(PassThreshold) {
		return model.VerdictPass
	}
	return model.VerdictFail
}

func judge(consumption, total decimal.Decimal) (decimal.NullDecimal, model.Verdict) {
	relErr, ok := RelativeError(consumption, total)
	if !ok {
		return decimal.NullDecimal{}, model.VerdictUndetermined
	}
	return decimal.NewNullDecimal(relErr), VerdictFor(relErr)
}

func dialDelta(start, end model.DigitReading) (decimal.Decimal, bool) {
	startValue, ok := DecodeReading(start)
	if !ok {
		return decimal.Zero, false
	}
	endValue, ok := DecodeReading(end)
	if !ok {
		return decimal.Zero, false
	}
	return decimal.Max(decimal.Zero, endValue.Sub(startValue)), true
}

func applyFormula(delta, multiplier decimal.Decimal, variant model.FormulaVariant) decimal.Decimal {
	if !multiplier.IsPositive() {
		return decimal.Zero
	}
	switch variant {
	case model.FormulaDirect:
		return delta.Mul(multiplier)
	case model.FormulaPerCubicMeter:
		return delta.Mul(litersPerCubicMeter).Div(multiplier)
	default:
		return decimal.Zero
	}
}

func validDigit(d int) bool {
	return d >= 0 && d <= model.MaxDialDigit
}
