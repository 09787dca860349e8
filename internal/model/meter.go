package model

import "github.com/shopspring/decimal"

// FormulaVariant selects how a dial delta is converted into liters.
type FormulaVariant string

const (
	// FormulaDirect multiplies the dial delta by the multiplier.
	FormulaDirect FormulaVariant = "direct"
	// FormulaPerCubicMeter treats the multiplier as dial units per cubic meter:
	// liters = delta * 1000 / multiplier.
	FormulaPerCubicMeter FormulaVariant = "per_cubic_meter"
)

// IsValid reports whether the variant is one of the known formulas.
func (f FormulaVariant) IsValid() bool {
	switch f {
	case FormulaDirect, FormulaPerCubicMeter:
		return true
	default:
		return false
	}
}

// Describe renders the formula the way it appears in the report summary.
func (f FormulaVariant) Describe() string {
	switch f {
	case FormulaDirect:
		return "x Multiplier"
	case FormulaPerCubicMeter:
		return "x 1000 / Multiplier"
	default:
		return string(f)
	}
}

// MeterModel is one entry of the water meter catalog.
type MeterModel struct {
	Name       string
	Multiplier decimal.Decimal
	Formula    FormulaVariant
}
