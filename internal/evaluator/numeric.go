package evaluator

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxExponent bounds the decimal exponent accepted from text. Larger
// exponents make later arithmetic allocate enormous integers.
const maxExponent = 30

// ParseOrZero converts operator-typed text into a non-negative number.
// Empty, non-numeric and negative text all yield zero so a stray keystroke
// never blocks a test run.
func ParseOrZero(text string) decimal.Decimal {
	value, ok := parseDecimal(text)
	if !ok || value.IsNegative() {
		return decimal.Zero
	}
	return value
}

// ParseVolume parses a flowmeter sample volume. The boolean is false when the
// sample must be left out of the total.
func ParseVolume(text string) (decimal.Decimal, bool) {
	return parseDecimal(text)
}

func parseDecimal(text string) (decimal.Decimal, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return decimal.Zero, false
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := value.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero, false
	}
	return value, true
}
