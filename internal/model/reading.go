package model

// DigitReading is a water meter dial reading as typed by the operator.
// Whole is free-form text; Tenths and Hundredths are single dial digits.
type DigitReading struct {
	Whole      string
	Tenths     int
	Hundredths int
}

// MaxDialDigit is the largest value a single dial digit can show.
const MaxDialDigit = 9
