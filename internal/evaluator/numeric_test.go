package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrZero(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "integer", input: "10", want: "10"},
		{name: "decimal", input: "10.5", want: "10.5"},
		{name: "surrounding whitespace", input: "  42 ", want: "42"},
		{name: "empty", input: "", want: "0"},
		{name: "blank", input: "   ", want: "0"},
		{name: "letters", input: "abc", want: "0"},
		{name: "trailing garbage", input: "12a", want: "0"},
		{name: "negative", input: "-5", want: "0"},
		{name: "not a number", input: "NaN", want: "0"},
		{name: "infinity", input: "inf", want: "0"},
		{name: "scientific notation", input: "1.5e2", want: "150"},
		{name: "huge exponent", input: "1e10000000", want: "0"},
		{name: "tiny exponent", input: "1e-100000000", want: "0"},
		{name: "too many decimals", input: "0.0000000000000000000000000000001", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseOrZero(tt.input)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseVolume(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{name: "integer", input: "100", want: "100", wantOK: true},
		{name: "float text", input: "100.0", want: "100", wantOK: true},
		{name: "negative is kept", input: "-3.5", want: "-3.5", wantOK: true},
		{name: "empty", input: "", wantOK: false},
		{name: "text", input: "n/a", wantOK: false},
		{name: "exponent in range", input: "2.5E-3", want: "0.0025", wantOK: true},
		{name: "huge exponent", input: "1e10000000", wantOK: false},
		{name: "tiny exponent", input: "1e-100000000", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseVolume(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}
