package main

import (
	"testing"

	"github.com/Veraticus/flowqa/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRowSelection(t *testing.T) {
	tests := []struct {
		wantErr   error
		name      string
		selection string
		want      []int
		count     int
	}{
		{name: "single", selection: "3", count: 5, want: []int{2}},
		{name: "range", selection: "1-3", count: 5, want: []int{0, 1, 2}},
		{name: "mixed and unordered", selection: "7, 1-2", count: 10, want: []int{0, 1, 6}},
		{name: "overlap collapses", selection: "1-3,2-4", count: 5, want: []int{0, 1, 2, 3}},
		{name: "all", selection: "all", count: 3, want: []int{0, 1, 2}},
		{name: "trailing comma", selection: "1,", count: 3, want: []int{0}},
		{name: "empty", selection: " ", count: 3, wantErr: errEmptyRowSelection},
		{name: "only commas", selection: ",,", count: 3, wantErr: errEmptyRowSelection},
		{name: "zero", selection: "0", count: 3, wantErr: errInvalidRowRange},
		{name: "past end", selection: "2-4", count: 3, wantErr: errInvalidRowRange},
		{name: "reversed", selection: "3-1", count: 3, wantErr: errInvalidRowRange},
		{name: "not a number", selection: "a-b", count: 3, wantErr: errInvalidRowRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRowSelection(tt.selection, tt.count)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDigitReading(t *testing.T) {
	r, err := digitReading(" 123 ", 4, 5)
	require.NoError(t, err)
	assert.Equal(t, model.DigitReading{Whole: "123", Tenths: 4, Hundredths: 5}, r)

	_, err = digitReading("1", 10, 0)
	require.ErrorIs(t, err, errInvalidDigit)

	_, err = digitReading("1", 0, -1)
	require.ErrorIs(t, err, errInvalidDigit)
}
