package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/flowqa/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "YES\n", want: true},
		{input: "n\n", want: false},
		{input: "\n", want: false},
		{input: "", want: false},
		{input: "yes", want: true},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			var out bytes.Buffer
			got, err := Confirm(context.Background(), NewNonBlockingReader(strings.NewReader(tt.input)), &out, "Delete run?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Delete run? [y/N]")
		})
	}
}

func TestNonBlockingReader_Cancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewNonBlockingReader(pr).ReadLine(ctx)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestInterruptHandler(t *testing.T) {
	var out bytes.Buffer
	h := NewInterruptHandler(&out, "No report was written.")
	assert.False(t, h.WasInterrupted())

	ctx, stop := h.HandleInterrupts(context.Background())
	defer stop()
	assert.NoError(t, ctx.Err())

	h.Interrupt()
	h.Interrupt()

	assert.True(t, h.WasInterrupted())
	assert.Equal(t, 1, strings.Count(out.String(), "Interrupted!"))
	assert.Contains(t, out.String(), "No report was written.")

	stop()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestRenderSummary(t *testing.T) {
	r := model.Report{
		DeviceID: "FM-7",
		Meter: model.MeterModel{
			Name:       "Klepsan Woltman DN80",
			Multiplier: decimal.NewFromInt(10),
			Formula:    model.FormulaDirect,
		},
		Result: model.EvaluationResult{
			Verdict:              model.VerdictFail,
			RelativeErrorPercent: decimal.NewNullDecimal(decimal.NewFromInt(2)),
		},
	}

	out := RenderSummary(r)
	assert.Contains(t, out, "FM-7")
	assert.Contains(t, out, "Klepsan Woltman DN80")
	assert.Contains(t, out, "NOT OK")
	assert.Contains(t, out, "2.00%")
}

func TestRenderSamples(t *testing.T) {
	samples := []model.FlowSample{
		{Row: 2, Volume: "10.5", Timestamp: "t1"},
		{Row: 3, Volume: "11", Timestamp: "t2"},
	}
	out := RenderSamples(samples, map[int]bool{1: true})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4) // header, underline, two rows
	assert.True(t, strings.HasPrefix(lines[2], " 1"))
	assert.True(t, strings.HasPrefix(lines[3], "* 2"))
}

func TestRenderTestRuns(t *testing.T) {
	assert.Contains(t, RenderTestRuns(nil), "No test runs recorded.")

	out := RenderTestRuns([]model.TestRun{{
		ID:        "abc",
		DeviceID:  "a-very-long-device-identifier",
		MeterName: "Meter",
		Verdict:   model.VerdictUndetermined,
	}})
	assert.Contains(t, out, "abc")
	assert.Contains(t, out, "a-very-long...")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
