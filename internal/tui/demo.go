package tui

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/Veraticus/flowqa/internal/model"
	"github.com/shopspring/decimal"
)

// DemoImport generates a plausible flowmeter export of n rows for test mode.
func DemoImport(n int) *model.FlowImport {
	rng := rand.New(rand.NewSource(42)) //nolint:gosec // demo data
	start := time.Date(2024, 3, 18, 9, 0, 0, 0, time.UTC)

	samples := make([]model.FlowSample, n)
	for i := range samples {
		volume := decimal.NewFromFloat(2.5 + rng.Float64()*1.5).Round(3)
		samples[i] = model.FlowSample{
			Row:       i + 2,
			Volume:    volume.String(),
			Timestamp: start.Add(time.Duration(i) * time.Minute).Format("2006-01-02 15:04:05"),
			DeviceID:  "FM-DEMO-01",
		}
	}
	return &model.FlowImport{
		SourcePath: fmt.Sprintf("demo-%d-rows.xlsx", n),
		DeviceID:   "FM-DEMO-01",
		Samples:    samples,
	}
}
