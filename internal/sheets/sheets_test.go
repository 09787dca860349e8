package sheets

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/flowqa/internal/common"
	"github.com/Veraticus/flowqa/internal/model"
	"github.com/Veraticus/flowqa/internal/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
)

var _ service.ReportWriter = (*Writer)(nil)
var _ service.ReportWriter = (*MockWriter)(nil)

func sampleReport(verdict model.Verdict) model.Report {
	relErr := decimal.NullDecimal{}
	if verdict != model.VerdictUndetermined {
		relErr = decimal.NewNullDecimal(decimal.RequireFromString("0.5"))
	}
	return model.Report{
		GeneratedAt: time.Date(2024, 3, 1, 12, 30, 45, 0, time.UTC),
		DeviceID:    "FM-1001",
		SourceFile:  "/data/export.xlsx",
		Meter: model.MeterModel{
			Name:       "Klepsan Woltman DN50",
			Multiplier: decimal.NewFromInt(10),
			Formula:    model.FormulaDirect,
		},
		Samples: []model.FlowSample{
			{Row: 2, Volume: "50", Timestamp: "2024-03-01 10:00", DeviceID: "FM-1001"},
			{Row: 4, Volume: "49.5", Timestamp: "2024-03-01 10:10", DeviceID: "FM-1001"},
		},
		Result: model.EvaluationResult{
			StartValue:           decimal.NewFromInt(100),
			EndValue:             decimal.NewFromInt(110),
			Delta:                decimal.NewFromInt(10),
			MeterConsumption:     decimal.NewFromInt(100),
			FlowmeterTotal:       decimal.RequireFromString("99.5"),
			RelativeErrorPercent: relErr,
			Verdict:              verdict,
			CountedSamples:       2,
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func(mut func(*Config)) Config {
		c := DefaultConfig()
		c.ServiceAccountPath = "/path/to/key.json"
		if mut != nil {
			mut(&c)
		}
		return c
	}

	tests := []struct {
		wantErr error
		name    string
		config  Config
	}{
		{name: "valid service account", config: valid(nil)},
		{
			name: "valid oauth",
			config: valid(func(c *Config) {
				c.ServiceAccountPath = ""
				c.ClientID, c.ClientSecret, c.RefreshToken = "id", "secret", "token"
			}),
		},
		{
			name: "partial oauth credentials",
			config: valid(func(c *Config) {
				c.ServiceAccountPath = ""
				c.ClientID, c.RefreshToken = "id", "token"
			}),
			wantErr: ErrNoAuth,
		},
		{
			name: "multiple auth methods",
			config: valid(func(c *Config) {
				c.ClientID, c.ClientSecret, c.RefreshToken = "id", "secret", "token"
			}),
			wantErr: ErrMultipleAuth,
		},
		{name: "zero batch size", config: valid(func(c *Config) { c.BatchSize = 0 }), wantErr: ErrInvalidConfig},
		{name: "negative retries", config: valid(func(c *Config) { c.RetryAttempts = -1 }), wantErr: ErrInvalidConfig},
		{name: "negative delay", config: valid(func(c *Config) { c.RetryDelay = -time.Second }), wantErr: ErrInvalidConfig},
		{name: "bad time zone", config: valid(func(c *Config) { c.TimeZone = "Mars/Olympus" }), wantErr: ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestConfig_LoadFromEnv(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "/env/key.json")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "env-sheet")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "")

	c := Config{SpreadsheetID: "explicit"}
	c.LoadFromEnv()

	assert.Equal(t, "/env/key.json", c.ServiceAccountPath)
	assert.Equal(t, "explicit", c.SpreadsheetID)
	assert.Equal(t, DefaultSpreadsheetName, c.SpreadsheetName)
}

func TestPrepareReportData(t *testing.T) {
	r := sampleReport(model.VerdictPass)
	values, l := prepareReportData(r)

	assert.Equal(t, "Flowmeter Quality Assurance Test Summary", values[l.titleRow][0])
	assert.Equal(t, len(values), l.totalRows)

	require.Less(t, l.verdictRow, len(values))
	assert.Equal(t, []any{"Test Approval", "OK"}, values[l.verdictRow])
	assert.Equal(t, []any{"Device ID", "FM-1001"}, values[l.summaryRows[0]])

	assert.Equal(t, []any{"#", "Row", "Flow Counter (lt)", "Device TS Date"}, values[l.headerRow])
	assert.Equal(t, []any{1, 2, "50", "2024-03-01 10:00"}, values[l.headerRow+1])
	assert.Equal(t, []any{2, 4, "49.5", "2024-03-01 10:10"}, values[l.headerRow+2])
	assert.Equal(t, l.headerRow+3, len(values))
}

func TestFormattingRequests_VerdictColor(t *testing.T) {
	tests := []struct {
		verdict model.Verdict
		red     float64
		green   float64
	}{
		{verdict: model.VerdictPass, green: 0.6},
		{verdict: model.VerdictFail, red: 0.8},
		{verdict: model.VerdictUndetermined},
	}

	for _, tt := range tests {
		t.Run(string(tt.verdict), func(t *testing.T) {
			_, l := prepareReportData(sampleReport(tt.verdict))
			requests := formattingRequests(7, l)

			var found bool
			for _, req := range requests {
				if req.RepeatCell == nil || req.RepeatCell.Range.StartRowIndex != int64(l.verdictRow) {
					continue
				}
				tf := req.RepeatCell.Cell.UserEnteredFormat.TextFormat
				if tf.ForegroundColor == nil {
					continue
				}
				found = true
				assert.Equal(t, int64(7), req.RepeatCell.Range.SheetId)
				assert.InDelta(t, tt.red, tf.ForegroundColor.Red, 0.001)
				assert.InDelta(t, tt.green, tf.ForegroundColor.Green, 0.001)
			}
			assert.True(t, found, "verdict cell must be colored")
		})
	}
}

func TestTabTitle(t *testing.T) {
	r := sampleReport(model.VerdictPass)
	assert.Equal(t, "FM-1001 2024-03-01 12.30.45", TabTitle(r))

	r.DeviceID = "a/b[1]"
	assert.Equal(t, "a-b(1) 2024-03-01 12.30.45", TabTitle(r))

	r.DeviceID = ""
	assert.Equal(t, "unknown 2024-03-01 12.30.45", TabTitle(r))
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens", "sheets.json")
	token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}

	require.NoError(t, SaveToken(path, token))

	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh", loaded.RefreshToken)
	assert.Equal(t, "access", loaded.AccessToken)

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestMockWriter(t *testing.T) {
	m := NewMockWriter()
	_, ok := m.LastReport()
	assert.False(t, ok)

	require.NoError(t, m.Write(context.Background(), sampleReport(model.VerdictPass)))
	last, ok := m.LastReport()
	require.True(t, ok)
	assert.Equal(t, "FM-1001", last.DeviceID)

	boom := errors.New("boom")
	m.SetWriteError(boom)
	assert.ErrorIs(t, m.Write(context.Background(), sampleReport(model.VerdictFail)), boom)
	assert.Equal(t, 2, m.WriteCallCount)
}

func TestClassifyAPIError(t *testing.T) {
	tests := []struct {
		err       error
		name      string
		retryable bool
	}{
		{name: "rate limited", err: &googleapi.Error{Code: 429}, retryable: true},
		{name: "server error", err: &googleapi.Error{Code: 503}, retryable: true},
		{name: "request timeout", err: &googleapi.Error{Code: 408}, retryable: true},
		{name: "permission denied", err: &googleapi.Error{Code: 403}, retryable: false},
		{name: "bad request", err: &googleapi.Error{Code: 400}, retryable: false},
		{name: "unclassified error", err: errors.New("connection reset"), retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := classifyAPIError(tt.err)
			require.ErrorIs(t, got, tt.err)
			assert.Equal(t, tt.retryable, common.IsRetryable(got))
		})
	}

	assert.NoError(t, classifyAPIError(nil))
	assert.ErrorIs(t, classifyAPIError(&googleapi.Error{Code: 429}), common.ErrRateLimit)
}
