package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/flowqa/internal/common"
	"github.com/Veraticus/flowqa/internal/sheets"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("FLOWQA_TEST_DIR", "/srv/qa")

	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "~", want: home},
		{input: "~/reports", want: filepath.Join(home, "reports")},
		{input: "$FLOWQA_TEST_DIR/out", want: "/srv/qa/out"},
		{input: "/abs/path", want: "/abs/path"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}

func TestLoadSettings(t *testing.T) {
	v := viper.New()
	SetDefaults(v, "/home/op")

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/home/op/.local/share/flowqa/history.db", s.DatabasePath)
	assert.True(t, s.HistoryEnabled)
	assert.Equal(t, ".", s.ReportOutputDir)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, "console", s.LogFormat)

	v.Set("database.path", "")
	_, err = Load(v)
	assert.ErrorIs(t, err, common.ErrMissingConfig)

	v.Set("history.enabled", false)
	_, err = Load(v)
	assert.NoError(t, err)
}

func TestLoadCatalog(t *testing.T) {
	t.Run("built-in", func(t *testing.T) {
		cat, err := LoadCatalog(viper.New())
		require.NoError(t, err)
		assert.Equal(t, "Klepsan Woltman DN50", cat.First().Name)
	})

	t.Run("inline meters from config file", func(t *testing.T) {
		v := viper.New()
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(strings.NewReader(`
meters:
  - name: Site Meter A
    multiplier: 2.5
  - name: Site Meter B
    multiplier: "400"
    formula: per_cubic_meter
`)))

		cat, err := LoadCatalog(v)
		require.NoError(t, err)
		assert.Equal(t, []string{"Site Meter A", "Site Meter B"}, cat.Names())
		assert.Equal(t, "2.5", cat.First().Multiplier.String())
	})

	t.Run("catalog file wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "meters.yaml")
		require.NoError(t, os.WriteFile(path, []byte("meters:\n  - name: From File\n    multiplier: 10\n"), 0600))

		v := viper.New()
		v.Set("catalog.file", path)
		v.Set("meters", []any{map[string]any{"name": "Inline", "multiplier": 1}})

		cat, err := LoadCatalog(v)
		require.NoError(t, err)
		assert.Equal(t, []string{"From File"}, cat.Names())
	})

	t.Run("invalid entries", func(t *testing.T) {
		v := viper.New()
		v.Set("meters", []any{map[string]any{"name": "Broken", "multiplier": 0}})
		_, err := LoadCatalog(v)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})

	t.Run("missing file", func(t *testing.T) {
		v := viper.New()
		v.Set("catalog.file", filepath.Join(t.TempDir(), "nope.yaml"))
		_, err := LoadCatalog(v)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})
}

func TestLoadSheetsConfig(t *testing.T) {
	t.Setenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_ID", "")
	t.Setenv("GOOGLE_SHEETS_CLIENT_SECRET", "")
	t.Setenv("GOOGLE_SHEETS_REFRESH_TOKEN", "")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "env-id")
	t.Setenv("GOOGLE_SHEETS_SPREADSHEET_NAME", "")

	v := viper.New()
	_, err := LoadSheetsConfig(v)
	assert.ErrorIs(t, err, sheets.ErrNoAuth)

	v.Set("sheets.service_account_path", "/keys/sa.json")
	v.Set("sheets.batch_size", 50)
	cfg, err := LoadSheetsConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "/keys/sa.json", cfg.ServiceAccountPath)
	assert.Equal(t, "env-id", cfg.SpreadsheetID)
	assert.Equal(t, sheets.DefaultSpreadsheetName, cfg.SpreadsheetName)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.True(t, cfg.EnableFormatting)
}
