package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spreadscan/pkg/model"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
tickers: [SPY, QQQ, "^GSPC"]
names:
  SPY: S&P 500 ETF
  "^GSPC": S&P 500
history_buffer: 24
months_to_test: 6
granularity: weekly
ui:
  green_style: "#00ff00"
labels:
  monthly_format: "Jan 06"
  weekly_style: iso
scanner:
  workers: 4
  timeout: 45s
yahoo:
  rate_limit: 30
  timeout: 10s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"SPY", "QQQ", "^GSPC"}, cfg.Tickers)
	assert.Equal(t, "S&P 500", cfg.DisplayName("^GSPC"))
	assert.Equal(t, "QQQ", cfg.DisplayName("QQQ"))
	assert.Equal(t, 24, cfg.HistoryBuffer)
	assert.Equal(t, 6, cfg.MonthsToTest)
	assert.Equal(t, model.Weekly, cfg.ScanGranularity())
	assert.Equal(t, "#00ff00", cfg.UI.GreenStyle)
	assert.Equal(t, "#ff4b4b", cfg.UI.RedStyle, "absent keys keep defaults")
	assert.Equal(t, "Jan 06", cfg.Labels.MonthlyFormat)
	assert.Equal(t, "iso", cfg.Labels.WeeklyStyle)
	assert.Equal(t, 4, cfg.Scanner.Workers)
	assert.Equal(t, 45*time.Second, cfg.Scanner.Timeout.Duration)
	assert.Equal(t, 10*time.Second, cfg.Yahoo.Timeout.Duration)
	assert.True(t, cfg.Scanner.WithPrice)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
tickers = ["IWM", "DIA"]
history_buffer = 8
months_to_test = 2

[names]
IWM = "Russell 2000"

[scanner]
workers = 2
timeout = "1m"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"IWM", "DIA"}, cfg.Tickers)
	assert.Equal(t, "Russell 2000", cfg.DisplayName("IWM"))
	assert.Equal(t, 8, cfg.HistoryBuffer)
	assert.Equal(t, 2, cfg.Scanner.Workers)
	assert.Equal(t, time.Minute, cfg.Scanner.Timeout.Duration)
	assert.Equal(t, model.Monthly, cfg.ScanGranularity())
}

func TestMissingTickersIsConfigurationMissing(t *testing.T) {
	tests := map[string]string{
		"absent key": "history_buffer: 12\n",
		"empty list": "tickers: []\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			cfg, err := Load(writeFile(t, "config.yaml", content))
			require.NoError(t, err)
			assert.ErrorIs(t, cfg.Validate(), model.ErrConfigurationMissing)
		})
	}
}

func TestMissingFileUsesDefaultsButFailsValidation(t *testing.T) {
	t.Setenv("SPREADSCAN_TICKERS", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.HistoryBuffer)
	assert.ErrorIs(t, cfg.Validate(), model.ErrConfigurationMissing)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"window beyond buffer", func(c *Config) { c.MonthsToTest = 13 }, "MonthsToTest must be <= HistoryBuffer"},
		{"zero workers", func(c *Config) { c.Scanner.Workers = 0 }, "Scanner.Workers"},
		{"bad weekly style", func(c *Config) { c.Labels.WeeklyStyle = "fortnight" }, "Labels.WeeklyStyle"},
		{"bad granularity", func(c *Config) { c.Granularity = "hourly" }, "Granularity"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "Log.Level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Tickers = []string{"SPY"}
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.NotErrorIs(t, err, model.ErrConfigurationMissing)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SPREADSCAN_PROXY", "http://proxy.local:3128")
	t.Setenv("SPREADSCAN_LOG_LEVEL", "DEBUG")
	t.Setenv("SPREADSCAN_TICKERS", "AAPL,MSFT")

	cfg, err := Load(writeFile(t, "config.yaml", "tickers: [SPY]\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://proxy.local:3128", cfg.Yahoo.Proxy)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Tickers)
}

func TestDotEnvNextToConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SPREADSCAN_LOG_LEVEL=warn\n"), 0o644))
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tickers: [SPY]\n"), 0o644))

	// godotenv never overrides variables that are already set
	t.Setenv("SPREADSCAN_LOG_LEVEL", "")
	os.Unsetenv("SPREADSCAN_LOG_LEVEL")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestParseError(t *testing.T) {
	_, err := Load(writeFile(t, "config.yaml", "tickers: [SPY\n"))
	assert.ErrorContains(t, err, "parsing config file")
}

func TestShippedConfigIsValid(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "S&P 500", cfg.DisplayName("^GSPC"))
	assert.Equal(t, "SPY", cfg.DisplayName("SPY"))
	assert.Equal(t, model.Monthly, cfg.ScanGranularity())
	assert.Equal(t, []string{"r1-call", "r2-put"}, cfg.Rules)
	assert.True(t, cfg.Watch.TradingDaysOnly)
	assert.Equal(t, 2*time.Minute, cfg.Scanner.Timeout.Duration)
}
