package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "macrocast.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "fred", cfg.Source.Provider)
	assert.Equal(t, 12, cfg.Forecast.Horizon)
	assert.Equal(t, 5, cfg.Search.MaxP)
	assert.True(t, cfg.Stepwise())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
series:
  - id: CPIAUCSL
    name: CPI
    frequency: monthly
    seasonal: true
  - id: GDPC1
    frequency: quarterly
align_series: true
forecast:
  horizon: 8
  significance: 0.01
search:
  max_p: 3
  stepwise: false
source:
  provider: csv
  csv_dir: testdata
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Series, 2)
	assert.Equal(t, "CPIAUCSL", cfg.Series[0].ID)
	assert.True(t, cfg.Series[0].Seasonal)
	assert.Equal(t, "quarterly", cfg.Series[1].Frequency)
	assert.Equal(t, 8, cfg.Forecast.Horizon)
	assert.Equal(t, 0.01, cfg.Forecast.Significance)
	assert.Equal(t, 3, cfg.Search.MaxP)
	assert.False(t, cfg.Stepwise())
	assert.True(t, cfg.AlignSeries)
	// untouched defaults survive
	assert.Equal(t, 5, cfg.Search.MaxQ)

	require.NoError(t, cfg.Validate())
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "series: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesAPIKey(t *testing.T) {
	t.Setenv("FRED_API_KEY", "env-key")

	path := writeConfig(t, `
series:
  - id: UNRATE
    frequency: monthly
source:
  api_key: file-key
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Source.APIKey)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := Default()
		cfg.Series = []SeriesConfig{{ID: "UNRATE", Frequency: "monthly"}}
		cfg.Source.APIKey = "key"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"no series", func(c *Config) { c.Series = nil }, "no series"},
		{"missing id", func(c *Config) { c.Series[0].ID = "" }, "missing id"},
		{"bad frequency", func(c *Config) { c.Series[0].Frequency = "weekly" }, "invalid frequency"},
		{"bad provider", func(c *Config) { c.Source.Provider = "sql" }, "invalid source provider"},
		{"fred without key", func(c *Config) { c.Source.APIKey = "" }, "api key"},
		{"csv without dir", func(c *Config) { c.Source.Provider = "csv" }, "csv_dir"},
		{"zero horizon", func(c *Config) { c.Forecast.Horizon = 0 }, "horizon"},
		{"bad significance", func(c *Config) { c.Forecast.Significance = 1.5 }, "significance"},
		{"bad date", func(c *Config) { c.StartDate = "01/02/2020" }, "start_date"},
		{"inverted range", func(c *Config) {
			c.StartDate = "2020-01-01"
			c.EndDate = "2019-01-01"
		}, "precedes"},
		{"bad cv window", func(c *Config) { c.CrossValidation.InitialSize = -1 }, "initial_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDateRange(t *testing.T) {
	cfg := Default()
	cfg.StartDate = "2010-01-01"
	cfg.EndDate = "2020-12-31"

	start, end, err := cfg.DateRange()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2020, 12, 31, 0, 0, 0, 0, time.UTC), end)
}

func TestSourceTimeout(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 30*time.Second, cfg.SourceTimeout())

	cfg.Source.Timeout = "5s"
	assert.Equal(t, 5*time.Second, cfg.SourceTimeout())

	cfg.Source.Timeout = "garbage"
	assert.Equal(t, 30*time.Second, cfg.SourceTimeout())
}
