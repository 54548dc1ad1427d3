// Package config loads and validates forecasting run configuration from
// YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all settings for a forecasting run.
type Config struct {
	// Series to forecast
	Series []SeriesConfig `yaml:"series"`

	// Truncate all fetched series to a common length before modeling
	AlignSeries bool `yaml:"align_series"`

	// Observation date range, empty means the full available range
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`

	// Data source settings
	Source SourceConfig `yaml:"source"`

	// Forecast settings
	Forecast ForecastConfig `yaml:"forecast"`

	// Order search bounds
	Search SearchConfig `yaml:"search"`

	// Cross-validation settings
	CrossValidation CrossValidationConfig `yaml:"cross_validation"`
}

// SeriesConfig identifies one series and how to model it.
type SeriesConfig struct {
	ID        string `yaml:"id"`        // provider series id, e.g. CPIAUCSL
	Name      string `yaml:"name"`      // display name, defaults to ID
	Frequency string `yaml:"frequency"` // monthly or quarterly
	Seasonal  bool   `yaml:"seasonal"`  // model a seasonal component
	// Model the seasonally adjusted series and re-add the decomposed
	// seasonal pattern to the forecast, instead of a seasonal model.
	TrendModel bool `yaml:"trend_model"`
}

// SourceConfig selects where observations come from.
type SourceConfig struct {
	Provider string `yaml:"provider"` // fred or csv
	CSVDir   string `yaml:"csv_dir"`  // directory of <id>.csv files when provider is csv
	APIKey   string `yaml:"api_key"`  // FRED api key, FRED_API_KEY env overrides
	Timeout  string `yaml:"timeout"`
	Retries  int    `yaml:"retries"`
}

// ForecastConfig controls the forecast output.
type ForecastConfig struct {
	Horizon      int     `yaml:"horizon"`      // forecast steps
	Significance float64 `yaml:"significance"` // stationarity test level
}

// SearchConfig bounds the automatic order search.
type SearchConfig struct {
	MaxP     int    `yaml:"max_p"`
	MaxD     int    `yaml:"max_d"`
	MaxQ     int    `yaml:"max_q"`
	MaxSP    int    `yaml:"max_sp"`
	MaxSD    int    `yaml:"max_sd"`
	MaxSQ    int    `yaml:"max_sq"`
	Stepwise *bool  `yaml:"stepwise"` // nil means true
	Test     string `yaml:"test"`     // adf, or empty for the combined test
}

// CrossValidationConfig controls rolling-origin evaluation.
type CrossValidationConfig struct {
	Enabled     bool `yaml:"enabled"`
	InitialSize int  `yaml:"initial_size"`
	Horizon     int  `yaml:"horizon"`
	Step        int  `yaml:"step"`
	MaxFolds    int  `yaml:"max_folds"`
}

// ValidProviders lists the supported data sources.
var ValidProviders = []string{"fred", "csv"}

// Default returns the baseline configuration: FRED source, 12-step
// forecasts at 95% intervals, stepwise search with the standard bounds.
func Default() *Config {
	stepwise := true
	return &Config{
		Source: SourceConfig{
			Provider: "fred",
			Timeout:  "30s",
			Retries:  3,
		},
		Forecast: ForecastConfig{
			Horizon:      12,
			Significance: 0.05,
		},
		Search: SearchConfig{
			MaxP:     5,
			MaxD:     2,
			MaxQ:     5,
			MaxSP:    2,
			MaxSD:    1,
			MaxSQ:    2,
			Stepwise: &stepwise,
		},
		CrossValidation: CrossValidationConfig{
			Enabled:     true,
			InitialSize: 60,
			Horizon:     6,
		},
	}
}

// Load reads a YAML config file over the defaults. A missing file returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("FRED_API_KEY"); key != "" {
		c.Source.APIKey = key
	}
}

// Validate checks the configuration for contradictions before a run.
func (c *Config) Validate() error {
	if len(c.Series) == 0 {
		return fmt.Errorf("no series configured")
	}
	for i, s := range c.Series {
		if s.ID == "" {
			return fmt.Errorf("series %d: missing id", i)
		}
		switch s.Frequency {
		case "monthly", "quarterly", "m", "q":
		default:
			return fmt.Errorf("series %s: invalid frequency %q (monthly or quarterly)", s.ID, s.Frequency)
		}
	}

	valid := false
	for _, p := range ValidProviders {
		if c.Source.Provider == p {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid source provider %q (valid: %v)", c.Source.Provider, ValidProviders)
	}
	if c.Source.Provider == "fred" && c.Source.APIKey == "" {
		return fmt.Errorf("fred source requires an api key (set FRED_API_KEY)")
	}
	if c.Source.Provider == "csv" && c.Source.CSVDir == "" {
		return fmt.Errorf("csv source requires csv_dir")
	}

	if c.Forecast.Horizon <= 0 {
		return fmt.Errorf("forecast horizon must be positive, got %d", c.Forecast.Horizon)
	}
	if c.Forecast.Significance <= 0 || c.Forecast.Significance >= 1 {
		return fmt.Errorf("significance must be in (0, 1), got %v", c.Forecast.Significance)
	}

	if _, _, err := c.DateRange(); err != nil {
		return err
	}

	if c.CrossValidation.Enabled {
		if c.CrossValidation.InitialSize <= 0 {
			return fmt.Errorf("cross-validation initial_size must be positive")
		}
		if c.CrossValidation.Horizon <= 0 {
			return fmt.Errorf("cross-validation horizon must be positive")
		}
	}
	return nil
}

// Stepwise reports whether the order search should be stepwise. Defaults
// to true when the config leaves it unset.
func (c *Config) Stepwise() bool {
	return c.Search.Stepwise == nil || *c.Search.Stepwise
}

// SourceTimeout parses the configured source timeout.
func (c *Config) SourceTimeout() time.Duration {
	d, err := time.ParseDuration(c.Source.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// DateRange parses the configured observation window. Zero times stand
// for an open end.
func (c *Config) DateRange() (start, end time.Time, err error) {
	if c.StartDate != "" {
		start, err = time.Parse("2006-01-02", c.StartDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date %q: %w", c.StartDate, err)
		}
	}
	if c.EndDate != "" {
		end, err = time.Parse("2006-01-02", c.EndDate)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date %q: %w", c.EndDate, err)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end_date %s precedes start_date %s", c.EndDate, c.StartDate)
	}
	return start, end, nil
}
