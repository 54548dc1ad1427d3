// Command macrocast fetches economic time series, fits ARIMA models with
// automatic order selection, and writes a forecast report.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sartorproj/macrocast/autoarima"
	"github.com/sartorproj/macrocast/config"
	"github.com/sartorproj/macrocast/crossval"
	"github.com/sartorproj/macrocast/fred"
	"github.com/sartorproj/macrocast/pipeline"
	"github.com/sartorproj/macrocast/report"
	"github.com/sartorproj/macrocast/timeseries"
)

var (
	flagConfig  string
	flagAPIKey  string
	flagCSVDir  string
	flagOut     string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "macrocast",
	Short: "Forecast macroeconomic time series with ARIMA models",
	Long: `macrocast retrieves economic series (from FRED or local CSV files),
prepares them, selects ARIMA orders by a bounded information-criterion
search, cross-validates forecast accuracy, and prints a report with point
forecasts and prediction intervals.`,
	SilenceUsage: true,
	RunE:         runForecast,
}

func init() {
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "macrocast.yaml", "config file path")
	rootCmd.Flags().StringVar(&flagAPIKey, "api-key", "", "FRED API key (overrides config and FRED_API_KEY)")
	rootCmd.Flags().StringVar(&flagCSVDir, "csv-dir", "", "read <id>.csv files from this directory instead of FRED")
	rootCmd.Flags().StringVarP(&flagOut, "out", "o", "", "also write results as JSON to this file")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runForecast(cmd *cobra.Command, args []string) error {
	logger := newLogger(flagVerbose)
	defer logger.Sync()

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagAPIKey != "" {
		cfg.Source.APIKey = flagAPIKey
	}
	if flagCSVDir != "" {
		cfg.Source.Provider = "csv"
		cfg.Source.CSVDir = flagCSVDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	source, err := buildSource(cfg, logger)
	if err != nil {
		return err
	}
	jobs, err := buildJobs(cfg)
	if err != nil {
		return err
	}

	runner := pipeline.NewRunner(source, pipeline.Options{
		Horizon:         cfg.Forecast.Horizon,
		Search:          buildSearch(cfg),
		Significance:    cfg.Forecast.Significance,
		Align:           cfg.AlignSeries,
		CrossValidation: buildCrossValidation(cfg),
		Logger:          logger,
	})
	run := runner.Run(context.Background(), jobs)

	if err := report.Render(os.Stdout, run); err != nil {
		return err
	}
	if flagOut != "" {
		if err := report.SaveJSON(flagOut, run); err != nil {
			return err
		}
		logger.Info("wrote results", zap.String("path", flagOut))
	}

	if failed := run.Failed(); len(failed) == len(jobs) {
		return fmt.Errorf("all %d series failed", len(jobs))
	}
	return nil
}

func buildSource(cfg *config.Config, logger *zap.Logger) (pipeline.Source, error) {
	start, end, err := cfg.DateRange()
	if err != nil {
		return nil, err
	}

	if cfg.Source.Provider == "csv" {
		return &pipeline.CSVSource{Dir: cfg.Source.CSVDir, Start: start, End: end}, nil
	}

	client := fred.NewClient(cfg.Source.APIKey,
		fred.WithRetries(cfg.Source.Retries, time.Second),
		fred.WithHTTPClient(&http.Client{Timeout: cfg.SourceTimeout()}),
		fred.WithLogger(logger))
	return &pipeline.FREDSource{Client: client, Start: start, End: end}, nil
}

func buildJobs(cfg *config.Config) ([]pipeline.Job, error) {
	jobs := make([]pipeline.Job, 0, len(cfg.Series))
	for _, s := range cfg.Series {
		freq, err := timeseries.ParseFrequency(s.Frequency)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", s.ID, err)
		}
		jobs = append(jobs, pipeline.Job{
			ID:         s.ID,
			Name:       s.Name,
			Frequency:  freq,
			Seasonal:   s.Seasonal,
			TrendModel: s.TrendModel,
		})
	}
	return jobs, nil
}

func buildSearch(cfg *config.Config) *autoarima.Config {
	search := autoarima.DefaultConfig()
	search.MaxP = cfg.Search.MaxP
	search.MaxD = cfg.Search.MaxD
	search.MaxQ = cfg.Search.MaxQ
	search.MaxSP = cfg.Search.MaxSP
	search.MaxSD = cfg.Search.MaxSD
	search.MaxSQ = cfg.Search.MaxSQ
	search.Stepwise = cfg.Stepwise()
	search.StationTest = cfg.Search.Test
	return search
}

func buildCrossValidation(cfg *config.Config) *crossval.Config {
	if !cfg.CrossValidation.Enabled {
		return nil
	}
	return &crossval.Config{
		InitialSize: cfg.CrossValidation.InitialSize,
		Horizon:     cfg.CrossValidation.Horizon,
		Step:        cfg.CrossValidation.Step,
		MaxFolds:    cfg.CrossValidation.MaxFolds,
	}
}

func newLogger(verbose bool) *zap.Logger {
	zapCfg := zap.NewProductionConfig()
	if verbose {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.DisableCaller = true

	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
