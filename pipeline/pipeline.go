// Package pipeline runs the forecasting workflow for a set of economic
// series: fetch, prepare, test for stationarity, decompose, select and fit
// a model, cross-validate, and forecast. Failures are isolated per series.
package pipeline

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sartorproj/macrocast/arima"
	"github.com/sartorproj/macrocast/autoarima"
	"github.com/sartorproj/macrocast/crossval"
	"github.com/sartorproj/macrocast/stats"
	"github.com/sartorproj/macrocast/timeseries"
)

// Job describes one series to forecast.
type Job struct {
	ID        string
	Name      string
	Frequency timeseries.Frequency
	Seasonal  bool
	// TrendModel fits the seasonally adjusted series and re-adds the
	// decomposed seasonal pattern to the forecast, instead of fitting a
	// seasonal model directly.
	TrendModel bool
}

// Options configure a run.
type Options struct {
	Horizon int
	Search  *autoarima.Config // bounds template, nil for defaults
	// Significance is the level for the stationarity verdict and the
	// residual diagnostics. Zero means 0.05.
	Significance float64
	// Align truncates all successfully prepared series to a common
	// length before modeling.
	Align           bool
	CrossValidation *crossval.Config // nil disables rolling-origin evaluation
	Logger          *zap.Logger
}

// SeriesResult collects everything the pipeline produced for one series.
// Err is set when a stage failed; earlier stages' outputs stay populated.
type SeriesResult struct {
	Job    Job
	Series *timeseries.Series // prepared series
	ADF    *stats.ADFResult
	// Stationary is the ADF verdict at the run's significance level.
	Stationary bool
	Decomp     *stats.Decomposition
	Search     *autoarima.Result
	Summary    *arima.Summary
	// ResidACF is the residual correlogram with its confidence bound.
	ResidACF *stats.Correlogram
	CV       *crossval.Result
	Forecast *arima.Forecast
	// SeasonalPattern holds the pattern tiled onto the forecast when the
	// trend-model path was taken.
	SeasonalPattern []float64
	Err             error
}

// RunResult maps series identifiers to their outcomes.
type RunResult struct {
	RunID string
	// Significance is the level the stationarity and residual verdicts
	// were taken at.
	Significance float64
	Results      map[string]*SeriesResult
	Order        []string // job order, for deterministic report layout
}

// Failed returns the identifiers of series whose pipeline failed.
func (r *RunResult) Failed() []string {
	var failed []string
	for _, id := range r.Order {
		if r.Results[id].Err != nil {
			failed = append(failed, id)
		}
	}
	return failed
}

// Runner executes the pipeline against a data source.
type Runner struct {
	source Source
	opts   Options
	logger *zap.Logger
}

// NewRunner builds a runner. A nil logger in opts means no logging.
func NewRunner(source Source, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Horizon <= 0 {
		opts.Horizon = 12
	}
	if opts.Significance <= 0 || opts.Significance >= 1 {
		opts.Significance = 0.05
	}
	return &Runner{source: source, opts: opts, logger: opts.Logger}
}

// Run processes every job. A failing series records its error in its
// result and never aborts the others.
func (r *Runner) Run(ctx context.Context, jobs []Job) *RunResult {
	result := &RunResult{
		RunID:        uuid.NewString(),
		Significance: r.opts.Significance,
		Results:      make(map[string]*SeriesResult, len(jobs)),
	}

	for _, job := range jobs {
		result.Order = append(result.Order, job.ID)
		result.Results[job.ID] = r.prepare(ctx, job)
	}

	if r.opts.Align {
		r.alignPrepared(result)
	}

	for _, id := range result.Order {
		sr := result.Results[id]
		if sr.Err != nil {
			r.logger.Warn("series skipped",
				zap.String("series", id), zap.Error(sr.Err))
			continue
		}
		r.model(sr)
		if sr.Err != nil {
			r.logger.Warn("series failed",
				zap.String("series", id), zap.Error(sr.Err))
		}
	}
	return result
}

// prepare fetches and cleans one series.
func (r *Runner) prepare(ctx context.Context, job Job) *SeriesResult {
	sr := &SeriesResult{Job: job}

	raw, err := r.source.Fetch(ctx, job.ID, job.Frequency)
	if err != nil {
		sr.Err = fmt.Errorf("fetch: %w", err)
		return sr
	}
	r.logger.Info("fetched series",
		zap.String("series", job.ID),
		zap.Int("observations", raw.Len()),
		zap.Int("missing", raw.MissingCount()))

	cleaned, err := raw.Interpolate()
	if err != nil {
		sr.Err = fmt.Errorf("prepare: %w", err)
		return sr
	}
	if job.Name != "" {
		cleaned.Name = job.Name
	}
	sr.Series = cleaned
	return sr
}

// alignPrepared truncates all prepared series to a common length.
func (r *Runner) alignPrepared(result *RunResult) {
	var group []*timeseries.Series
	var ids []string
	for _, id := range result.Order {
		if sr := result.Results[id]; sr.Err == nil {
			group = append(group, sr.Series)
			ids = append(ids, id)
		}
	}
	if len(group) < 2 {
		return
	}
	aligned := timeseries.AlignLengths(group)
	for i, id := range ids {
		result.Results[id].Series = aligned[i]
	}
}

// model runs the statistical stages for one prepared series.
func (r *Runner) model(sr *SeriesResult) {
	job := sr.Job
	series := sr.Series
	period := job.Frequency.Period()

	if adf, err := stats.ADF(series, 0); err == nil {
		sr.ADF = adf
		sr.Stationary = adf.StationaryAt(r.opts.Significance)
	} else {
		r.logger.Debug("stationarity test skipped",
			zap.String("series", job.ID), zap.Error(err))
	}

	if job.Seasonal {
		decomp, err := stats.STL(series, period, 1)
		if err != nil {
			sr.Err = fmt.Errorf("decompose: %w", err)
			return
		}
		sr.Decomp = decomp
	}

	target := series
	if job.TrendModel {
		if sr.Decomp == nil {
			sr.Err = fmt.Errorf("trend model requires a seasonal decomposition: %w",
				stats.ErrInvalidFrequency)
			return
		}
		target = seasonallyAdjusted(series, sr.Decomp)
	}

	searchCfg := r.searchConfig(job, period)
	search, err := autoarima.Search(target, searchCfg)
	if err != nil {
		sr.Err = fmt.Errorf("order selection: %w", err)
		return
	}
	sr.Search = search
	r.logger.Info("selected model",
		zap.String("series", job.ID),
		zap.Stringer("order", search.Order),
		zap.Float64("criterion", search.Criterion),
		zap.Int("evaluated", search.ModelsEvaluated))

	sr.Summary = search.Model.Summary()
	if resid := search.Model.ResidualSeries(); resid != nil {
		lags := stats.DefaultLjungBoxLags(resid.Len())
		sr.ResidACF = stats.ACFWithConfidence(resid, lags)
	}

	if cv := r.opts.CrossValidation; cv != nil {
		order := search.Order
		result, err := crossval.Evaluate(target, *cv,
			func(train *timeseries.Series) (crossval.Predictor, error) {
				m := arima.NewSeasonal(order.P, order.D, order.Q,
					order.SP, order.SD, order.SQ, order.M)
				if err := m.Fit(train); err != nil {
					return nil, err
				}
				return forecastPredictor{m}, nil
			})
		if err != nil {
			r.logger.Warn("cross-validation skipped",
				zap.String("series", job.ID), zap.Error(err))
		} else {
			sr.CV = result
		}
	}

	forecast, err := search.Model.Forecast(r.opts.Horizon)
	if err != nil {
		sr.Err = fmt.Errorf("forecast: %w", err)
		return
	}
	if job.TrendModel {
		pattern := tileCycle(sr.Decomp.LastCycle(), r.opts.Horizon)
		addPattern(forecast, pattern)
		sr.SeasonalPattern = pattern
	}
	sr.Forecast = forecast
}

func (r *Runner) searchConfig(job Job, period int) *autoarima.Config {
	cfg := autoarima.DefaultConfig()
	if r.opts.Search != nil {
		copied := *r.opts.Search
		cfg = &copied
	}
	cfg.Seasonal = job.Seasonal && !job.TrendModel && period > 1
	if cfg.Seasonal {
		cfg.SeasonalM = period
	} else {
		cfg.SeasonalM = 0
	}
	return cfg
}

type forecastPredictor struct {
	model *arima.Model
}

func (p forecastPredictor) Predict(h int) ([]float64, error) {
	fc, err := p.model.Forecast(h)
	if err != nil {
		return nil, err
	}
	return fc.Mean, nil
}

// seasonallyAdjusted subtracts the decomposed seasonal component.
func seasonallyAdjusted(series *timeseries.Series, decomp *stats.Decomposition) *timeseries.Series {
	adjusted := series.Copy()
	for i := range adjusted.Values {
		if !math.IsNaN(adjusted.Values[i]) {
			adjusted.Values[i] -= decomp.Seasonal.Values[i]
		}
	}
	return adjusted
}

// tileCycle repeats the seasonal cycle out to the horizon. The next cycle
// is assumed to repeat the last observed one.
func tileCycle(cycle []float64, horizon int) []float64 {
	out := make([]float64, horizon)
	for i := range out {
		out[i] = cycle[i%len(cycle)]
	}
	return out
}

// addPattern shifts the point forecasts and both interval bands. The
// pattern is treated as deterministic, so interval widths are unchanged.
func addPattern(fc *arima.Forecast, pattern []float64) {
	for i := range fc.Mean {
		fc.Mean[i] += pattern[i]
		fc.Lower80[i] += pattern[i]
		fc.Upper80[i] += pattern[i]
		fc.Lower95[i] += pattern[i]
		fc.Upper95[i] += pattern[i]
	}
}
