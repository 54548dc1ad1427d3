// Package report renders pipeline results as a human-readable text report
// and as machine-readable JSON.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sartorproj/macrocast/pipeline"
	"github.com/sartorproj/macrocast/stats"
	"github.com/sartorproj/macrocast/timeseries"
)

const ruleWidth = 80

// Render writes the full text report for a run.
func Render(w io.Writer, run *pipeline.RunResult) error {
	rule := strings.Repeat("=", ruleWidth)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Macrocast Forecast Report")
	fmt.Fprintf(w, "Run %s, generated %s\n", run.RunID, time.Now().Format("2006-01-02 15:04"))
	fmt.Fprintln(w, rule)

	for i, id := range run.Order {
		sr := run.Results[id]
		fmt.Fprintf(w, "\n%s\n[%d/%d] %s\n%s\n",
			rule, i+1, len(run.Order), displayName(sr), rule)

		if sr.Err != nil {
			fmt.Fprintf(w, "   FAILED: %v\n", sr.Err)
			continue
		}
		renderSeries(w, sr, significance(run))
	}

	if failed := run.Failed(); len(failed) > 0 {
		fmt.Fprintf(w, "\n%d of %d series failed: %s\n",
			len(failed), len(run.Order), strings.Join(failed, ", "))
	}
	fmt.Fprintln(w, rule)
	return nil
}

// significance tolerates runs built by hand without a runner.
func significance(run *pipeline.RunResult) float64 {
	if run.Significance > 0 && run.Significance < 1 {
		return run.Significance
	}
	return 0.05
}

func displayName(sr *pipeline.SeriesResult) string {
	if sr.Job.Name != "" && sr.Job.Name != sr.Job.ID {
		return fmt.Sprintf("%s (%s)", sr.Job.Name, sr.Job.ID)
	}
	return sr.Job.ID
}

func renderSeries(w io.Writer, sr *pipeline.SeriesResult, alpha float64) {
	s := sr.Series
	fmt.Fprintf(w, "   Observations: %d (%s to %s), range %.2f to %.2f\n",
		s.Len(),
		s.Start().Format("2006-01"), s.End().Format("2006-01"),
		s.Min(), s.Max())

	if sr.ADF != nil {
		renderStationarity(w, sr, alpha)
	}
	if sr.Decomp != nil {
		renderDecomposition(w, sr)
	}
	if sr.Summary != nil {
		renderModel(w, sr, alpha)
	}
	if sr.CV != nil {
		fmt.Fprintf(w, "   Cross-validation (%d folds): MAE=%.4f RMSE=%.4f MAPE=%.2f%%\n",
			len(sr.CV.Folds), sr.CV.MAE, sr.CV.RMSE, sr.CV.MAPE)
	}
	if sr.Forecast != nil {
		renderForecast(w, sr)
	}
}

func renderStationarity(w io.Writer, sr *pipeline.SeriesResult, alpha float64) {
	adf := sr.ADF
	decision := "unit root not rejected (non-stationary)"
	if sr.Stationary {
		decision = "unit root rejected (stationary)"
	}
	fmt.Fprintf(w, "   ADF: statistic=%.4f p=%.4f, %s at %g%%\n",
		adf.Statistic, adf.PValue, decision, alpha*100)
}

func renderDecomposition(w io.Writer, sr *pipeline.SeriesResult) {
	strength := stats.SeasonalStrength(sr.Series, sr.Decomp.Period)
	fmt.Fprintf(w, "   Decomposition: period=%d, seasonal strength=%.2f\n",
		sr.Decomp.Period, strength)
	if sr.Job.TrendModel {
		fmt.Fprintln(w, "   Modeling the seasonally adjusted series; the last seasonal cycle")
		fmt.Fprintln(w, "   is re-added to the forecast.")
	}
}

func renderModel(w io.Writer, sr *pipeline.SeriesResult, alpha float64) {
	sum := sr.Summary
	fmt.Fprintf(w, "   Model: %s", sum.Order)
	if sr.Search != nil {
		fmt.Fprintf(w, " (%d candidates evaluated)", sr.Search.ModelsEvaluated)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "   AIC=%.2f AICc=%.2f BIC=%.2f\n", sum.AIC, sum.AICc, sum.BIC)
	if len(sum.ARCoeffs) > 0 {
		fmt.Fprintf(w, "   AR: %s\n", formatCoeffs(sum.ARCoeffs))
	}
	if len(sum.MACoeffs) > 0 {
		fmt.Fprintf(w, "   MA: %s\n", formatCoeffs(sum.MACoeffs))
	}
	if len(sum.SARCoeffs) > 0 {
		fmt.Fprintf(w, "   Seasonal AR: %s\n", formatCoeffs(sum.SARCoeffs))
	}
	if len(sum.SMACoeffs) > 0 {
		fmt.Fprintf(w, "   Seasonal MA: %s\n", formatCoeffs(sum.SMACoeffs))
	}
	fmt.Fprintf(w, "   Intercept=%.4f, residual sd=%.4f\n",
		sum.Intercept, sum.ResidualStd)

	if lb := sum.LjungBox; lb != nil {
		verdict := "no residual autocorrelation detected"
		if lb.PValue < alpha {
			verdict = "residual autocorrelation present"
		}
		fmt.Fprintf(w, "   Ljung-Box (%d lags): Q=%.4f p=%.4f, %s\n",
			lb.Lags, lb.Statistic, lb.PValue, verdict)
	}
	fmt.Fprintf(w, "   Durbin-Watson: %.3f\n", sum.DurbinWatson)

	if acf := sr.ResidACF; acf != nil {
		if len(acf.Significant) == 0 {
			fmt.Fprintf(w, "   Residual ACF: no lag exceeds ±%.3f\n", acf.ConfBound)
		} else {
			fmt.Fprintf(w, "   Residual ACF: lags %v exceed ±%.3f\n",
				acf.Significant, acf.ConfBound)
		}
	}
}

func renderForecast(w io.Writer, sr *pipeline.SeriesResult) {
	fc := sr.Forecast
	dates := forecastDates(sr.Series, sr.Job.Frequency, fc.Horizon)

	fmt.Fprintf(w, "   Forecast (%d steps):\n", fc.Horizon)
	fmt.Fprintf(w, "   %-10s %10s %12s %12s\n", "period", "point", "80% int", "95% int")
	for i := 0; i < fc.Horizon; i++ {
		fmt.Fprintf(w, "   %-10s %10.3f [%5.2f,%5.2f] [%5.2f,%5.2f]\n",
			dates[i].Format("2006-01"),
			fc.Mean[i],
			fc.Lower80[i], fc.Upper80[i],
			fc.Lower95[i], fc.Upper95[i])
	}
}

func formatCoeffs(coeffs []float64) string {
	parts := make([]string, len(coeffs))
	for i, c := range coeffs {
		parts[i] = fmt.Sprintf("%.4f", c)
	}
	return strings.Join(parts, ", ")
}

// forecastDates extends the series' calendar past its end by h periods.
func forecastDates(s *timeseries.Series, freq timeseries.Frequency, h int) []time.Time {
	dates := make([]time.Time, h)
	t := s.End()
	for i := range dates {
		t = freq.Next(t)
		dates[i] = t
	}
	return dates
}
