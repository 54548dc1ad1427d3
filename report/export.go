package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sartorproj/macrocast/pipeline"
)

// Export is the machine-readable form of a run, for downstream consumers.
type Export struct {
	RunID        string         `json:"run_id"`
	GeneratedAt  time.Time      `json:"generated_at"`
	Significance float64        `json:"significance"`
	Series       []SeriesExport `json:"series"`
}

// SeriesExport carries one series' outcome.
type SeriesExport struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Error string `json:"error,omitempty"`

	NObs  int    `json:"n_obs,omitempty"`
	Order string `json:"order,omitempty"`

	AIC  float64 `json:"aic,omitempty"`
	AICc float64 `json:"aicc,omitempty"`
	BIC  float64 `json:"bic,omitempty"`

	ADFStatistic float64 `json:"adf_statistic,omitempty"`
	ADFPValue    float64 `json:"adf_p_value,omitempty"`
	Stationary   bool    `json:"stationary,omitempty"`

	LjungBoxPValue float64 `json:"ljung_box_p_value,omitempty"`

	CVMAE  float64 `json:"cv_mae,omitempty"`
	CVRMSE float64 `json:"cv_rmse,omitempty"`
	CVMAPE float64 `json:"cv_mape,omitempty"`

	Forecast []ForecastPoint `json:"forecast,omitempty"`
}

// ForecastPoint is one forecast step with its interval bounds.
type ForecastPoint struct {
	Period  string  `json:"period"`
	Point   float64 `json:"point"`
	Lower80 float64 `json:"lower_80"`
	Upper80 float64 `json:"upper_80"`
	Lower95 float64 `json:"lower_95"`
	Upper95 float64 `json:"upper_95"`
}

// BuildExport assembles the exportable view of a run.
func BuildExport(run *pipeline.RunResult) *Export {
	out := &Export{
		RunID:        run.RunID,
		GeneratedAt:  time.Now().UTC(),
		Significance: significance(run),
	}

	for _, id := range run.Order {
		sr := run.Results[id]
		se := SeriesExport{ID: id, Name: sr.Job.Name}

		if sr.Err != nil {
			se.Error = sr.Err.Error()
			out.Series = append(out.Series, se)
			continue
		}

		se.NObs = sr.Series.Len()
		if sr.ADF != nil {
			se.ADFStatistic = sr.ADF.Statistic
			se.ADFPValue = sr.ADF.PValue
			se.Stationary = sr.Stationary
		}
		if sum := sr.Summary; sum != nil {
			se.Order = sum.Order.String()
			se.AIC = sum.AIC
			se.AICc = sum.AICc
			se.BIC = sum.BIC
			if sum.LjungBox != nil {
				se.LjungBoxPValue = sum.LjungBox.PValue
			}
		}
		if sr.CV != nil {
			se.CVMAE = sr.CV.MAE
			se.CVRMSE = sr.CV.RMSE
			se.CVMAPE = sr.CV.MAPE
		}
		if fc := sr.Forecast; fc != nil {
			dates := forecastDates(sr.Series, sr.Job.Frequency, fc.Horizon)
			for i := 0; i < fc.Horizon; i++ {
				se.Forecast = append(se.Forecast, ForecastPoint{
					Period:  dates[i].Format("2006-01-02"),
					Point:   fc.Mean[i],
					Lower80: fc.Lower80[i],
					Upper80: fc.Upper80[i],
					Lower95: fc.Lower95[i],
					Upper95: fc.Upper95[i],
				})
			}
		}
		out.Series = append(out.Series, se)
	}
	return out
}

// SaveJSON writes the exportable view to a file as indented JSON.
func SaveJSON(path string, run *pipeline.RunResult) error {
	data, err := json.MarshalIndent(BuildExport(run), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
