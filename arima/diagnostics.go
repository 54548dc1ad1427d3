package arima

import (
	"github.com/sartorproj/macrocast/stats"
)

// Summary reports a fitted model's order, coefficients, information
// criteria, and residual diagnostics.
type Summary struct {
	Order        Order
	ARCoeffs     []float64
	MACoeffs     []float64
	SARCoeffs    []float64
	SMACoeffs    []float64
	Intercept    float64
	Variance     float64
	AIC          float64
	AICc         float64
	BIC          float64
	LogLik       float64
	NObs         int
	LjungBox     *stats.LjungBoxResult
	DurbinWatson float64
	ResidualMean float64
	ResidualStd  float64
}

// Summary runs the residual diagnostics and returns the report, or nil if
// the model is not fitted. Ljung-Box lags follow the residual count
// (floor(10*log10(n))), degrees of freedom are reduced by the number of
// ARMA parameters.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	resid := m.ResidualSeries()
	fitdf := m.Order.P + m.Order.Q + m.Order.SP + m.Order.SQ

	lb, err := stats.LjungBox(resid, stats.DefaultLjungBoxLags(resid.Len()), fitdf)
	if err != nil {
		lb = nil
	}

	return &Summary{
		Order:        m.Order,
		ARCoeffs:     m.ARCoeffs,
		MACoeffs:     m.MACoeffs,
		SARCoeffs:    m.SARCoeffs,
		SMACoeffs:    m.SMACoeffs,
		Intercept:    m.Intercept,
		Variance:     m.Variance,
		AIC:          m.AIC,
		AICc:         m.AICc,
		BIC:          m.BIC,
		LogLik:       m.LogLik,
		NObs:         m.data.Len(),
		LjungBox:     lb,
		DurbinWatson: stats.DurbinWatson(m.residuals),
		ResidualMean: resid.Mean(),
		ResidualStd:  resid.Std(),
	}
}
