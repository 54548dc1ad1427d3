package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/macrocast/timeseries"
)

// LjungBoxResult represents the result of a Ljung-Box portmanteau test.
type LjungBoxResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DOF       int
}

// LjungBox tests residuals for autocorrelation up to the given lag count.
// The null hypothesis is that there is no autocorrelation; a p-value below
// 0.05 indicates the model left structure in the residuals. fitdf is the
// number of parameters the model estimated (p+q+P+Q for ARIMA).
func LjungBox(series *timeseries.Series, lags, fitdf int) (*LjungBoxResult, error) {
	n := series.Len()
	if n < 10 || lags < 1 {
		return nil, fmt.Errorf("ljung-box: n=%d lags=%d: %w",
			n, lags, timeseries.ErrInsufficientData)
	}
	if lags >= n {
		lags = n - 1
	}

	acf := ACF(series, lags)
	if acf == nil {
		return nil, fmt.Errorf("ljung-box: zero-variance residuals: %w",
			timeseries.ErrInsufficientData)
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		q += (acf[k] * acf[k]) / float64(n-k)
	}
	q *= float64(n * (n + 2))

	dof := lags - fitdf
	if dof < 1 {
		dof = 1
	}

	chi2 := distuv.ChiSquared{K: float64(dof)}
	pValue := 1 - chi2.CDF(q)

	return &LjungBoxResult{
		Statistic: q,
		PValue:    pValue,
		Lags:      lags,
		DOF:       dof,
	}, nil
}

// DefaultLjungBoxLags derives the lag count from the residual count:
// floor(10*log10(n)), capped at n/2.
func DefaultLjungBoxLags(n int) int {
	if n < 2 {
		return 1
	}
	lags := int(math.Floor(10 * math.Log10(float64(n))))
	if lags > n/2 {
		lags = n / 2
	}
	if lags < 1 {
		lags = 1
	}
	return lags
}

// DurbinWatson calculates the Durbin-Watson statistic for first-order
// residual autocorrelation. Values near 2 indicate none; below 2 positive,
// above 2 negative.
func DurbinWatson(residuals []float64) float64 {
	n := len(residuals)
	if n < 2 {
		return math.NaN()
	}

	numerator := 0.0
	denominator := 0.0
	for i := 1; i < n; i++ {
		diff := residuals[i] - residuals[i-1]
		numerator += diff * diff
	}
	for _, r := range residuals {
		denominator += r * r
	}
	if denominator == 0 {
		return math.NaN()
	}
	return numerator / denominator
}
