package stats

import (
	"github.com/sartorproj/macrocast/timeseries"
)

// NDiffs determines the number of first differences required for
// stationarity, testing repeatedly and differencing until a test passes or
// maxD is reached. testType "adf" uses ADF alone; anything else consults
// KPSS and ADF together, treating the series as stationary when both agree
// or when KPSS is comfortably inside its null.
func NDiffs(series *timeseries.Series, maxD int, testType string) int {
	if maxD <= 0 {
		maxD = 2
	}

	current := series
	for d := 0; d < maxD; d++ {
		if isStationary(current, testType) {
			return d
		}
		current = current.Diff()
		if current.Len() < minTestObs {
			return d
		}
	}
	return maxD
}

func isStationary(series *timeseries.Series, testType string) bool {
	if testType == "adf" {
		result, err := ADF(series, 0)
		return err == nil && result.IsStationary
	}

	kpssResult, kpssErr := KPSS(series, 0)
	adfResult, adfErr := ADF(series, 0)

	kpssStationary := kpssErr == nil && kpssResult.IsStationary
	adfStationary := adfErr == nil && adfResult.IsStationary

	if kpssStationary && adfStationary {
		return true
	}
	// KPSS comfortably fails to reject its stationarity null.
	return kpssStationary && kpssResult.PValue > 0.1
}

// NSDiffs determines the number of seasonal differences required, using the
// seasonal strength measure F_S = max(0, 1 - Var(R)/Var(S+R)); a strength of
// 0.64 or more suggests one more seasonal difference.
func NSDiffs(series *timeseries.Series, period, maxD int) int {
	if maxD <= 0 {
		maxD = 1
	}
	if period <= 1 || series.Len() < 2*period {
		return 0
	}

	current := series
	for d := 0; d < maxD; d++ {
		if SeasonalStrength(current, period) < 0.64 {
			return d
		}
		current = current.SeasonalDiff(period)
		if current.Len() < 2*period {
			return d
		}
	}
	return maxD
}

// SeasonalStrength measures how much of the detrended variation the seasonal
// component explains. Returns 0 when decomposition is not possible.
func SeasonalStrength(series *timeseries.Series, period int) float64 {
	decomp, err := STL(series, period, 1)
	if err != nil {
		return 0
	}

	varR := sliceVariance(decomp.Remainder.Values)

	combined := make([]float64, decomp.Seasonal.Len())
	for i := range combined {
		combined[i] = decomp.Seasonal.Values[i] + decomp.Remainder.Values[i]
	}
	varSR := sliceVariance(combined)
	if varSR == 0 {
		return 0
	}

	strength := 1 - varR/varSR
	if strength < 0 {
		strength = 0
	}
	return strength
}

func sliceVariance(data []float64) float64 {
	n := len(data)
	if n < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(n)

	sumSq := 0.0
	for _, v := range data {
		diff := v - mean
		sumSq += diff * diff
	}
	return sumSq / float64(n-1)
}
