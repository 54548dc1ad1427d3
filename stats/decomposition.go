package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/sartorproj/macrocast/timeseries"
)

// Decomposition holds the additive seasonal-trend split of a series.
// For every t, Seasonal[t] + Trend[t] + Remainder[t] equals the input value.
type Decomposition struct {
	Original  *timeseries.Series
	Trend     *timeseries.Series
	Seasonal  *timeseries.Series
	Remainder *timeseries.Series
	Period    int
}

// STL performs seasonal-trend decomposition using locally weighted smoothing.
// The seasonal pattern is periodic: one fixed cycle of amplitude estimates
// repeats across the whole series rather than drifting. robustIters > 1
// downweights outliers between passes with a bisquare weight.
//
// The series must be clean (no missing values), period must exceed 1, and
// the series must cover at least two full cycles.
func STL(series *timeseries.Series, period, robustIters int) (*Decomposition, error) {
	n := series.Len()
	if period <= 1 {
		return nil, fmt.Errorf("stl: period %d: %w", period, ErrInvalidFrequency)
	}
	if n < 2*period {
		return nil, fmt.Errorf("stl: %d observations, need two full cycles of %d: %w",
			n, period, ErrInvalidFrequency)
	}
	if robustIters < 1 {
		robustIters = 2
	}

	trend := make([]float64, n)
	seasonal := make([]float64, n)
	remainder := make([]float64, n)
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1.0
	}

	for iter := 0; iter < robustIters; iter++ {
		// Detrend.
		detrended := make([]float64, n)
		for i := 0; i < n; i++ {
			detrended[i] = series.Values[i] - trend[i]
		}

		// Weighted per-phase averages give the periodic seasonal pattern.
		pattern := make([]float64, period)
		counts := make([]float64, period)
		for i := 0; i < n; i++ {
			idx := i % period
			pattern[idx] += detrended[i] * weights[i]
			counts[idx] += weights[i]
		}
		for i := 0; i < period; i++ {
			if counts[i] > 0 {
				pattern[i] /= counts[i]
			}
		}

		// Center the pattern so the seasonal component sums to zero per cycle.
		meanSeasonal := 0.0
		for _, v := range pattern {
			meanSeasonal += v
		}
		meanSeasonal /= float64(period)
		for i := range pattern {
			pattern[i] -= meanSeasonal
		}

		for i := 0; i < n; i++ {
			seasonal[i] = pattern[i%period]
		}

		// Deseasonalize and smooth for trend with a tricube-ish weighted window.
		deseasonalized := make([]float64, n)
		for i := 0; i < n; i++ {
			deseasonalized[i] = series.Values[i] - seasonal[i]
		}

		window := period
		if window%2 == 0 {
			window++
		}
		half := window / 2

		for i := 0; i < n; i++ {
			sum := 0.0
			weightSum := 0.0
			for j := -half; j <= half; j++ {
				idx := i + j
				if idx >= 0 && idx < n {
					w := weights[idx] * (1 - math.Abs(float64(j))/float64(half+1))
					sum += deseasonalized[idx] * w
					weightSum += w
				}
			}
			if weightSum > 0 {
				trend[i] = sum / weightSum
			}
		}

		for i := 0; i < n; i++ {
			remainder[i] = series.Values[i] - trend[i] - seasonal[i]
		}

		// Bisquare robustness weights for the next pass.
		if iter < robustIters-1 {
			absRemainder := make([]float64, n)
			for i, r := range remainder {
				absRemainder[i] = math.Abs(r)
			}
			h := 6 * median(absRemainder)
			if h > 0 {
				for i := 0; i < n; i++ {
					u := math.Abs(remainder[i]) / h
					if u < 1 {
						weights[i] = (1 - u*u) * (1 - u*u)
					} else {
						weights[i] = 0
					}
				}
			}
		}
	}

	component := func(name string, values []float64) *timeseries.Series {
		return &timeseries.Series{
			Name:       series.Name + "_" + name,
			Freq:       series.Freq,
			Timestamps: series.Timestamps,
			Values:     values,
		}
	}

	return &Decomposition{
		Original:  series,
		Trend:     component("trend", trend),
		Seasonal:  component("seasonal", seasonal),
		Remainder: component("remainder", remainder),
		Period:    period,
	}, nil
}

// LastCycle returns the final full seasonal cycle, the pattern a forecast
// recombination repeats forward.
func (d *Decomposition) LastCycle() []float64 {
	n := d.Seasonal.Len()
	cycle := make([]float64, d.Period)
	copy(cycle, d.Seasonal.Values[n-d.Period:])
	return cycle
}

func median(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, data)
	sort.Float64s(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
