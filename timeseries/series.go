package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInsufficientData is returned when a series holds fewer observations
// than an operation requires.
var ErrInsufficientData = errors.New("insufficient data")

// Observation is a single dated value. A NaN value marks a missing
// observation; missing values are carried explicitly, never dropped.
type Observation struct {
	Time  time.Time
	Value float64
}

// Series is an ordered sequence of values at a fixed nominal frequency.
// Timestamps are strictly increasing and spaced one period apart.
type Series struct {
	Name       string
	Freq       Frequency
	Timestamps []time.Time
	Values     []float64
}

// New creates a monthly series starting at start. Intended for tests and
// synthetic data; use FromObservations for fetched data.
func New(name string, start time.Time, values []float64) *Series {
	return NewWithFrequency(name, Monthly, start, values)
}

// NewWithFrequency creates a series at the given frequency starting at start.
func NewWithFrequency(name string, freq Frequency, start time.Time, values []float64) *Series {
	timestamps := make([]time.Time, len(values))
	t := freq.Truncate(start)
	for i := range timestamps {
		timestamps[i] = t
		t = freq.Next(t)
	}
	vals := make([]float64, len(values))
	copy(vals, values)
	return &Series{Name: name, Freq: freq, Timestamps: timestamps, Values: vals}
}

// FromObservations builds a regularly spaced series from raw observations.
// Observations must be in strictly increasing time order. Periods absent
// from the input become NaN, so gaps stay visible until Interpolate runs.
func FromObservations(name string, freq Frequency, obs []Observation) (*Series, error) {
	if len(obs) == 0 {
		return nil, fmt.Errorf("series %s: no observations: %w", name, ErrInsufficientData)
	}

	for i := 1; i < len(obs); i++ {
		if !obs[i].Time.After(obs[i-1].Time) {
			return nil, fmt.Errorf("series %s: timestamps not strictly increasing at index %d", name, i)
		}
	}

	start := freq.Truncate(obs[0].Time)
	end := freq.Truncate(obs[len(obs)-1].Time)

	var timestamps []time.Time
	var values []float64

	next := 0
	for t := start; !t.After(end); t = freq.Next(t) {
		v := math.NaN()
		if next < len(obs) && freq.Truncate(obs[next].Time).Equal(t) {
			v = obs[next].Value
			next++
		}
		timestamps = append(timestamps, t)
		values = append(values, v)
	}
	if next < len(obs) {
		return nil, fmt.Errorf("series %s: observation %s off the %s grid",
			name, obs[next].Time.Format("2006-01-02"), freq)
	}

	return &Series{Name: name, Freq: freq, Timestamps: timestamps, Values: values}, nil
}

// Len returns the number of periods in the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Start returns the first period of the series.
func (s *Series) Start() time.Time {
	if len(s.Timestamps) == 0 {
		return time.Time{}
	}
	return s.Timestamps[0]
}

// End returns the last period of the series.
func (s *Series) End() time.Time {
	if len(s.Timestamps) == 0 {
		return time.Time{}
	}
	return s.Timestamps[len(s.Timestamps)-1]
}

// MissingCount returns the number of NaN values.
func (s *Series) MissingCount() int {
	count := 0
	for _, v := range s.Values {
		if math.IsNaN(v) {
			count++
		}
	}
	return count
}

// Mean calculates the arithmetic mean, ignoring missing values.
func (s *Series) Mean() float64 {
	sum, n := 0.0, 0
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Variance calculates the sample variance, ignoring missing values.
func (s *Series) Variance() float64 {
	mean := s.Mean()
	sumSq, n := 0.0, 0
	for _, v := range s.Values {
		if !math.IsNaN(v) {
			diff := v - mean
			sumSq += diff * diff
			n++
		}
	}
	if n < 2 {
		return 0
	}
	return sumSq / float64(n-1)
}

// Std calculates the sample standard deviation.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the smallest non-missing value, or NaN when none exist.
func (s *Series) Min() float64 {
	min := math.NaN()
	for _, v := range s.Values {
		if !math.IsNaN(v) && (math.IsNaN(min) || v < min) {
			min = v
		}
	}
	return min
}

// Max returns the largest non-missing value, or NaN when none exist.
func (s *Series) Max() float64 {
	max := math.NaN()
	for _, v := range s.Values {
		if !math.IsNaN(v) && (math.IsNaN(max) || v > max) {
			max = v
		}
	}
	return max
}

// Diff calculates the first difference of the series (d=1).
func (s *Series) Diff() *Series {
	return s.DiffN(1)
}

// DiffN calculates the n-th order difference of the series.
func (s *Series) DiffN(n int) *Series {
	if n <= 0 || len(s.Values) <= n {
		return &Series{Name: s.Name, Freq: s.Freq}
	}

	values := make([]float64, len(s.Values)-n)
	for i := n; i < len(s.Values); i++ {
		values[i-n] = s.Values[i] - s.Values[i-n]
	}

	timestamps := make([]time.Time, len(values))
	copy(timestamps, s.Timestamps[n:])

	return &Series{Name: s.Name + "_diff", Freq: s.Freq, Timestamps: timestamps, Values: values}
}

// SeasonalDiff calculates the seasonal difference with period m.
func (s *Series) SeasonalDiff(m int) *Series {
	if m <= 0 || len(s.Values) <= m {
		return &Series{Name: s.Name, Freq: s.Freq}
	}

	values := make([]float64, len(s.Values)-m)
	for i := m; i < len(s.Values); i++ {
		values[i-m] = s.Values[i] - s.Values[i-m]
	}

	timestamps := make([]time.Time, len(values))
	copy(timestamps, s.Timestamps[m:])

	return &Series{Name: s.Name + "_sdiff", Freq: s.Freq, Timestamps: timestamps, Values: values}
}

// Slice returns a copy of positions [start, end) of the series.
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Name: s.Name, Freq: s.Freq}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	timestamps := make([]time.Time, end-start)
	copy(timestamps, s.Timestamps[start:end])

	return &Series{Name: s.Name, Freq: s.Freq, Timestamps: timestamps, Values: values}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	return s.Slice(0, s.Len())
}
