package stats

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/sartorproj/macrocast/timeseries"
)

var testStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// ar1Series generates a stationary AR(1) series with a deterministic
// pseudo-noise sequence.
func ar1Series(n int, phi, mean float64) *timeseries.Series {
	values := make([]float64, n)
	values[0] = mean
	for i := 1; i < n; i++ {
		noise := float64((i*37)%11-5) / 5
		values[i] = mean + phi*(values[i-1]-mean) + noise
	}
	return timeseries.New("ar1", testStart, values)
}

// randomWalk generates a non-stationary cumulative series.
func randomWalk(n int) *timeseries.Series {
	values := make([]float64, n)
	values[0] = 100
	for i := 1; i < n; i++ {
		step := float64((i*53)%13-6) / 3
		values[i] = values[i-1] + 0.5 + step
	}
	return timeseries.New("walk", testStart, values)
}

func TestADFStationarySeries(t *testing.T) {
	s := ar1Series(200, 0.5, 10)

	result, err := ADF(s, 0)
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}

	if !result.IsStationary {
		t.Errorf("AR(1) with phi=0.5 should test stationary: stat=%f p=%f",
			result.Statistic, result.PValue)
	}
	if result.Statistic >= 0 {
		t.Errorf("Expected negative test statistic, got %f", result.Statistic)
	}
}

func TestADFRandomWalk(t *testing.T) {
	s := randomWalk(200)

	result, err := ADF(s, 0)
	if err != nil {
		t.Fatalf("ADF failed: %v", err)
	}

	if result.IsStationary {
		t.Errorf("Random walk should not test stationary: stat=%f p=%f",
			result.Statistic, result.PValue)
	}
}

func TestADFDecisionMatchesCriticalValues(t *testing.T) {
	series := []*timeseries.Series{
		ar1Series(150, 0.3, 0),
		ar1Series(150, 0.6, 5),
		ar1Series(150, 0.9, 10),
		ar1Series(150, 0.97, 10),
		randomWalk(150),
	}
	for _, s := range series {
		result, err := ADF(s, 0)
		if err != nil {
			t.Fatalf("ADF(%s) failed: %v", s.Name, err)
		}
		// A statistic below the advertised 5% critical value must be
		// reported stationary, and one above must not be.
		cv := result.CriticalVals["5%"]
		if result.Statistic < cv && !result.IsStationary {
			t.Errorf("%s: stat=%f beats 5%% critical value %f but reported non-stationary (p=%f)",
				s.Name, result.Statistic, cv, result.PValue)
		}
		if result.Statistic > result.CriticalVals["10%"] && result.IsStationary {
			t.Errorf("%s: stat=%f above 10%% critical value but reported stationary (p=%f)",
				s.Name, result.Statistic, result.PValue)
		}
	}
}

func TestStationaryAtLevels(t *testing.T) {
	// The p-value approximation steps at the tabulated levels, so a result
	// carrying exactly p=0.05 still rejects at 5%.
	adf := &ADFResult{PValue: 0.05}
	if !adf.StationaryAt(0.05) {
		t.Error("ADF p=0.05 should reject the unit root at the 5% level")
	}
	if adf.StationaryAt(0.01) {
		t.Error("ADF p=0.05 should not reject at the 1% level")
	}

	kpss := &KPSSResult{PValue: 0.05}
	if kpss.StationaryAt(0.05) {
		t.Error("KPSS p=0.05 rejects stationarity at the 5% level")
	}
	if !kpss.StationaryAt(0.01) {
		t.Error("KPSS p=0.05 should survive at the 1% level")
	}
}

func TestADFInsufficientData(t *testing.T) {
	s := timeseries.New("short", testStart, make([]float64, 10))

	_, err := ADF(s, 0)
	if !errors.Is(err, timeseries.ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestKPSSStationarySeries(t *testing.T) {
	s := ar1Series(200, 0.3, 5)

	result, err := KPSS(s, 0)
	if err != nil {
		t.Fatalf("KPSS failed: %v", err)
	}
	if !result.IsStationary {
		t.Errorf("Stationary series should pass KPSS: stat=%f p=%f",
			result.Statistic, result.PValue)
	}
}

func TestACF(t *testing.T) {
	s := ar1Series(300, 0.7, 0)

	acf := ACF(s, 5)
	if acf == nil {
		t.Fatal("ACF returned nil")
	}

	if math.Abs(acf[0]-1.0) > 1e-10 {
		t.Errorf("ACF at lag 0 should be 1, got %f", acf[0])
	}
	if acf[1] < 0.3 {
		t.Errorf("AR(1) phi=0.7 should have strong lag-1 autocorrelation, got %f", acf[1])
	}
	if acf[1] < acf[3] {
		t.Errorf("AR(1) autocorrelation should decay: lag1=%f lag3=%f", acf[1], acf[3])
	}
}

func TestPACFCutsOff(t *testing.T) {
	s := ar1Series(300, 0.7, 0)

	pacf := PACF(s, 5)
	if pacf == nil {
		t.Fatal("PACF returned nil")
	}

	bound := 1.96 / math.Sqrt(float64(s.Len()))
	if math.Abs(pacf[1]) < bound {
		t.Errorf("AR(1) PACF at lag 1 should be significant, got %f", pacf[1])
	}
	// Higher lags should be much smaller than lag 1 for a pure AR(1).
	if math.Abs(pacf[3]) > math.Abs(pacf[1])/2 {
		t.Errorf("AR(1) PACF should cut off after lag 1: lag1=%f lag3=%f",
			pacf[1], pacf[3])
	}
}

// lcgNoise produces a fixed pseudo-random sequence in [-0.5, 0.5).
func lcgNoise(n int, seed uint32) []float64 {
	values := make([]float64, n)
	state := seed
	for i := range values {
		state = state*1664525 + 1013904223
		values[i] = float64(state)/float64(1<<32) - 0.5
	}
	return values
}

func TestLjungBoxWhiteNoise(t *testing.T) {
	n := 400
	s := timeseries.New("noise", testStart, lcgNoise(n, 42))

	result, err := LjungBox(s, 5, 0)
	if err != nil {
		t.Fatalf("LjungBox failed: %v", err)
	}
	if result.PValue < 0.001 {
		t.Errorf("White noise should not reject: stat=%f p=%f",
			result.Statistic, result.PValue)
	}
}

func TestLjungBoxAutocorrelated(t *testing.T) {
	s := ar1Series(200, 0.8, 0)

	result, err := LjungBox(s, 10, 0)
	if err != nil {
		t.Fatalf("LjungBox failed: %v", err)
	}
	if result.PValue > 0.05 {
		t.Errorf("Strongly autocorrelated series should reject: p=%f", result.PValue)
	}
}

func TestDefaultLjungBoxLags(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{100, 20},
		{10, 5},
		{1000, 30},
		{4, 2},
	}
	for _, tt := range tests {
		if got := DefaultLjungBoxLags(tt.n); got != tt.want {
			t.Errorf("DefaultLjungBoxLags(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestDurbinWatson(t *testing.T) {
	// Alternating residuals: strong negative autocorrelation, d near 4.
	residuals := make([]float64, 100)
	for i := range residuals {
		if i%2 == 0 {
			residuals[i] = 1
		} else {
			residuals[i] = -1
		}
	}
	if d := DurbinWatson(residuals); d < 3 {
		t.Errorf("Alternating residuals should give d near 4, got %f", d)
	}
}

func seasonalSeries(n, period int) *timeseries.Series {
	values := make([]float64, n)
	for i := range values {
		trend := 0.1 * float64(i)
		seasonal := 5 * math.Sin(2*math.Pi*float64(i%period)/float64(period))
		values[i] = 20 + trend + seasonal
	}
	return timeseries.New("seasonal", testStart, values)
}

func TestSTLAdditivity(t *testing.T) {
	s := seasonalSeries(120, 12)

	decomp, err := STL(s, 12, 2)
	if err != nil {
		t.Fatalf("STL failed: %v", err)
	}

	for i := 0; i < s.Len(); i++ {
		sum := decomp.Trend.Values[i] + decomp.Seasonal.Values[i] + decomp.Remainder.Values[i]
		if math.Abs(sum-s.Values[i]) > 1e-9 {
			t.Fatalf("Additivity violated at %d: %f + %f + %f != %f",
				i, decomp.Trend.Values[i], decomp.Seasonal.Values[i],
				decomp.Remainder.Values[i], s.Values[i])
		}
	}
}

func TestSTLPeriodicSeasonal(t *testing.T) {
	s := seasonalSeries(120, 12)

	decomp, err := STL(s, 12, 2)
	if err != nil {
		t.Fatalf("STL failed: %v", err)
	}

	// The pattern repeats exactly every cycle.
	for i := 12; i < s.Len(); i++ {
		if math.Abs(decomp.Seasonal.Values[i]-decomp.Seasonal.Values[i-12]) > 1e-9 {
			t.Fatalf("Seasonal component drifts at %d", i)
		}
	}

	// Centered: one cycle sums to roughly zero.
	sum := 0.0
	for _, v := range decomp.LastCycle() {
		sum += v
	}
	if math.Abs(sum) > 1e-6 {
		t.Errorf("Seasonal cycle should sum to zero, got %f", sum)
	}
}

func TestSTLDeterministic(t *testing.T) {
	s := seasonalSeries(96, 12)

	first, err := STL(s, 12, 2)
	if err != nil {
		t.Fatalf("STL failed: %v", err)
	}
	second, err := STL(s, 12, 2)
	if err != nil {
		t.Fatalf("STL failed: %v", err)
	}

	for i := range first.Trend.Values {
		if first.Trend.Values[i] != second.Trend.Values[i] {
			t.Fatal("STL is not deterministic")
		}
	}
}

func TestSTLInvalidPeriod(t *testing.T) {
	s := seasonalSeries(50, 12)

	if _, err := STL(s, 1, 2); !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("Period 1 should fail with ErrInvalidFrequency, got %v", err)
	}

	short := s.Slice(0, 20)
	if _, err := STL(short, 12, 2); !errors.Is(err, ErrInvalidFrequency) {
		t.Errorf("Series shorter than two cycles should fail, got %v", err)
	}
}

func TestNDiffs(t *testing.T) {
	stationary := ar1Series(200, 0.5, 10)
	if d := NDiffs(stationary, 2, ""); d != 0 {
		t.Errorf("Stationary series should need 0 differences, got %d", d)
	}

	walk := randomWalk(200)
	if d := NDiffs(walk, 2, ""); d < 1 {
		t.Errorf("Random walk should need at least 1 difference, got %d", d)
	}
}

func TestNSDiffsStrongSeasonality(t *testing.T) {
	n, period := 120, 12
	values := make([]float64, n)
	for i := range values {
		values[i] = 10 * math.Sin(2*math.Pi*float64(i%period)/float64(period))
	}
	s := timeseries.New("seasonal", testStart, values)

	if sd := NSDiffs(s, period, 1); sd != 1 {
		t.Errorf("Strongly seasonal series should need 1 seasonal difference, got %d", sd)
	}
}

func TestNSDiffsNoSeasonality(t *testing.T) {
	s := ar1Series(120, 0.3, 0)
	if sd := NSDiffs(s, 12, 1); sd != 0 {
		t.Errorf("Non-seasonal series should need 0 seasonal differences, got %d", sd)
	}
}
