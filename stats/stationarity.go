package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/macrocast/timeseries"
)

// ErrInvalidFrequency is returned when a seasonal period is inconsistent
// with the series length.
var ErrInvalidFrequency = errors.New("invalid seasonal frequency")

// minTestObs is the smallest series a unit-root test accepts.
const minTestObs = 20

// ADFResult represents the result of an Augmented Dickey-Fuller test.
type ADFResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	NObs         int
	CriticalVals map[string]float64 // critical values at 1%, 5% and 10%
	IsStationary bool               // reject the unit-root null at 5%
}

// StationaryAt reports whether the unit-root null is rejected at the given
// significance level. The p-value approximation is a step function, so a
// statistic exactly at a critical value carries that level's p-value and
// still rejects there.
func (r *ADFResult) StationaryAt(alpha float64) bool {
	return r.PValue <= alpha
}

// ADF performs the Augmented Dickey-Fuller test for a unit root.
// The null hypothesis is that the series has a unit root (is non-stationary);
// a p-value below 0.05 rejects the null. maxLag <= 0 selects the usual
// floor((n-1)^(1/3)) default.
func ADF(series *timeseries.Series, maxLag int) (*ADFResult, error) {
	n := series.Len()
	if n < minTestObs {
		return nil, fmt.Errorf("adf: %d observations, need %d: %w",
			n, minTestObs, timeseries.ErrInsufficientData)
	}

	if maxLag <= 0 {
		maxLag = int(math.Floor(math.Pow(float64(n-1), 1.0/3.0)))
	}
	if maxLag >= n-1 {
		maxLag = n - 2
	}

	diff := series.Diff()

	// Regression: delta_y_t = alpha + beta*y_{t-1} + sum(gamma_i*delta_y_{t-i}) + e_t.
	// The test statistic is the t-stat on beta.
	nObs := n - maxLag - 1
	if nObs < minTestObs/2 {
		return nil, fmt.Errorf("adf: %d usable observations after %d lags: %w",
			nObs, maxLag, timeseries.ErrInsufficientData)
	}

	k := 2 + maxLag
	x := mat.NewDense(nObs, k, nil)
	y := mat.NewVecDense(nObs, nil)

	for i := 0; i < nObs; i++ {
		t := i + maxLag
		y.SetVec(i, diff.Values[t])

		x.Set(i, 0, 1)                // constant
		x.Set(i, 1, series.Values[t]) // lagged level
		for j := 1; j <= maxLag; j++ {
			x.Set(i, 1+j, diff.Values[t-j])
		}
	}

	coeffs, se, err := olsRegression(x, y)
	if err != nil {
		return nil, fmt.Errorf("adf: %w", err)
	}

	tStat := coeffs[1] / se[1]
	pValue := mackinnonPValue(tStat)

	return &ADFResult{
		Statistic: tStat,
		PValue:    pValue,
		Lags:      maxLag,
		NObs:      nObs,
		CriticalVals: map[string]float64{
			"1%":  -3.43,
			"5%":  -2.86,
			"10%": -2.57,
		},
		IsStationary: pValue <= 0.05,
	}, nil
}

// KPSSResult represents the result of a KPSS test.
type KPSSResult struct {
	Statistic    float64
	PValue       float64
	Lags         int
	CriticalVals map[string]float64
	IsStationary bool // fail to reject the stationarity null at 5%
}

// KPSS performs the Kwiatkowski-Phillips-Schmidt-Shin test around a constant
// level. The null hypothesis is that the series is stationary, the reverse of
// ADF, which is why the differencing chooser consults both.
func KPSS(series *timeseries.Series, nlags int) (*KPSSResult, error) {
	n := series.Len()
	if n < minTestObs {
		return nil, fmt.Errorf("kpss: %d observations, need %d: %w",
			n, minTestObs, timeseries.ErrInsufficientData)
	}

	if nlags <= 0 {
		nlags = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if nlags >= n {
		nlags = n - 1
	}

	mean := series.Mean()
	residuals := make([]float64, n)
	for i, v := range series.Values {
		residuals[i] = v - mean
	}

	cumSum := make([]float64, n)
	cumSum[0] = residuals[0]
	for i := 1; i < n; i++ {
		cumSum[i] = cumSum[i-1] + residuals[i]
	}

	// Newey-West long-run variance with Bartlett weights.
	s2 := 0.0
	for _, r := range residuals {
		s2 += r * r
	}
	s2 /= float64(n)

	for l := 1; l <= nlags; l++ {
		cov := 0.0
		for i := l; i < n; i++ {
			cov += residuals[i] * residuals[i-l]
		}
		cov /= float64(n)
		weight := 1.0 - float64(l)/float64(nlags+1)
		s2 += 2 * weight * cov
	}
	if s2 <= 0 {
		s2 = 1e-10
	}

	etaSq := 0.0
	for _, cs := range cumSum {
		etaSq += cs * cs
	}
	stat := etaSq / (float64(n) * float64(n) * s2)

	pValue := kpssPValue(stat)

	return &KPSSResult{
		Statistic: stat,
		PValue:    pValue,
		Lags:      nlags,
		CriticalVals: map[string]float64{
			"10%": 0.347,
			"5%":  0.463,
			"1%":  0.739,
		},
		IsStationary: pValue > 0.05,
	}, nil
}

// StationaryAt reports whether the stationarity null survives at the given
// significance level. A statistic exactly at a critical value carries that
// level's p-value and is rejected there, mirroring ADFResult.StationaryAt.
func (r *KPSSResult) StationaryAt(alpha float64) bool {
	return r.PValue > alpha
}

// olsRegression performs ordinary least squares, returning coefficients and
// their standard errors.
func olsRegression(x *mat.Dense, y *mat.VecDense) (coeffs, stdErrors []float64, err error) {
	n, k := x.Dims()
	if n <= k {
		return nil, nil, fmt.Errorf("ols: %d rows for %d regressors: %w",
			n, k, timeseries.ErrInsufficientData)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)

	var xtxInv mat.Dense
	if err := xtxInv.Inverse(&xtx); err != nil {
		return nil, nil, fmt.Errorf("ols: singular design matrix: %w", err)
	}

	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var beta mat.VecDense
	beta.MulVec(&xtxInv, &xty)

	var fitted mat.VecDense
	fitted.MulVec(x, &beta)

	sse := 0.0
	for i := 0; i < n; i++ {
		r := y.AtVec(i) - fitted.AtVec(i)
		sse += r * r
	}
	s2 := sse / float64(n-k)

	coeffs = make([]float64, k)
	stdErrors = make([]float64, k)
	for i := 0; i < k; i++ {
		coeffs[i] = beta.AtVec(i)
		stdErrors[i] = math.Sqrt(s2 * xtxInv.At(i, i))
	}
	return coeffs, stdErrors, nil
}

// mackinnonPValue approximates the ADF p-value for the constant-only
// regression, interpolating the MacKinnon (1994) asymptotic surface.
func mackinnonPValue(stat float64) float64 {
	switch {
	case stat < -3.96:
		return 0.001
	case stat < -3.43:
		return 0.01
	case stat < -2.86:
		return 0.05
	case stat < -2.57:
		return 0.10
	case stat < -1.94:
		return 0.25
	case stat < -1.62:
		return 0.50
	default:
		return math.Min(0.5+(stat+1.62)*0.25, 0.99)
	}
}

// kpssPValue approximates the KPSS p-value for level stationarity.
func kpssPValue(stat float64) float64 {
	switch {
	case stat > 0.739:
		return 0.01
	case stat > 0.463:
		return 0.05
	case stat > 0.347:
		return 0.10
	default:
		return math.Min(0.10+(0.347-stat)*0.5, 0.99)
	}
}
