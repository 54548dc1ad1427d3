package arima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// Forecast holds point forecasts with 80% and 95% prediction intervals for
// each step of the horizon.
type Forecast struct {
	Horizon int
	Mean    []float64
	Lower80 []float64
	Upper80 []float64
	Lower95 []float64
	Upper95 []float64

	// Model is the fitted model that produced the forecast.
	Model *Model
}

var (
	z80 = distuv.UnitNormal.Quantile(0.90)  // two-sided 80%
	z95 = distuv.UnitNormal.Quantile(0.975) // two-sided 95%
)

// Forecast produces an h-step forecast with prediction intervals. Interval
// widths come from the residual variance propagated forward through the
// model's psi weights, so they never narrow as the step index grows.
func (m *Model) Forecast(h int) (*Forecast, error) {
	if !m.fitted {
		return nil, errors.New("model must be fitted before forecasting")
	}
	if h < 1 {
		return nil, fmt.Errorf("horizon must be positive, got %d", h)
	}

	mean := m.pointForecasts(h)

	psi := m.psiWeights(h)
	variances := make([]float64, h)
	cumSq := 0.0
	for j := 0; j < h; j++ {
		cumSq += psi[j] * psi[j]
		variances[j] = m.Variance * cumSq
	}

	fc := &Forecast{
		Horizon: h,
		Mean:    mean,
		Lower80: make([]float64, h),
		Upper80: make([]float64, h),
		Lower95: make([]float64, h),
		Upper95: make([]float64, h),
		Model:   m,
	}
	for j := 0; j < h; j++ {
		se := math.Sqrt(variances[j])
		fc.Lower80[j] = mean[j] - z80*se
		fc.Upper80[j] = mean[j] + z80*se
		fc.Lower95[j] = mean[j] - z95*se
		fc.Upper95[j] = mean[j] + z95*se
	}
	return fc, nil
}

// pointForecasts runs the forecast recursion on the differenced scale and
// integrates back through every differencing stage.
func (m *Model) pointForecasts(h int) []float64 {
	o := m.Order
	y := m.differenced().Values
	n := len(y)

	extY := make([]float64, n+h)
	copy(extY, y)
	extResiduals := make([]float64, n+h)
	copy(extResiduals, m.residuals)

	for step := 0; step < h; step++ {
		t := n + step
		pred := m.Intercept

		for i := 0; i < o.P && t-i-1 >= 0; i++ {
			pred += m.ARCoeffs[i] * (extY[t-i-1] - m.Intercept)
		}
		for i := 0; i < o.SP; i++ {
			lag := (i + 1) * o.M
			if t-lag >= 0 {
				pred += m.SARCoeffs[i] * (extY[t-lag] - m.Intercept)
			}
		}
		// Future residuals have expectation zero.
		for i := 0; i < o.Q && t-i-1 >= 0 && t-i-1 < n; i++ {
			pred += m.MACoeffs[i] * extResiduals[t-i-1]
		}
		for i := 0; i < o.SQ; i++ {
			lag := (i + 1) * o.M
			if t-lag >= 0 && t-lag < n {
				pred += m.SMACoeffs[i] * extResiduals[t-lag]
			}
		}

		extY[t] = pred
	}

	forecasts := make([]float64, h)
	copy(forecasts, extY[n:])

	// Undo differencing in reverse order of application: seasonal stages
	// first, then the regular ones.
	for stage := len(m.diffChain) - 1; stage >= 1; stage-- {
		lag := 1
		if stage > m.Order.D {
			lag = m.Order.M
		}
		forecasts = undoDiff(m.diffChain[stage-1].Values, forecasts, lag)
	}
	return forecasts
}

// undoDiff integrates differenced forecasts back onto the scale of prev,
// the series the differencing stage consumed.
func undoDiff(prev, forecasts []float64, lag int) []float64 {
	out := make([]float64, len(forecasts))
	for j := range forecasts {
		idx := len(prev) + j - lag
		var base float64
		if idx < len(prev) {
			base = prev[idx]
		} else {
			base = out[idx-len(prev)]
		}
		out[j] = forecasts[j] + base
	}
	return out
}

// psiWeights computes the first h weights of the model's infinite moving
// average representation in levels, including the differencing operators.
func (m *Model) psiWeights(h int) []float64 {
	arPoly := m.levelARPolynomial()
	maPoly := m.maPolynomial()

	psi := make([]float64, h)
	psi[0] = 1
	for j := 1; j < h; j++ {
		v := 0.0
		if j < len(maPoly) {
			v = maPoly[j]
		}
		for i := 1; i <= j && i < len(arPoly); i++ {
			v -= arPoly[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}

// levelARPolynomial expands phi(B)*PHI(B^m)*(1-B)^d*(1-B^m)^D, constant
// term first.
func (m *Model) levelARPolynomial() []float64 {
	o := m.Order

	poly := []float64{1}

	phi := make([]float64, o.P+1)
	phi[0] = 1
	for i, c := range m.ARCoeffs {
		phi[i+1] = -c
	}
	poly = polyMul(poly, phi)

	if o.SP > 0 && o.M > 1 {
		sphi := make([]float64, o.SP*o.M+1)
		sphi[0] = 1
		for i, c := range m.SARCoeffs {
			sphi[(i+1)*o.M] = -c
		}
		poly = polyMul(poly, sphi)
	}

	for i := 0; i < o.D; i++ {
		poly = polyMul(poly, []float64{1, -1})
	}
	if o.SD > 0 && o.M > 1 {
		sdiff := make([]float64, o.M+1)
		sdiff[0] = 1
		sdiff[o.M] = -1
		for i := 0; i < o.SD; i++ {
			poly = polyMul(poly, sdiff)
		}
	}

	return poly
}

// maPolynomial expands theta(B)*THETA(B^m), constant term first.
func (m *Model) maPolynomial() []float64 {
	o := m.Order

	theta := make([]float64, o.Q+1)
	theta[0] = 1
	for i, c := range m.MACoeffs {
		theta[i+1] = c
	}

	if o.SQ == 0 || o.M <= 1 {
		return theta
	}

	stheta := make([]float64, o.SQ*o.M+1)
	stheta[0] = 1
	for i, c := range m.SMACoeffs {
		stheta[(i+1)*o.M] = c
	}
	return polyMul(theta, stheta)
}

// polyMul multiplies two polynomials in the backshift operator.
func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		if av == 0 {
			continue
		}
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
	return out
}
