package arima

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/macrocast/stats"
	"github.com/sartorproj/macrocast/timeseries"
)

// ErrNonConvergent is returned when estimation fails to reach a stable fit.
var ErrNonConvergent = errors.New("model estimation did not converge")

// Order represents model order (p,d,q) with optional seasonal part
// (P,D,Q)[m]. M = 0 disables the seasonal terms.
type Order struct {
	P, D, Q    int
	SP, SD, SQ int
	M          int
}

// Seasonal reports whether the order carries seasonal terms.
func (o Order) Seasonal() bool {
	return o.M > 1 && (o.SP > 0 || o.SD > 0 || o.SQ > 0)
}

// NumParams returns the number of estimated parameters including the intercept.
func (o Order) NumParams() int {
	return o.P + o.Q + o.SP + o.SQ + 1
}

// String formats the order the conventional way.
func (o Order) String() string {
	if o.Seasonal() {
		return fmt.Sprintf("ARIMA(%d,%d,%d)(%d,%d,%d)[%d]",
			o.P, o.D, o.Q, o.SP, o.SD, o.SQ, o.M)
	}
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// Model is a fitted or fittable ARIMA model. A model is read-only once Fit
// returns successfully.
type Model struct {
	Order     Order
	ARCoeffs  []float64
	MACoeffs  []float64
	SARCoeffs []float64
	SMACoeffs []float64
	Intercept float64
	Variance  float64
	AIC       float64
	AICc      float64
	BIC       float64
	LogLik    float64

	fitted     bool
	data       *timeseries.Series
	diffChain  []*timeseries.Series // data after each differencing stage, original first
	residuals  []float64
	fittedVals []float64
}

// New creates a non-seasonal ARIMA(p,d,q) model.
func New(p, d, q int) *Model {
	return NewSeasonal(p, d, q, 0, 0, 0, 0)
}

// NewSeasonal creates an ARIMA(p,d,q)(sp,sd,sq)[m] model.
func NewSeasonal(p, d, q, sp, sd, sq, m int) *Model {
	return &Model{
		Order:     Order{P: p, D: d, Q: q, SP: sp, SD: sd, SQ: sq, M: m},
		ARCoeffs:  make([]float64, p),
		MACoeffs:  make([]float64, q),
		SARCoeffs: make([]float64, sp),
		SMACoeffs: make([]float64, sq),
	}
}

// Fit estimates the model on the series using conditional sum of squares.
func (m *Model) Fit(series *timeseries.Series) error {
	o := m.Order
	minLen := o.P + o.Q + o.D + (o.SP+o.SD+o.SQ)*o.M + 10
	if series.Len() < minLen {
		return fmt.Errorf("%s: %d observations, need %d: %w",
			o, series.Len(), minLen, timeseries.ErrInsufficientData)
	}

	m.data = series
	m.diffChain = []*timeseries.Series{series}

	diffSeries := series
	for i := 0; i < o.D; i++ {
		diffSeries = diffSeries.Diff()
		if diffSeries.Len() == 0 {
			return fmt.Errorf("%s: differencing emptied the series: %w", o, ErrNonConvergent)
		}
		m.diffChain = append(m.diffChain, diffSeries)
	}
	for i := 0; i < o.SD; i++ {
		diffSeries = diffSeries.SeasonalDiff(o.M)
		if diffSeries.Len() == 0 {
			return fmt.Errorf("%s: seasonal differencing emptied the series: %w", o, ErrNonConvergent)
		}
		m.diffChain = append(m.diffChain, diffSeries)
	}

	if err := m.fitCSS(); err != nil {
		return err
	}

	m.calculateIC()

	if !isFinite(m.Variance) || !isFinite(m.AIC) {
		return fmt.Errorf("%s: non-finite fit: %w", m.Order, ErrNonConvergent)
	}
	for _, c := range append(append([]float64{}, m.ARCoeffs...), m.MACoeffs...) {
		if !isFinite(c) {
			return fmt.Errorf("%s: non-finite coefficient: %w", m.Order, ErrNonConvergent)
		}
	}

	m.fitted = true
	return nil
}

// Fitted reports whether Fit completed successfully.
func (m *Model) Fitted() bool {
	return m.fitted
}

// fitCSS estimates coefficients by gradient descent on the conditional sum
// of squares, with momentum and a decaying learning rate.
func (m *Model) fitCSS() error {
	y := m.differenced().Values
	n := len(y)
	o := m.Order

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(n)
	m.Intercept = mean

	if o.P == 0 && o.Q == 0 && o.SP == 0 && o.SQ == 0 {
		m.residuals = make([]float64, n)
		m.fittedVals = make([]float64, n)
		sse := 0.0
		for i, v := range y {
			m.fittedVals[i] = mean
			m.residuals[i] = v - mean
			sse += m.residuals[i] * m.residuals[i]
		}
		if n > 1 {
			m.Variance = sse / float64(n-1)
		} else {
			m.Variance = sse
		}
		return nil
	}

	// Yule-Walker starting values for the AR part, small constants elsewhere.
	if o.P > 0 {
		if acf := stats.ACF(m.differenced(), o.P); acf != nil {
			if phi := yuleWalker(acf, o.P); phi != nil {
				copy(m.ARCoeffs, phi)
			}
		}
	}
	if o.SP > 0 {
		if acf := stats.ACF(m.differenced(), o.SP*o.M); acf != nil {
			for i := 0; i < o.SP; i++ {
				idx := (i + 1) * o.M
				if idx < len(acf) {
					m.SARCoeffs[i] = acf[idx] * 0.5
				}
			}
		}
	}
	for i := range m.MACoeffs {
		m.MACoeffs[i] = 0.1
	}
	for i := range m.SMACoeffs {
		m.SMACoeffs[i] = 0.1
	}

	maxIter := 200
	tolerance := 1e-8
	learningRate := 0.005
	momentum := 0.9
	decay := 0.99

	arMom := make([]float64, o.P)
	maMom := make([]float64, o.Q)
	sarMom := make([]float64, o.SP)
	smaMom := make([]float64, o.SQ)

	startIdx := maxInt(maxInt(o.P, o.Q), maxInt(o.SP*o.M, o.SQ*o.M))
	if startIdx >= n-10 {
		startIdx = 0
	}

	bestSSE := math.Inf(1)
	bestAR := make([]float64, o.P)
	bestMA := make([]float64, o.Q)
	bestSAR := make([]float64, o.SP)
	bestSMA := make([]float64, o.SQ)
	noImprove := 0

	for iter := 0; iter < maxIter; iter++ {
		residuals := make([]float64, n)
		currentSSE := 0.0
		for t := startIdx; t < n; t++ {
			residuals[t] = y[t] - m.predictOne(y, residuals, t)
			currentSSE += residuals[t] * residuals[t]
		}

		if currentSSE < bestSSE {
			bestSSE = currentSSE
			copy(bestAR, m.ARCoeffs)
			copy(bestMA, m.MACoeffs)
			copy(bestSAR, m.SARCoeffs)
			copy(bestSMA, m.SMACoeffs)
			noImprove = 0
		} else {
			noImprove++
		}
		if noImprove > 20 {
			break
		}

		arGrad := make([]float64, o.P)
		maGrad := make([]float64, o.Q)
		sarGrad := make([]float64, o.SP)
		smaGrad := make([]float64, o.SQ)

		for t := startIdx; t < n; t++ {
			for i := 0; i < o.P && t-i-1 >= 0; i++ {
				arGrad[i] -= 2 * residuals[t] * (y[t-i-1] - m.Intercept)
			}
			for i := 0; i < o.SP; i++ {
				lag := (i + 1) * o.M
				if t-lag >= 0 {
					sarGrad[i] -= 2 * residuals[t] * (y[t-lag] - m.Intercept)
				}
			}
			for i := 0; i < o.Q && t-i-1 >= 0; i++ {
				maGrad[i] -= 2 * residuals[t] * residuals[t-i-1]
			}
			for i := 0; i < o.SQ; i++ {
				lag := (i + 1) * o.M
				if t-lag >= 0 {
					smaGrad[i] -= 2 * residuals[t] * residuals[t-lag]
				}
			}
		}

		for i := 0; i < o.P; i++ {
			arMom[i] = momentum*arMom[i] + learningRate*arGrad[i]/float64(n)
			m.ARCoeffs[i] = clamp(m.ARCoeffs[i]-arMom[i], -0.99, 0.99)
		}
		for i := 0; i < o.SP; i++ {
			sarMom[i] = momentum*sarMom[i] + learningRate*sarGrad[i]/float64(n)
			m.SARCoeffs[i] = clamp(m.SARCoeffs[i]-sarMom[i], -0.99, 0.99)
		}
		for i := 0; i < o.Q; i++ {
			maMom[i] = momentum*maMom[i] + learningRate*maGrad[i]/float64(n)
			m.MACoeffs[i] = clamp(m.MACoeffs[i]-maMom[i], -0.99, 0.99)
		}
		for i := 0; i < o.SQ; i++ {
			smaMom[i] = momentum*smaMom[i] + learningRate*smaGrad[i]/float64(n)
			m.SMACoeffs[i] = clamp(m.SMACoeffs[i]-smaMom[i], -0.99, 0.99)
		}

		learningRate *= decay

		if iter > 0 && math.Abs(currentSSE-bestSSE) < tolerance {
			break
		}
	}

	copy(m.ARCoeffs, bestAR)
	copy(m.MACoeffs, bestMA)
	copy(m.SARCoeffs, bestSAR)
	copy(m.SMACoeffs, bestSMA)

	m.residuals = make([]float64, n)
	m.fittedVals = make([]float64, n)
	for t := 0; t < n; t++ {
		m.fittedVals[t] = m.predictOne(y, m.residuals, t)
		m.residuals[t] = y[t] - m.fittedVals[t]
	}

	sse := 0.0
	count := 0
	for t := startIdx; t < n; t++ {
		sse += m.residuals[t] * m.residuals[t]
		count++
	}
	if count > o.NumParams() {
		m.Variance = sse / float64(count-o.NumParams())
	} else if count > 0 {
		m.Variance = sse / float64(count)
	}

	return nil
}

// predictOne evaluates the one-step prediction at position t on the
// differenced scale, using history y and past residuals.
func (m *Model) predictOne(y, residuals []float64, t int) float64 {
	o := m.Order
	pred := m.Intercept

	for i := 0; i < o.P && t-i-1 >= 0; i++ {
		pred += m.ARCoeffs[i] * (y[t-i-1] - m.Intercept)
	}
	for i := 0; i < o.SP; i++ {
		lag := (i + 1) * o.M
		if t-lag >= 0 {
			pred += m.SARCoeffs[i] * (y[t-lag] - m.Intercept)
		}
	}
	for i := 0; i < o.Q && t-i-1 >= 0; i++ {
		pred += m.MACoeffs[i] * residuals[t-i-1]
	}
	for i := 0; i < o.SQ; i++ {
		lag := (i + 1) * o.M
		if t-lag >= 0 {
			pred += m.SMACoeffs[i] * residuals[t-lag]
		}
	}
	return pred
}

func (m *Model) differenced() *timeseries.Series {
	return m.diffChain[len(m.diffChain)-1]
}

// calculateIC calculates the information criteria assuming Gaussian errors.
func (m *Model) calculateIC() {
	n := len(m.residuals)
	k := m.Order.NumParams()

	sse := 0.0
	for _, r := range m.residuals {
		sse += r * r
	}

	if m.Variance > 0 {
		m.LogLik = -float64(n)/2*math.Log(2*math.Pi) -
			float64(n)/2*math.Log(m.Variance) - sse/(2*m.Variance)
	} else {
		m.LogLik = math.Inf(-1)
	}

	ic := stats.CalculateIC(m.LogLik, n, k)
	m.AIC = ic.AIC
	m.AICc = ic.AICc
	m.BIC = ic.BIC
}

// Residuals returns a copy of the model residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.residuals))
	copy(out, m.residuals)
	return out
}

// ResidualSeries returns the residuals as a series aligned to the
// differenced data, for diagnostic tests.
func (m *Model) ResidualSeries() *timeseries.Series {
	if !m.fitted {
		return nil
	}
	d := m.differenced()
	return &timeseries.Series{
		Name:       d.Name + "_resid",
		Freq:       d.Freq,
		Timestamps: d.Timestamps,
		Values:     m.Residuals(),
	}
}

// FittedValues returns a copy of the in-sample fitted values on the
// differenced scale.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	out := make([]float64, len(m.fittedVals))
	copy(out, m.fittedVals)
	return out
}

// yuleWalker estimates AR coefficients from the ACF via Levinson-Durbin.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	if order == 1 {
		return phi
	}

	v := 1 - phi[0]*phi[0]
	for i := 1; i < order; i++ {
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		newPhi := make([]float64, i+1)
		for j := 0; j < i; j++ {
			newPhi[j] = phi[j] - lambda*phi[i-1-j]
		}
		newPhi[i] = lambda
		copy(phi, newPhi)

		v *= 1 - lambda*lambda
		if v <= 0 {
			break
		}
	}
	return phi
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
