package stats

import "math"

// InformationCriteria bundles the criteria used for model comparison.
type InformationCriteria struct {
	AIC    float64
	AICc   float64
	BIC    float64
	LogLik float64
}

// CalculateIC calculates AIC, small-sample corrected AICc, and BIC from a
// log-likelihood, observation count, and parameter count.
func CalculateIC(logLik float64, nObs, nParams int) *InformationCriteria {
	k := float64(nParams)
	n := float64(nObs)

	aic := -2*logLik + 2*k
	bic := -2*logLik + k*math.Log(n)

	aicc := math.Inf(1)
	if n-k-1 > 0 {
		aicc = aic + 2*k*(k+1)/(n-k-1)
	}

	return &InformationCriteria{
		AIC:    aic,
		AICc:   aicc,
		BIC:    bic,
		LogLik: logLik,
	}
}
