package stats

import "math"

// InformationCriteria holds AIC, AICc and BIC for a fitted model.
type InformationCriteria struct {
	AIC    float64
	AICc   float64
	BIC    float64
	LogLik float64
}

// AICc calculates the corrected Akaike Information Criterion.
// AICc = AIC + 2(k)(k+1)/(n-k-1) where k is number of parameters.
func AICc(aic float64, nObs int, nParams int) float64 {
	k := float64(nParams)
	n := float64(nObs)

	if n-k-1 <= 0 {
		return math.Inf(1)
	}

	return aic + 2*k*(k+1)/(n-k-1)
}

// CalculateIC calculates all information criteria.
// logLik is the log-likelihood, nObs is the number of observations,
// nParams is the number of estimated parameters.
func CalculateIC(logLik float64, nObs int, nParams int) *InformationCriteria {
	k := float64(nParams)
	n := float64(nObs)

	aic := -2*logLik + 2*k

	return &InformationCriteria{
		AIC:    aic,
		AICc:   AICc(aic, nObs, nParams),
		BIC:    -2*logLik + k*math.Log(n),
		LogLik: logLik,
	}
}

// GaussianLogLik is the maximised log-likelihood of a least squares fit
// with n observations and sum of squared residuals ssr, the error
// variance being estimated as ssr/n.
func GaussianLogLik(ssr float64, n int) float64 {
	if n == 0 {
		return math.NaN()
	}
	if ssr <= 0 {
		return math.Inf(1)
	}
	nf := float64(n)
	return -nf / 2 * (math.Log(2*math.Pi) + math.Log(ssr/nf) + 1)
}
