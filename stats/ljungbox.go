package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/gotrendfit/timeseries"
)

// LjungBoxResult represents the result of a Ljung-Box test.
type LjungBoxResult struct {
	Statistic float64
	PValue    float64
	Lags      int
	DOF       int // Degrees of freedom
}

// BoxPierceResult represents the result of a Box-Pierce test.
type BoxPierceResult LjungBoxResult

// LjungBox performs the Ljung-Box test for autocorrelation in residuals.
// The null hypothesis is that there is no autocorrelation up to lag h.
// fitdf is the number of parameters estimated in the model.
func LjungBox(series *timeseries.Series, lags, fitdf int) *LjungBoxResult {
	n := float64(series.Len())
	return portmanteau(series, lags, fitdf, func(k int, r float64) float64 {
		return n * (n + 2) * r * r / (n - float64(k))
	})
}

// BoxPierce performs the Box-Pierce test for autocorrelation.
func BoxPierce(series *timeseries.Series, lags, fitdf int) *BoxPierceResult {
	n := float64(series.Len())
	res := portmanteau(series, lags, fitdf, func(_ int, r float64) float64 {
		return n * r * r
	})
	return (*BoxPierceResult)(res)
}

// portmanteau sums term(k, acf[k]) over lags 1..lags. It returns nil for
// fewer than 10 observations or a constant series.
func portmanteau(series *timeseries.Series, lags, fitdf int, term func(k int, r float64) float64) *LjungBoxResult {
	n := series.Len()
	if n < 10 || lags < 1 {
		return nil
	}
	lags = min(lags, n-1)

	acf := ACF(series, lags)
	if acf == nil {
		return nil
	}

	q := 0.0
	for k := 1; k <= lags; k++ {
		q += term(k, acf[k])
	}
	dof := max(lags-fitdf, 1)

	return &LjungBoxResult{
		Statistic: q,
		PValue:    chiSquaredSF(q, dof),
		Lags:      lags,
		DOF:       dof,
	}
}

// chiSquaredSF is the survival function of the chi-squared distribution.
func chiSquaredSF(x float64, k int) float64 {
	if x < 0 {
		return 1
	}
	return distuv.ChiSquared{K: float64(k)}.Survival(x)
}

// DurbinWatsonResult represents the result of a Durbin-Watson test.
// A statistic near 2 means no first-order autocorrelation, below 2
// positive and above 2 negative autocorrelation.
type DurbinWatsonResult struct {
	Statistic float64
}

// DurbinWatson calculates the Durbin-Watson statistic of residuals.
func DurbinWatson(residuals []float64) *DurbinWatsonResult {
	n := len(residuals)
	if n < 2 {
		return nil
	}

	denominator := floats.Dot(residuals, residuals)
	if denominator == 0 {
		return nil
	}

	diff := make([]float64, n-1)
	floats.SubTo(diff, residuals[1:], residuals[:n-1])

	return &DurbinWatsonResult{
		Statistic: floats.Dot(diff, diff) / denominator,
	}
}
