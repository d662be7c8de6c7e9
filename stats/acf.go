package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/sartorproj/gotrendfit/timeseries"
)

// ACF calculates the Autocorrelation Function for the given series.
// Returns ACF values for lags 0 to maxLag, or nil for a constant series.
func ACF(series *timeseries.Series, maxLag int) []float64 {
	n := series.Len()
	if maxLag >= n {
		maxLag = n - 1
	}
	if maxLag < 0 {
		return nil
	}

	centered := make([]float64, n)
	copy(centered, series.Values)
	floats.AddConst(-series.Mean(), centered)

	variance := floats.Dot(centered, centered)
	if variance == 0 {
		return nil
	}

	acf := make([]float64, maxLag+1)
	for k := 0; k <= maxLag; k++ {
		acf[k] = floats.Dot(centered[k:], centered[:n-k]) / variance
	}

	return acf
}

// ACFResult represents the result of ACF analysis.
type ACFResult struct {
	Lags       []int
	Values     []float64
	ConfBounds float64 // 95% confidence bounds (±1.96/sqrt(n))
}

// ACFWithConfidence calculates ACF with confidence bounds.
func ACFWithConfidence(series *timeseries.Series, maxLag int) *ACFResult {
	acf := ACF(series, maxLag)
	if acf == nil {
		return nil
	}

	lags := make([]int, len(acf))
	for i := range lags {
		lags[i] = i
	}

	return &ACFResult{
		Lags:       lags,
		Values:     acf,
		ConfBounds: 1.96 / math.Sqrt(float64(series.Len())),
	}
}

// SignificantLags returns the lags where ACF values exceed confidence bounds.
func SignificantLags(values []float64, confBound float64) []int {
	var significant []int
	for i := 1; i < len(values); i++ { // Skip lag 0
		if math.Abs(values[i]) > confBound {
			significant = append(significant, i)
		}
	}
	return significant
}
