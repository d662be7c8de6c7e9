package stats

import (
	"math"
	"sort"
)

// Quantile returns the p-quantile of data using linear interpolation
// between closest ranks (position p*(n-1) in the sorted data). This is
// the default method of numpy.quantile. data is not modified. NaN is
// returned for empty data, data containing NaN or p outside [0, 1].
func Quantile(p float64, data []float64) float64 {
	if len(data) == 0 || p < 0 || p > 1 || math.IsNaN(p) || hasNaN(data) {
		return math.NaN()
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	return quantileSorted(p, sorted)
}

// Quantiles returns several quantiles of data, sorting it only once.
// Every quantile is NaN when data is empty or contains NaN.
func Quantiles(ps []float64, data []float64) []float64 {
	out := make([]float64, len(ps))
	if len(data) == 0 || hasNaN(data) {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	for i, p := range ps {
		if p < 0 || p > 1 || math.IsNaN(p) {
			out[i] = math.NaN()
			continue
		}
		out[i] = quantileSorted(p, sorted)
	}
	return out
}

func quantileSorted(p float64, sorted []float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

func hasNaN(data []float64) bool {
	for _, v := range data {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
