package models

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/sartorproj/gotrendfit/timeseries"
)

// monthlyTimes returns n times spaced 1/12 apart starting at start.
func monthlyTimes(start float64, n int) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = start + float64(i)/12
	}
	return t
}

func seasonal(t float64) float64 {
	return 0.3*math.Cos(2*math.Pi*t) + 0.1*math.Sin(2*math.Pi*t) + 0.05*math.Cos(4*math.Pi*t)
}

// synthetic evaluates f at times and adds Gaussian noise of the given
// standard deviation.
func synthetic(times []float64, f func(float64) float64, sigma float64, seed uint64) *timeseries.Series {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, len(times))
	for i, t := range times {
		values[i] = f(t) + sigma*rng.NormFloat64()
	}
	s, _ := timeseries.NewWithTimes(times, values)
	return s
}
