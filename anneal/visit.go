package anneal

import (
	"math"

	"golang.org/x/exp/rand"
)

// visitor draws trial points from the distorted Cauchy-Lorentz
// (Tsallis) visiting distribution and wraps them back into the bounds.
type visitor struct {
	qv     float64
	rng    *rand.Rand
	lower  []float64
	width  []float64
	f4p    float64
	f6     float64
	expDen float64
}

func newVisitor(qv float64, bounds []Bound, rng *rand.Rand) *visitor {
	v := &visitor{
		qv:    qv,
		rng:   rng,
		lower: make([]float64, len(bounds)),
		width: make([]float64, len(bounds)),
	}
	for i, b := range bounds {
		v.lower[i] = b.Lower
		v.width[i] = b.Upper - b.Lower
	}

	f2 := math.Exp((4 - qv) * math.Log(qv-1))
	f3 := math.Exp((2 - qv) * math.Log(2) / (qv - 1))
	v.f4p = math.Sqrt(math.Pi) * f2 / (f3 * (3 - qv))
	f5 := 1/(qv-1) - 0.5
	d1 := 2 - f5
	lg, _ := math.Lgamma(d1)
	v.f6 = math.Pi * (1 - f5) / math.Sin(math.Pi*(1-f5)) / math.Exp(lg)
	v.expDen = (qv - 1) / (3 - qv)
	return v
}

// steps returns n visiting steps at the given temperature.
func (v *visitor) steps(temperature float64, n int) []float64 {
	f1 := math.Exp(math.Log(temperature) / (v.qv - 1))
	f4 := v.f4p * f1
	scale := math.Exp(-(v.qv - 1) * math.Log(v.f6/f4) / (3 - v.qv))

	out := make([]float64, n)
	for i := range out {
		x := v.rng.NormFloat64() * scale
		y := v.rng.NormFloat64()
		out[i] = v.clip(x / math.Exp(v.expDen*math.Log(math.Abs(y))))
	}
	return out
}

func (v *visitor) clip(step float64) float64 {
	switch {
	case step > tailLimit:
		return tailLimit * v.rng.Float64()
	case step < -tailLimit:
		return -tailLimit * v.rng.Float64()
	case math.IsNaN(step):
		return 0
	}
	return step
}

// visit returns a trial point. For j below the dimension all
// coordinates move; above it only coordinate j-dim moves.
func (v *visitor) visit(x []float64, j int, temperature float64) []float64 {
	dim := len(x)
	out := append([]float64(nil), x...)
	if j < dim {
		st := v.steps(temperature, dim)
		for i := range out {
			out[i] = v.wrap(x[i]+st[i], i)
		}
		return out
	}
	i := j - dim
	out[i] = v.wrap(x[i]+v.steps(temperature, 1)[0], i)
	return out
}

func (v *visitor) wrap(x float64, i int) float64 {
	a := x - v.lower[i]
	b := math.Mod(a, v.width[i]) + v.width[i]
	x = math.Mod(b, v.width[i]) + v.lower[i]
	if math.Abs(x-v.lower[i]) < minVisitBound {
		x += minVisitBound
	}
	return x
}
