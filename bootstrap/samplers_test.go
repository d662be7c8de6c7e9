package bootstrap

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"golang.org/x/exp/rand"
)

func TestSplitSizes(t *testing.T) {
	tests := []struct {
		n, k int
		want []int
	}{
		{10, 3, []int{4, 3, 3}},
		{9, 3, []int{3, 3, 3}},
		{1001, 2, []int{501, 500}},
		{5, 1, []int{5}},
		{11, 4, []int{3, 3, 3, 2}},
	}

	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, splitSizes(tt.n, tt.k)); diff != "" {
			t.Errorf("splitSizes(%d, %d) mismatch:\n%s", tt.n, tt.k, diff)
		}
	}
}

func TestDefaultARCoef(t *testing.T) {
	for _, n := range []int{10, 120, 5000} {
		theta := math.Pow(0.01, 1/(1.75*math.Pow(float64(n), 1.0/3)))
		want := math.Pow(theta, 365.25)
		if got := DefaultARCoef(n); math.Abs(got-want) > 1e-12*math.Max(want, 1e-300) {
			t.Errorf("DefaultARCoef(%d) = %g, want %g", n, got, want)
		}
	}
	// Larger series give a stronger autocorrelation.
	if DefaultARCoef(100000) <= DefaultARCoef(100) {
		t.Error("Expected γ to increase with the series length")
	}

	b := NewBlockARWildSampler()
	if b.Gamma(120) != DefaultARCoef(120) {
		t.Error("Gamma should default to DefaultARCoef")
	}
	g := 0.3
	b.ARCoef = &g
	if b.Gamma(120) != 0.3 {
		t.Errorf("Expected explicit γ 0.3, got %f", b.Gamma(120))
	}
}

func TestBlockARWildZeroGammaIsWild(t *testing.T) {
	// With γ = 0 the correlation matrix is the identity and the errors
	// are iid standard normal draws times the residuals.
	n := 50
	times := make([]float64, n)
	resid := make([]float64, n)
	for i := range times {
		times[i] = float64(i) / 12
		resid[i] = float64(i%7) - 3
	}

	gamma := 0.0
	b := &BlockARWild{BlockSize: 20, ARCoef: &gamma}
	errs, err := b.Errors(times, resid, rand.New(rand.NewSource(11)))
	if err != nil {
		t.Fatal(err)
	}

	rng := rand.New(rand.NewSource(11))
	want := make([]float64, n)
	for i := range want {
		want[i] = rng.NormFloat64() * resid[i]
	}
	if diff := cmp.Diff(want, errs, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Errors mismatch with γ = 0:\n%s", diff)
	}
}

func TestARWildBlockCorrelation(t *testing.T) {
	// For two points L = [[1, 0], [γ^Δ, sqrt(1-γ^2Δ)]].
	gamma := 0.5
	times := []float64{0, 2}
	resid := []float64{2, 3}
	iid := []float64{1, 1}

	got, err := arWildBlock(times, resid, iid, gamma)
	if err != nil {
		t.Fatal(err)
	}
	rho := math.Pow(gamma, 2)
	want := []float64{2, 3 * (rho + math.Sqrt(1-rho*rho))}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Block errors mismatch:\n%s", diff)
	}
}

func TestBlockARWildRepeatedTimes(t *testing.T) {
	gamma := 1.0
	b := &BlockARWild{BlockSize: 10, ARCoef: &gamma}
	_, err := b.Errors([]float64{0, 0, 1}, []float64{1, 1, 1}, rand.New(rand.NewSource(1)))
	if !errors.Is(err, ErrNotPositiveDefinite) {
		t.Errorf("Expected ErrNotPositiveDefinite, got %v", err)
	}
}

func TestBlockARWildLengthMismatch(t *testing.T) {
	b := NewBlockARWildSampler()
	if _, err := b.Errors([]float64{0, 1}, []float64{1}, rand.New(rand.NewSource(1))); err == nil {
		t.Error("Expected error for mismatched lengths")
	}
}

func TestResidualResamplingErrors(t *testing.T) {
	resid := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	errs, err := ResidualResampling{}.Errors(nil, resid, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[float64]int)
	for _, e := range errs {
		seen[e]++
	}
	for _, r := range resid {
		if seen[r] != 1 {
			t.Errorf("Residual %v appears %d times in the sample", r, seen[r])
		}
	}
	if resid[0] != 1 || resid[7] != 8 {
		t.Error("Residuals were modified in place")
	}
}
