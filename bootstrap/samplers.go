package bootstrap

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrNotPositiveDefinite is returned when a block correlation matrix has
// no Cholesky factorisation, which happens with repeated times and an
// autoregressive coefficient of 1.
var ErrNotPositiveDefinite = errors.New("block correlation matrix is not positive definite")

// ResidualResampling draws bootstrap errors by randomly permuting the
// residuals of the fitted model.
type ResidualResampling struct{}

// Name returns "residual_resampling".
func (ResidualResampling) Name() string { return "residual_resampling" }

// Errors returns a random permutation of residuals.
func (ResidualResampling) Errors(_, residuals []float64, rng *rand.Rand) ([]float64, error) {
	errs := append([]float64(nil), residuals...)
	rng.Shuffle(len(errs), func(i, j int) { errs[i], errs[j] = errs[j], errs[i] })
	return errs, nil
}

// DefaultBlockSize is the block length of BlockARWild.
const DefaultBlockSize = 500

// BlockARWild is a block autoregressive wild bootstrap. Errors are
// residuals multiplied by zero-mean Gaussian noise that is correlated in
// time as γ^|t_j - t_i|, so unevenly spaced samples are supported.
//
// The series is split into contiguous blocks of roughly BlockSize
// samples and the noise is generated independently per block. A block
// size at least the series length gives the full autoregressive wild
// bootstrap.
type BlockARWild struct {
	BlockSize int
	// ARCoef is γ. When nil it is derived from the series length by
	// DefaultARCoef.
	ARCoef *float64
}

// NewBlockARWildSampler returns a sampler with the default block size and
// automatic γ.
func NewBlockARWildSampler() *BlockARWild {
	return &BlockARWild{BlockSize: DefaultBlockSize}
}

// Name returns "block_ar_wild".
func (*BlockARWild) Name() string { return "block_ar_wild" }

// DefaultARCoef returns θ^(1/l) with θ = 0.01^(1/(1.75·n^(1/3))) and
// l = 1/365.25 (one day in decimal years).
func DefaultARCoef(n int) float64 {
	theta := math.Pow(0.01, 1/(1.75*math.Cbrt(float64(n))))
	l := 1 / 365.25
	return math.Pow(theta, 1/l)
}

// Gamma returns the autoregressive coefficient used for n samples.
func (b *BlockARWild) Gamma(n int) float64 {
	if b.ARCoef != nil {
		return *b.ARCoef
	}
	return DefaultARCoef(n)
}

// Errors returns block autocorrelated wild errors.
func (b *BlockARWild) Errors(t, residuals []float64, rng *rand.Rand) ([]float64, error) {
	n := len(residuals)
	if len(t) != n {
		return nil, fmt.Errorf("%d times for %d residuals", len(t), n)
	}
	gamma := b.Gamma(n)

	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
	iid := make([]float64, n)
	for i := range iid {
		iid[i] = norm.Rand()
	}

	blockSize := b.BlockSize
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}

	errs := make([]float64, 0, n)
	start := 0
	for _, size := range splitSizes(n, max(n/blockSize, 1)) {
		end := start + size
		block, err := arWildBlock(t[start:end], residuals[start:end], iid[start:end], gamma)
		if err != nil {
			return nil, err
		}
		errs = append(errs, block...)
		start = end
	}
	return errs, nil
}

// splitSizes returns the lengths of n items split into k contiguous
// parts: the first n%k parts hold one extra item.
func splitSizes(n, k int) []int {
	sizes := make([]int, k)
	for i := range sizes {
		sizes[i] = n / k
		if i < n%k {
			sizes[i]++
		}
	}
	return sizes
}

// arWildBlock returns (L·iid) ∘ residuals where L is the lower Cholesky
// factor of Σ_ij = γ^|t_j - t_i|.
func arWildBlock(t, residuals, iid []float64, gamma float64) ([]float64, error) {
	n := len(t)
	if n == 0 {
		return nil, nil
	}

	sigma := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sigma.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			sigma.SetSym(i, j, math.Pow(gamma, math.Abs(t[j]-t[i])))
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(sigma); !ok {
		return nil, ErrNotPositiveDefinite
	}
	var l mat.TriDense
	chol.LTo(&l)

	var corr mat.VecDense
	corr.MulVec(&l, mat.NewVecDense(n, append([]float64(nil), iid...)))

	out := make([]float64, n)
	for i := range out {
		out[i] = corr.AtVec(i) * residuals[i]
	}
	return out, nil
}
