package models

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const machEps = 2.220446049250313e-16

// lstsq solves min ||x·beta - y|| and returns beta and the residual sum
// of squares. The rank is taken from the singular values with cutoff
// max(n, p)·eps·σmax; systems with n <= p or rank < p are rejected since
// they have no residual sum of squares to minimise.
func lstsq(x *mat.Dense, y []float64) ([]float64, float64, error) {
	n, p := x.Dims()
	if n <= p {
		return nil, math.Inf(1), ErrInsufficientData
	}

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDNone) {
		return nil, math.Inf(1), ErrRankDeficient
	}
	sv := svd.Values(nil)
	tol := float64(max(n, p)) * machEps * sv[0]
	rank := 0
	for _, s := range sv {
		if s > tol {
			rank++
		}
	}
	if rank < p {
		return nil, math.Inf(1), ErrRankDeficient
	}

	var beta mat.VecDense
	if err := beta.SolveVec(x, mat.NewVecDense(n, y)); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, math.Inf(1), err
		}
	}

	var fit mat.VecDense
	fit.MulVec(x, &beta)
	resid := make([]float64, n)
	floats.SubTo(resid, y, fit.RawVector().Data)

	return mat.Col(nil, 0, &beta), floats.Dot(resid, resid), nil
}
