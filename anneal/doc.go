// Package anneal implements dual annealing for bounded global
// minimisation.
//
// The search combines generalised simulated annealing (a Tsallis
// visiting distribution with a generalised Metropolis acceptance rule)
// with local Nelder-Mead refinement from gonum/optimize. It is suited to
// low-dimensional, non-smooth objectives such as the residual sum of
// squares of a regression as a function of a breakpoint location.
//
//	res, err := anneal.Minimize(f, []anneal.Bound{{Lower: 1990, Upper: 2020}}, &anneal.Settings{
//	    MaxIter: 500,
//	    Seed:    1,
//	})
//
// Objectives may return +Inf at infeasible points. Out-of-bounds trial
// points are wrapped back into the search box.
package anneal
