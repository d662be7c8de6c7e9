// Package stats provides statistical helpers for trend fitting.
//
// It covers residual diagnostics, information criteria and the
// quantiles used to turn bootstrap distributions into confidence
// intervals.
//
// # Residual Diagnostics
//
//	acf := stats.ACF(residuals, 20)
//	lb := stats.LjungBox(residuals, 10, nParams)
//	if lb.PValue < 0.05 {
//	    // residuals are autocorrelated, prefer a block AR wild bootstrap
//	}
//	dw := stats.DurbinWatson(residuals.Values)
//
// # Information Criteria
//
//	ll := stats.GaussianLogLik(ssr, n)
//	ic := stats.CalculateIC(ll, n, k)
//
// # Quantiles
//
// Quantile uses linear interpolation between closest ranks:
//
//	lo := stats.Quantile(0.025, dist)
//	hi := stats.Quantile(0.975, dist)
package stats
