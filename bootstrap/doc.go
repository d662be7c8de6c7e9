// Package bootstrap estimates confidence intervals of trend model
// parameters by refitting the model on bootstrap samples.
//
// A sample is the model's fitted values plus errors generated from its
// residuals. Two resampling methods are provided:
//
//   - ResidualResampling permutes the residuals.
//   - BlockARWild multiplies the residuals by autocorrelated Gaussian
//     noise, generated independently on contiguous blocks.
//
// Samples are independent and can be fitted concurrently:
//
//	est := bootstrap.NewResidualResampling(models.NewLinearTrendFourier(3), &bootstrap.Options{
//	    Samples: 1000,
//	    Seed:    1,
//	    Workers: runtime.NumCPU(),
//	})
//	if err := est.Fit(series); err != nil {
//	    log.Fatal(err)
//	}
//	ci, _ := est.CIBounds(0.95)
//	fmt.Println(ci[models.ParamTrend].Lower, ci[models.ParamTrend].Upper)
//
// Results depend only on Seed, not on Workers.
package bootstrap
