// Package gotrendfit provides trend analysis and fitting of atmospheric
// time series, with bootstrap confidence intervals on every fitted
// parameter.
//
// Times are decimal years. Models separate a long-term trend from the
// seasonal cycle, described by a Fourier series with a period of one
// year, and from the noise.
//
// # Features
//
//   - Linear models with Fourier seasonal terms, with or without trend
//   - Broken linear trend with the break estimated by dual annealing
//   - Non-parametric kernel (Nadaraya-Watson) trend
//   - Residual resampling and block autoregressive wild bootstrap
//   - Parallel bootstrap with results independent of the worker count
//   - Fourier order selection by AIC, AICc or BIC
//   - Residual diagnostics (ACF, Ljung-Box, Durbin-Watson)
//
// # Quick Start
//
// Fit a linear trend with a third order Fourier series:
//
//	series, _ := timeseries.LoadCSV("ethane.csv", nil)
//	model := models.NewLinearTrendFourier(3)
//	if err := model.Fit(series); err != nil {
//	    log.Fatal(err)
//	}
//	trend, _ := model.Parameters().Scalar(models.ParamTrend)
//
// Estimate confidence intervals with autocorrelated bootstrap errors:
//
//	est := bootstrap.NewBlockARWild(model, nil, &bootstrap.Options{Samples: 1000, Workers: 8})
//	if err := est.Fit(series); err != nil {
//	    log.Fatal(err)
//	}
//	ci, _ := est.CIBounds(0.95)
//
// # Packages
//
// The library is organized into the following packages:
//
//   - timeseries: Time series data structures and CSV input
//   - models: Trend models, fit summaries and order selection
//   - bootstrap: Bootstrap estimators and resampling methods
//   - anneal: Dual annealing for bounded global minimisation
//   - stats: Autocorrelation, residual tests, information criteria, quantiles
//
// The trendfit command in cmd/trendfit fits models to CSV files.
//
// # References
//
//   - Friedrich, M. et al. (2019). A simple and efficient method to
//     estimate trends of atmospheric trace gases, arXiv:1903.05403
//   - Xiang, Y. et al. (1997). Generalized simulated annealing algorithm
//     and its application to the Thomson model
package gotrendfit
