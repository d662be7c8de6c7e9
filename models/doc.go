// Package models implements trend models for atmospheric time series.
//
// Times are decimal years, so the Fourier terms cos(2jπt) and sin(2jπt)
// describe a seasonal cycle with a period of one year.
//
// # Linear Models
//
// Three ordinary least squares models share the same seasonal terms:
//
//   - LinearNoTrendFourier: y = α + F(t)
//   - LinearTrendFourier: y = α + βt + F(t)
//   - LinearBrokenTrendFourier: y = α + βt + δ·max(t - T1, 0) + F(t)
//
// The break T1 is either given with WithBreak or estimated by dual
// annealing on the residual sum of squares:
//
//	model := models.NewLinearBrokenTrendFourier(3)
//	if err := model.Fit(series); err != nil {
//	    log.Fatal(err)
//	}
//	tBreak, _ := model.Parameters().Scalar(models.ParamTBreak)
//
// # Kernel Trend
//
// KernelTrend is a local constant kernel regression with a bandwidth
// expressed on the series' scaled [0, 1] time axis:
//
//	model, err := models.NewKernelTrend("epanechnikov", 0.1)
//
// # Diagnostics and Order Selection
//
// Summarize reports fit statistics and residual diagnostics.
// SelectFourierOrder picks the Fourier order by AIC, AICc or BIC:
//
//	sel, err := models.SelectFourierOrder(series, func(order int) models.LeastSquares {
//	    return models.NewLinearTrendFourier(order)
//	}, 6, models.CriterionBIC)
package models
