package models

import (
	"fmt"
	"math"
	"strings"

	"github.com/sartorproj/gotrendfit/stats"
	"github.com/sartorproj/gotrendfit/timeseries"
)

// LeastSquares is implemented by the models fitted by ordinary least
// squares.
type LeastSquares interface {
	Estimator
	Order() int
	SSR() float64
	NumRegressors() int
}

// NumParams returns the number of estimated parameters of a least
// squares model, counting an estimated trend break.
func NumParams(m LeastSquares) int {
	k := m.NumRegressors()
	if b, ok := m.(*LinearBrokenTrendFourier); ok && b.EstimatesBreak() {
		k++
	}
	return k
}

// InformationCriteria returns AIC, AICc and BIC of a fitted least
// squares model under Gaussian errors.
func InformationCriteria(m LeastSquares) (*stats.InformationCriteria, error) {
	if !m.Fitted() {
		return nil, ErrNotFitted
	}
	n := m.Series().Len()
	return stats.CalculateIC(stats.GaussianLogLik(m.SSR(), n), n, NumParams(m)), nil
}

// Summary describes the goodness of fit of a fitted model.
type Summary struct {
	Model        string
	NObs         int
	SSR          float64
	RMSE         float64
	R2           float64
	Parameters   Parameters
	IC           *stats.InformationCriteria
	LjungBox     *stats.LjungBoxResult
	DurbinWatson *stats.DurbinWatsonResult
	ACFLags      []int // Residual autocorrelation lags outside the 95% bounds
}

// Summarize returns a summary of the fitted model.
func Summarize(m Estimator) (*Summary, error) {
	if !m.Fitted() {
		return nil, ErrNotFitted
	}

	resid := m.Residuals()
	y := m.Series()
	n := len(resid)

	ssr := 0.0
	valid := 0
	for _, r := range resid {
		if !math.IsNaN(r) {
			ssr += r * r
			valid++
		}
	}

	mean := y.Mean()
	sst := 0.0
	for _, v := range y.Values {
		sst += (v - mean) * (v - mean)
	}

	s := &Summary{
		Model:      m.Name(),
		NObs:       n,
		SSR:        ssr,
		RMSE:       math.Sqrt(ssr / float64(max(valid, 1))),
		R2:         math.NaN(),
		Parameters: m.Parameters(),
	}
	if sst > 0 {
		s.R2 = 1 - ssr/sst
	}

	fitdf := 0
	if ls, ok := m.(LeastSquares); ok {
		fitdf = NumParams(ls)
		ic, err := InformationCriteria(ls)
		if err != nil {
			return nil, err
		}
		s.IC = ic
	}

	residSeries := &timeseries.Series{Times: y.Times, Values: resid}
	s.LjungBox = stats.LjungBox(residSeries, min(10, n-1), fitdf)
	s.DurbinWatson = stats.DurbinWatson(resid)
	if acf := stats.ACFWithConfidence(residSeries, min(20, n-1)); acf != nil {
		s.ACFLags = stats.SignificantLags(acf.Values, acf.ConfBounds)
	}

	return s, nil
}

// String formats the summary for terminal output.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Model: %s\n", s.Model)
	fmt.Fprintf(&b, "Observations: %d\n", s.NObs)
	fmt.Fprintf(&b, "SSR: %.6g  RMSE: %.6g  R²: %.4f\n", s.SSR, s.RMSE, s.R2)
	if s.IC != nil {
		fmt.Fprintf(&b, "AIC: %.4f  AICc: %.4f  BIC: %.4f\n", s.IC.AIC, s.IC.AICc, s.IC.BIC)
	}
	for _, name := range s.Parameters.Names() {
		v := s.Parameters[name]
		if len(v) > 8 {
			fmt.Fprintf(&b, "  %-14s [%d values]\n", name, len(v))
			continue
		}
		fmt.Fprintf(&b, "  %-14s %v\n", name, v)
	}
	if s.LjungBox != nil {
		fmt.Fprintf(&b, "Ljung-Box Q(%d): %.4f  p=%.4f\n", s.LjungBox.Lags, s.LjungBox.Statistic, s.LjungBox.PValue)
	}
	if s.DurbinWatson != nil {
		fmt.Fprintf(&b, "Durbin-Watson: %.4f\n", s.DurbinWatson.Statistic)
	}
	return b.String()
}
