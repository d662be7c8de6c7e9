// Package models implements parametric and non-parametric trend models
// for atmospheric time series.
package models

import (
	"errors"
	"sort"

	"github.com/sartorproj/gotrendfit/timeseries"
)

var (
	// ErrNotFitted is returned when a model is used before Fit.
	ErrNotFitted = errors.New("model must be fitted first")
	// ErrRankDeficient is returned when the least squares system has no
	// unique solution.
	ErrRankDeficient = errors.New("least squares system is rank deficient")
	// ErrInsufficientData is returned when the series is too short for
	// the model.
	ErrInsufficientData = errors.New("insufficient data points for the model")
	// ErrInvalidKernel is returned for an unknown kernel name.
	ErrInvalidKernel = errors.New("invalid kernel")
	// ErrInvalidBandwidth is returned for a negative or non-finite bandwidth.
	ErrInvalidBandwidth = errors.New("invalid bandwidth")
)

// Parameter names shared by the models.
const (
	ParamFourierTerms = "fourier_terms"
	ParamIntercept    = "intercept"
	ParamTrend        = "trend"
	ParamTrendChange  = "trend_change"
	ParamTBreak       = "t_break"
	ParamBandwidth    = "bandwidth"
)

// Parameters maps a parameter name to its value. Scalars are stored as
// one-element slices.
type Parameters map[string][]float64

// Clone returns a deep copy of p.
func (p Parameters) Clone() Parameters {
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = append([]float64(nil), v...)
	}
	return out
}

// Scalar returns the first element of the named parameter.
func (p Parameters) Scalar(name string) (float64, bool) {
	v, ok := p[name]
	if !ok || len(v) == 0 {
		return 0, false
	}
	return v[0], true
}

// Names returns the parameter names in lexical order.
func (p Parameters) Names() []string {
	names := make([]string, 0, len(p))
	for k := range p {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Estimator is a trend model that can be fitted to a series and used
// for prediction.
type Estimator interface {
	// Name identifies the model kind.
	Name() string
	// Fit estimates the model parameters from series.
	Fit(series *timeseries.Series) error
	// Predict evaluates the fitted model at times t.
	Predict(t []float64) ([]float64, error)
	// Parameters returns a copy of the fitted parameters.
	Parameters() Parameters
	// Residuals returns observed minus fitted values.
	Residuals() []float64
	// FittedValues returns the model evaluated at the training times.
	FittedValues() []float64
	// Series returns the training series.
	Series() *timeseries.Series
	// Fitted reports whether Fit succeeded.
	Fitted() bool
	// Clone returns an independent copy with the same configuration and
	// state, suitable for refitting.
	Clone() Estimator
}

// base holds the state shared by every estimator.
type base struct {
	params     Parameters
	data       *timeseries.Series
	fittedVals []float64
	residuals  []float64
	fitted     bool
}

// fit validates the series, stores it and runs fitFn then predictFn on
// the training times.
func (b *base) fit(series *timeseries.Series, minObs int, fitFn func(t, y []float64) error, predictFn func(t []float64) []float64) error {
	b.fitted = false
	if err := series.Validate(); err != nil {
		return err
	}
	if series.Len() < minObs {
		return ErrInsufficientData
	}

	b.data = series.Copy()
	t, y := b.data.Times, b.data.Values

	if err := fitFn(t, y); err != nil {
		return err
	}

	b.fittedVals = predictFn(t)
	b.residuals = make([]float64, len(y))
	for i := range y {
		b.residuals[i] = y[i] - b.fittedVals[i]
	}
	b.fitted = true
	return nil
}

func (b *base) clone() base {
	c := base{
		params:     b.params.Clone(),
		fittedVals: append([]float64(nil), b.fittedVals...),
		residuals:  append([]float64(nil), b.residuals...),
		fitted:     b.fitted,
	}
	if b.data != nil {
		c.data = b.data.Copy()
	}
	return c
}

// Parameters returns a copy of the fitted parameters.
func (b *base) Parameters() Parameters {
	return b.params.Clone()
}

// Residuals returns the model residuals.
func (b *base) Residuals() []float64 {
	if !b.fitted {
		return nil
	}
	return append([]float64(nil), b.residuals...)
}

// FittedValues returns the fitted values.
func (b *base) FittedValues() []float64 {
	if !b.fitted {
		return nil
	}
	return append([]float64(nil), b.fittedVals...)
}

// Series returns the training series.
func (b *base) Series() *timeseries.Series {
	return b.data
}

// Fitted reports whether the model has been fitted.
func (b *base) Fitted() bool {
	return b.fitted
}
