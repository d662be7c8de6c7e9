package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/sartorproj/gotrendfit/anneal"
	"github.com/sartorproj/gotrendfit/timeseries"
)

// DefaultFourierOrder is the order of the truncated Fourier series used
// when none is given.
const DefaultFourierOrder = 3

// DefaultBreakMaxIter is the annealing iteration budget used to locate
// an unknown trend break.
const DefaultBreakMaxIter = 500

// term locates one named parameter in the regressor columns.
type term struct {
	name       string
	start, end int
}

// linear is the ordinary least squares core shared by the Fourier models.
//
// Columns are ordered: Fourier terms (cos, sin per degree), intercept,
// trend, trend change.
type linear struct {
	base
	order  int
	trend  bool
	broken bool
	ssr    float64
}

func newLinear(order int, trend, broken bool) linear {
	if order < 0 {
		order = 0
	}
	l := linear{order: order, trend: trend, broken: broken, ssr: math.NaN()}
	l.params = Parameters{
		ParamFourierTerms: nil,
		ParamIntercept:    nil,
	}
	if trend {
		l.params[ParamTrend] = nil
	}
	if broken {
		l.params[ParamTrendChange] = nil
	}
	return l
}

// Order returns the order of the Fourier series.
func (l *linear) Order() int {
	return l.order
}

// SSR returns the residual sum of squares of the last least squares fit.
func (l *linear) SSR() float64 {
	return l.ssr
}

// NumRegressors returns the number of design matrix columns.
func (l *linear) NumRegressors() int {
	k := 2*l.order + 1
	if l.trend {
		k++
	}
	if l.broken {
		k++
	}
	return k
}

func (l *linear) terms() []term {
	f := 2 * l.order
	terms := []term{
		{ParamFourierTerms, 0, f},
		{ParamIntercept, f, f + 1},
	}
	next := f + 1
	if l.trend {
		terms = append(terms, term{ParamTrend, next, next + 1})
		next++
	}
	if l.broken {
		terms = append(terms, term{ParamTrendChange, next, next + 1})
	}
	return terms
}

// design builds the regressor matrix at times t. tBreak is ignored for
// models without a trend break.
func (l *linear) design(t []float64, tBreak float64) *mat.Dense {
	n := len(t)
	k := l.NumRegressors()
	x := mat.NewDense(n, k, nil)

	for i, ti := range t {
		col := 0
		for deg := 1; deg <= l.order; deg++ {
			arg := 2 * float64(deg) * math.Pi * ti
			x.Set(i, col, math.Cos(arg))
			x.Set(i, col+1, math.Sin(arg))
			col += 2
		}
		x.Set(i, col, 1)
		col++
		if l.trend {
			x.Set(i, col, ti)
			col++
		}
		if l.broken {
			if ti > tBreak {
				x.Set(i, col, ti-tBreak)
			}
		}
	}
	return x
}

// solve fits the least squares system at tBreak and stores the
// coefficients.
func (l *linear) solve(t, y []float64, tBreak float64) error {
	beta, ssr, err := lstsq(l.design(t, tBreak), y)
	if err != nil {
		return err
	}
	for _, tm := range l.terms() {
		l.params[tm.name] = append([]float64{}, beta[tm.start:tm.end]...)
	}
	l.ssr = ssr
	return nil
}

// evaluate computes design(t)·beta from the stored coefficients.
func (l *linear) evaluate(t []float64, tBreak float64) []float64 {
	if len(t) == 0 {
		return []float64{}
	}
	beta := make([]float64, l.NumRegressors())
	for _, tm := range l.terms() {
		copy(beta[tm.start:tm.end], l.params[tm.name])
	}

	var out mat.VecDense
	out.MulVec(l.design(t, tBreak), mat.NewVecDense(len(beta), beta))
	return mat.Col(nil, 0, &out)
}

func (l *linear) cloneLinear() linear {
	c := *l
	c.base = l.base.clone()
	return c
}

// LinearNoTrendFourier is a linear regression on an intercept and
// Fourier terms, assuming no trend:
//
//	y_t = α + F_t + ε_t
//	F_t = Σ_{j=1..M} a_j cos(2jπt) + b_j sin(2jπt)
//
// fitted by ordinary least squares.
type LinearNoTrendFourier struct {
	linear
}

// NewLinearNoTrendFourier creates the model with a Fourier series of the
// given order. Order 0 removes the periodic terms.
func NewLinearNoTrendFourier(order int) *LinearNoTrendFourier {
	return &LinearNoTrendFourier{linear: newLinear(order, false, false)}
}

// Name returns the model kind.
func (m *LinearNoTrendFourier) Name() string { return "linear_no_trend_fourier" }

// Fit fits the model by ordinary least squares.
func (m *LinearNoTrendFourier) Fit(series *timeseries.Series) error {
	return m.fit(series, m.NumRegressors()+1,
		func(t, y []float64) error { return m.solve(t, y, 0) },
		func(t []float64) []float64 { return m.evaluate(t, 0) })
}

// Predict evaluates the fitted model at times t.
func (m *LinearNoTrendFourier) Predict(t []float64) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	return m.evaluate(t, 0), nil
}

// Clone returns an independent copy of the model.
func (m *LinearNoTrendFourier) Clone() Estimator {
	return &LinearNoTrendFourier{linear: m.cloneLinear()}
}

// LinearTrendFourier adds a single linear trend:
//
//	y_t = α + βt + F_t + ε_t
type LinearTrendFourier struct {
	linear
}

// NewLinearTrendFourier creates the model with a Fourier series of the
// given order.
func NewLinearTrendFourier(order int) *LinearTrendFourier {
	return &LinearTrendFourier{linear: newLinear(order, true, false)}
}

// Name returns the model kind.
func (m *LinearTrendFourier) Name() string { return "linear_trend_fourier" }

// Fit fits the model by ordinary least squares.
func (m *LinearTrendFourier) Fit(series *timeseries.Series) error {
	return m.fit(series, m.NumRegressors()+1,
		func(t, y []float64) error { return m.solve(t, y, 0) },
		func(t []float64) []float64 { return m.evaluate(t, 0) })
}

// Predict evaluates the fitted model at times t.
func (m *LinearTrendFourier) Predict(t []float64) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	return m.evaluate(t, 0), nil
}

// Clone returns an independent copy of the model.
func (m *LinearTrendFourier) Clone() Estimator {
	return &LinearTrendFourier{linear: m.cloneLinear()}
}

// LinearBrokenTrendFourier allows a sudden change of slope at T1:
//
//	y_t = α + βt + δ·D(t, T1) + F_t + ε_t
//	D(t, T1) = t - T1 if t > T1, else 0
//
// When T1 is known the model is fitted by ordinary least squares.
// Otherwise T1 is estimated by dual annealing, minimising the residual
// sum of squares of the least squares fit (Friedrich et al., 2019,
// arXiv:1903.05403).
type LinearBrokenTrendFourier struct {
	linear

	fixedBreak bool
	tBreak     float64
	bounds     *anneal.Bound
	settings   anneal.Settings
	search     *anneal.Result
}

// BrokenTrendOption configures a LinearBrokenTrendFourier.
type BrokenTrendOption func(*LinearBrokenTrendFourier)

// WithBreak fixes the break location instead of estimating it.
func WithBreak(tBreak float64) BrokenTrendOption {
	return func(m *LinearBrokenTrendFourier) {
		m.fixedBreak = true
		m.tBreak = tBreak
	}
}

// WithSearchBounds restricts the break search to [lower, upper]. The
// default is from the second to the last observation time.
func WithSearchBounds(lower, upper float64) BrokenTrendOption {
	return func(m *LinearBrokenTrendFourier) {
		m.bounds = &anneal.Bound{Lower: lower, Upper: upper}
	}
}

// WithAnnealSettings overrides the annealing settings of the break
// search. Zero fields keep their defaults; MaxIter defaults to
// DefaultBreakMaxIter.
func WithAnnealSettings(s anneal.Settings) BrokenTrendOption {
	return func(m *LinearBrokenTrendFourier) {
		if s.MaxIter == 0 {
			s.MaxIter = DefaultBreakMaxIter
		}
		m.settings = s
	}
}

// NewLinearBrokenTrendFourier creates the model with a Fourier series of
// the given order.
func NewLinearBrokenTrendFourier(order int, opts ...BrokenTrendOption) *LinearBrokenTrendFourier {
	m := &LinearBrokenTrendFourier{
		linear:   newLinear(order, true, true),
		tBreak:   math.NaN(),
		settings: anneal.Settings{MaxIter: DefaultBreakMaxIter},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fixedBreak {
		m.params[ParamTBreak] = []float64{m.tBreak}
	} else {
		m.params[ParamTBreak] = nil
	}
	return m
}

// Name returns the model kind.
func (m *LinearBrokenTrendFourier) Name() string { return "linear_broken_trend_fourier" }

// EstimatesBreak reports whether the break location is fitted.
func (m *LinearBrokenTrendFourier) EstimatesBreak() bool {
	return !m.fixedBreak
}

// BreakSearch returns the annealing result of the last fit, or nil when
// the break location was fixed.
func (m *LinearBrokenTrendFourier) BreakSearch() *anneal.Result {
	return m.search
}

// Fit fits the model, estimating the break location first if needed.
func (m *LinearBrokenTrendFourier) Fit(series *timeseries.Series) error {
	return m.fit(series, m.NumRegressors()+1, m.fitBreak,
		func(t []float64) []float64 { return m.evaluate(t, m.tBreak) })
}

func (m *LinearBrokenTrendFourier) fitBreak(t, y []float64) error {
	m.search = nil
	if !m.fixedBreak {
		bound := anneal.Bound{Lower: t[1], Upper: t[len(t)-1]}
		if m.bounds != nil {
			bound = *m.bounds
		}

		objective := func(x []float64) float64 {
			_, ssr, err := lstsq(m.design(t, x[0]), y)
			if err != nil {
				return math.Inf(1)
			}
			return ssr
		}

		settings := m.settings
		res, err := anneal.Minimize(objective, []anneal.Bound{bound}, &settings)
		if err != nil {
			return fmt.Errorf("estimate trend break: %w", err)
		}
		m.search = res
		m.tBreak = res.X[0]
	}

	if err := m.solve(t, y, m.tBreak); err != nil {
		return err
	}
	m.params[ParamTBreak] = []float64{m.tBreak}
	return nil
}

// Predict evaluates the fitted model at times t.
func (m *LinearBrokenTrendFourier) Predict(t []float64) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	return m.evaluate(t, m.tBreak), nil
}

// Clone returns an independent copy of the model. A clone of a model
// that estimates its break re-estimates it when refitted.
func (m *LinearBrokenTrendFourier) Clone() Estimator {
	c := *m
	c.linear = m.cloneLinear()
	if m.bounds != nil {
		b := *m.bounds
		c.bounds = &b
	}
	if m.settings.X0 != nil {
		c.settings.X0 = append([]float64(nil), m.settings.X0...)
	}
	if m.search != nil {
		s := *m.search
		s.X = append([]float64(nil), m.search.X...)
		c.search = &s
	}
	return &c
}
