// Package report builds and writes the trendfit result document.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/sartorproj/gotrendfit/bootstrap"
	"github.com/sartorproj/gotrendfit/models"
	"github.com/sartorproj/gotrendfit/timeseries"
)

// Number is a float that encodes as null in JSON when it is not finite.
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

// Values is a float slice that encodes non-finite elements as null in
// JSON.
type Values []float64

// MarshalJSON implements json.Marshaler.
func (v Values) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	out := make([]Number, len(v))
	for i, f := range v {
		out[i] = Number(f)
	}
	return json.Marshal(out)
}

// SeriesInfo describes the input data.
type SeriesInfo struct {
	Name  string  `json:"name,omitempty" yaml:"name,omitempty"`
	NObs  int     `json:"n_obs" yaml:"n_obs"`
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Std   float64 `json:"std" yaml:"std"`
}

// FitStats holds goodness of fit statistics.
type FitStats struct {
	SSR          Number  `json:"ssr" yaml:"ssr"`
	RMSE         Number  `json:"rmse" yaml:"rmse"`
	R2           Number  `json:"r2" yaml:"r2"`
	AIC          *Number `json:"aic,omitempty" yaml:"aic,omitempty"`
	AICc         *Number `json:"aicc,omitempty" yaml:"aicc,omitempty"`
	BIC          *Number `json:"bic,omitempty" yaml:"bic,omitempty"`
	LjungBoxQ    Number  `json:"ljung_box_q" yaml:"ljung_box_q"`
	LjungBoxP    Number  `json:"ljung_box_p" yaml:"ljung_box_p"`
	DurbinWatson Number  `json:"durbin_watson" yaml:"durbin_watson"`
	ACFLags      []int   `json:"significant_acf_lags,omitempty" yaml:"significant_acf_lags,omitempty"`
}

// BreakSearch summarises the annealing search of a trend break.
type BreakSearch struct {
	NFev    int    `json:"nfev" yaml:"nfev"`
	NIt     int    `json:"nit" yaml:"nit"`
	Message string `json:"message" yaml:"message"`
}

// Selection records a Fourier order selection.
type Selection struct {
	Criterion string `json:"criterion" yaml:"criterion"`
	Order     int    `json:"order" yaml:"order"`
	Scores    Values `json:"scores" yaml:"scores"`
}

// Interval is a confidence interval per parameter element.
type Interval struct {
	Lower Values `json:"lower" yaml:"lower"`
	Upper Values `json:"upper" yaml:"upper"`
}

// BootstrapInfo describes the bootstrap run and its intervals.
type BootstrapInfo struct {
	Method     string              `json:"method" yaml:"method"`
	Samples    int                 `json:"samples" yaml:"samples"`
	Confidence float64             `json:"confidence" yaml:"confidence"`
	Intervals  map[string]Interval `json:"intervals" yaml:"intervals"`
}

// Report is the result document of a trend fit.
type Report struct {
	Series      SeriesInfo        `json:"series" yaml:"series"`
	Model       string            `json:"model" yaml:"model"`
	Parameters  map[string]Values `json:"parameters" yaml:"parameters"`
	Fit         *FitStats         `json:"fit,omitempty" yaml:"fit,omitempty"`
	BreakSearch *BreakSearch      `json:"break_search,omitempty" yaml:"break_search,omitempty"`
	Selection   *Selection        `json:"selection,omitempty" yaml:"selection,omitempty"`
	Bootstrap   *BootstrapInfo    `json:"bootstrap,omitempty" yaml:"bootstrap,omitempty"`
}

// New builds a report for a fitted model.
func New(series *timeseries.Series, model models.Estimator) (*Report, error) {
	summary, err := models.Summarize(model)
	if err != nil {
		return nil, err
	}

	start, end := series.Span()
	r := &Report{
		Series: SeriesInfo{
			Name:  series.Name,
			NObs:  series.Len(),
			Start: start,
			End:   end,
			Mean:  series.Mean(),
			Std:   series.Std(),
		},
		Model:      model.Name(),
		Parameters: make(map[string]Values),
		Fit: &FitStats{
			SSR:     Number(summary.SSR),
			RMSE:    Number(summary.RMSE),
			R2:      Number(summary.R2),
			ACFLags: summary.ACFLags,
		},
	}
	for k, v := range summary.Parameters {
		r.Parameters[k] = Values(v)
	}
	if ic := summary.IC; ic != nil {
		aic, aicc, bic := Number(ic.AIC), Number(ic.AICc), Number(ic.BIC)
		r.Fit.AIC, r.Fit.AICc, r.Fit.BIC = &aic, &aicc, &bic
	}
	if lb := summary.LjungBox; lb != nil {
		r.Fit.LjungBoxQ, r.Fit.LjungBoxP = Number(lb.Statistic), Number(lb.PValue)
	}
	if dw := summary.DurbinWatson; dw != nil {
		r.Fit.DurbinWatson = Number(dw.Statistic)
	}
	if b, ok := model.(*models.LinearBrokenTrendFourier); ok {
		if res := b.BreakSearch(); res != nil {
			r.BreakSearch = &BreakSearch{NFev: res.NFev, NIt: res.NIt, Message: res.Message}
		}
	}
	return r, nil
}

// AddSelection records the Fourier order selection.
func (r *Report) AddSelection(sel *models.Selection) {
	r.Selection = &Selection{
		Criterion: sel.Criterion,
		Order:     sel.Order,
		Scores:    Values(sel.Scores),
	}
}

// AddBootstrap records the confidence intervals of a fitted bootstrap
// estimator at the given level.
func (r *Report) AddBootstrap(est *bootstrap.Estimator, level float64) error {
	ci, err := est.CIBounds(level)
	if err != nil {
		return err
	}
	if level == 0 {
		level = bootstrap.DefaultConfidence
	}

	info := &BootstrapInfo{
		Method:     est.Sampler().Name(),
		Samples:    est.Samples(),
		Confidence: level,
		Intervals:  make(map[string]Interval, len(ci)),
	}
	for k, iv := range ci {
		info.Intervals[k] = Interval{Lower: Values(iv.Lower), Upper: Values(iv.Upper)}
	}
	r.Bootstrap = info
	return nil
}

// Write encodes the report as json or yaml.
func Write(w io.Writer, r *Report, format string) error {
	switch format {
	case "", "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
