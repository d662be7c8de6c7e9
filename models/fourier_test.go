package models

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/sartorproj/gotrendfit/anneal"
	"github.com/sartorproj/gotrendfit/timeseries"
)

func TestLinearNoTrendFourierExact(t *testing.T) {
	times := monthlyTimes(0, 60)
	series := synthetic(times, func(t float64) float64 { return 2 + seasonal(t) }, 0, 0)

	model := NewLinearNoTrendFourier(2)
	if err := model.Fit(series); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	params := model.Parameters()
	approx := cmpopts.EquateApprox(0, 1e-9)
	if diff := cmp.Diff([]float64{0.3, 0.1, 0.05, 0}, params[ParamFourierTerms], approx); diff != "" {
		t.Errorf("Fourier terms mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{2}, params[ParamIntercept], approx); diff != "" {
		t.Errorf("Intercept mismatch (-want +got):\n%s", diff)
	}
	if _, ok := params[ParamTrend]; ok {
		t.Error("No-trend model should not have a trend parameter")
	}
	if model.SSR() > 1e-18 {
		t.Errorf("Expected zero SSR, got %g", model.SSR())
	}
}

func TestLinearNoTrendFourierOrderZero(t *testing.T) {
	series := timeseries.New([]float64{1, 2, 3, 4, 5})

	model := NewLinearNoTrendFourier(0)
	if err := model.Fit(series); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	intercept, _ := model.Parameters().Scalar(ParamIntercept)
	if math.Abs(intercept-3) > 1e-12 {
		t.Errorf("Expected intercept equal to the mean 3, got %f", intercept)
	}
	if len(model.Parameters()[ParamFourierTerms]) != 0 {
		t.Error("Order 0 should have no Fourier terms")
	}

	resid := model.Residuals()
	if diff := cmp.Diff([]float64{-2, -1, 0, 1, 2}, resid, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Residuals mismatch (-want +got):\n%s", diff)
	}
}

func TestLinearTrendFourierExact(t *testing.T) {
	times := monthlyTimes(1995, 240)
	truth := func(t float64) float64 { return -40 + 0.021*t + seasonal(t) }
	series := synthetic(times, truth, 0, 0)

	model := NewLinearTrendFourier(3)
	if err := model.Fit(series); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	trend, _ := model.Parameters().Scalar(ParamTrend)
	if math.Abs(trend-0.021) > 1e-7 {
		t.Errorf("Expected trend 0.021, got %.10f", trend)
	}

	future := []float64{2020.5, 2021.25}
	pred, err := model.Predict(future)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	for i, tt := range future {
		if math.Abs(pred[i]-truth(tt)) > 1e-6 {
			t.Errorf("Prediction at %v: expected %f, got %f", tt, truth(tt), pred[i])
		}
	}

	fitted := model.FittedValues()
	for i := range fitted {
		if math.Abs(fitted[i]-series.Values[i]) > 1e-6 {
			t.Fatalf("Fitted value %d off: %f vs %f", i, fitted[i], series.Values[i])
		}
	}
}

func TestLinearTrendFourierNoisy(t *testing.T) {
	times := monthlyTimes(0, 360)
	series := synthetic(times, func(t float64) float64 { return 1 + 0.5*t + seasonal(t) }, 0.2, 42)

	model := NewLinearTrendFourier(3)
	if err := model.Fit(series); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	trend, _ := model.Parameters().Scalar(ParamTrend)
	if math.Abs(trend-0.5) > 0.01 {
		t.Errorf("Expected trend near 0.5, got %f", trend)
	}
	t.Logf("trend=%f ssr=%f", trend, model.SSR())
}

func TestLinearPredictBeforeFit(t *testing.T) {
	models := []Estimator{
		NewLinearNoTrendFourier(1),
		NewLinearTrendFourier(1),
		NewLinearBrokenTrendFourier(1, WithBreak(1)),
	}
	for _, m := range models {
		if _, err := m.Predict([]float64{1}); !errors.Is(err, ErrNotFitted) {
			t.Errorf("%s: expected ErrNotFitted, got %v", m.Name(), err)
		}
		if m.Residuals() != nil || m.Fitted() {
			t.Errorf("%s: unfitted model should have no residuals", m.Name())
		}
	}
}

func TestLinearInsufficientData(t *testing.T) {
	series := timeseries.New([]float64{1, 2, 3, 4, 5})

	// Order 3 with trend needs 8 regressors.
	if err := NewLinearTrendFourier(3).Fit(series); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestLinearRankDeficient(t *testing.T) {
	// Integer times make sin(2πt) identically zero.
	series := timeseries.New([]float64{1, 3, 2, 5, 4, 6, 5, 7})

	err := NewLinearTrendFourier(1).Fit(series)
	if !errors.Is(err, ErrRankDeficient) {
		t.Errorf("Expected ErrRankDeficient, got %v", err)
	}
}

func TestLinearUnsortedSeries(t *testing.T) {
	series, _ := timeseries.NewWithTimes([]float64{3, 2, 1, 4, 5}, []float64{1, 2, 3, 4, 5})
	if err := NewLinearTrendFourier(0).Fit(series); !errors.Is(err, timeseries.ErrUnsortedTimes) {
		t.Errorf("Expected ErrUnsortedTimes, got %v", err)
	}
}

func TestBrokenTrendFixedBreak(t *testing.T) {
	times := monthlyTimes(0, 120)
	truth := func(t float64) float64 {
		v := 1 + 0.2*t + seasonal(t)
		if t > 6 {
			v += -0.5 * (t - 6)
		}
		return v
	}
	series := synthetic(times, truth, 0, 0)

	model := NewLinearBrokenTrendFourier(2, WithBreak(6))
	if err := model.Fit(series); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if model.BreakSearch() != nil {
		t.Error("Fixed break should not run a search")
	}

	p := model.Parameters()
	approx := cmpopts.EquateApprox(0, 1e-8)
	if diff := cmp.Diff([]float64{0.2}, p[ParamTrend], approx); diff != "" {
		t.Errorf("Trend mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{-0.5}, p[ParamTrendChange], approx); diff != "" {
		t.Errorf("Trend change mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{6}, p[ParamTBreak]); diff != "" {
		t.Errorf("Break mismatch (-want +got):\n%s", diff)
	}
}

func TestBrokenTrendEstimatedBreak(t *testing.T) {
	times := monthlyTimes(0, 120)
	const trueBreak = 6.3
	truth := func(t float64) float64 {
		v := 1 + 0.2*t + seasonal(t)
		if t > trueBreak {
			v += 0.6 * (t - trueBreak)
		}
		return v
	}
	series := synthetic(times, truth, 0, 0)

	model := NewLinearBrokenTrendFourier(2, WithAnnealSettings(anneal.Settings{Seed: 3}))
	if err := model.Fit(series); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	tBreak, _ := model.Parameters().Scalar(ParamTBreak)
	t.Logf("estimated break %f, search %+v", tBreak, model.BreakSearch())

	if math.Abs(tBreak-trueBreak) > 1e-2 {
		t.Errorf("Expected break near %v, got %v", trueBreak, tBreak)
	}
	change, _ := model.Parameters().Scalar(ParamTrendChange)
	if math.Abs(change-0.6) > 1e-2 {
		t.Errorf("Expected trend change near 0.6, got %f", change)
	}
	if res := model.BreakSearch(); res == nil || res.NIt != DefaultBreakMaxIter {
		t.Errorf("Expected %d annealing iterations, got %+v", DefaultBreakMaxIter, res)
	}
}

func TestBrokenTrendSearchBounds(t *testing.T) {
	times := monthlyTimes(0, 120)
	series := synthetic(times, func(t float64) float64 {
		if t > 3 {
			return t - 3
		}
		return 0
	}, 0, 0)

	model := NewLinearBrokenTrendFourier(0, WithSearchBounds(5, 8), WithAnnealSettings(anneal.Settings{MaxIter: 50, Seed: 1}))
	if err := model.Fit(series); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	tBreak, _ := model.Parameters().Scalar(ParamTBreak)
	if tBreak < 5 || tBreak > 8 {
		t.Errorf("Break %v outside search bounds", tBreak)
	}
}

func TestLinearCloneIndependent(t *testing.T) {
	times := monthlyTimes(0, 48)
	series := synthetic(times, func(t float64) float64 { return t + seasonal(t) }, 0, 0)

	model := NewLinearTrendFourier(1)
	if err := model.Fit(series); err != nil {
		t.Fatal(err)
	}
	clone := model.Clone()

	shifted := series.WithValues(make([]float64, series.Len()))
	for i, v := range series.Values {
		shifted.Values[i] = v + 10
	}
	if err := clone.Fit(shifted); err != nil {
		t.Fatal(err)
	}

	a, _ := model.Parameters().Scalar(ParamIntercept)
	b, _ := clone.Parameters().Scalar(ParamIntercept)
	if math.Abs(b-a-10) > 1e-8 {
		t.Errorf("Clone intercept should be shifted by 10: %f vs %f", a, b)
	}
}
