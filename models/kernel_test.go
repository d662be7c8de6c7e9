package models

import (
	"errors"
	"math"
	"testing"

	"github.com/sartorproj/gotrendfit/timeseries"
)

func TestKernelFunctions(t *testing.T) {
	tests := []struct {
		name string
		k    KernelFunc
		u    float64
		want float64
	}{
		{"epanechnikov center", Epanechnikov, 0, 0.75},
		{"epanechnikov half", Epanechnikov, 0.5, 0.5625},
		{"epanechnikov edge", Epanechnikov, 1, 0},
		{"epanechnikov outside", Epanechnikov, -1.5, 0},
		{"uniform inside", Uniform, -0.9, 0.5},
		{"uniform outside", Uniform, 1.1, 0},
		{"triangular", Triangular, 0.25, 0.75},
		{"gaussian center", Gaussian, 0, 1 / math.Sqrt(2*math.Pi)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.k(tt.u); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNewKernelTrendInvalid(t *testing.T) {
	if _, err := NewKernelTrend("boxcar-ish", 0.1); !errors.Is(err, ErrInvalidKernel) {
		t.Errorf("Expected ErrInvalidKernel, got %v", err)
	}
	if _, err := NewKernelTrend("epanechnikov", -1); !errors.Is(err, ErrInvalidBandwidth) {
		t.Errorf("Expected ErrInvalidBandwidth, got %v", err)
	}
	if _, err := NewKernelTrendFunc(nil, 0.1); !errors.Is(err, ErrInvalidKernel) {
		t.Errorf("Expected ErrInvalidKernel for nil func, got %v", err)
	}
}

func TestKernelTrendConstant(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 4.2
	}
	model, err := NewKernelTrend("epanechnikov", 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if err := model.Fit(timeseries.New(values)); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	for i, v := range model.Parameters()[ParamTrend] {
		if math.Abs(v-4.2) > 1e-12 {
			t.Fatalf("Trend at %d: expected 4.2, got %f", i, v)
		}
	}
	for _, r := range model.Residuals() {
		if math.Abs(r) > 1e-12 {
			t.Fatalf("Expected zero residuals, got %g", r)
		}
	}
}

func TestKernelTrendLinearInterior(t *testing.T) {
	// A symmetric kernel on evenly spaced data reproduces a straight line
	// wherever the window does not reach the series edges.
	n := 101
	times := make([]float64, n)
	values := make([]float64, n)
	for i := range times {
		times[i] = 2000 + float64(i)/10
		values[i] = 3 * times[i]
	}
	series, _ := timeseries.NewWithTimes(times, values)

	model, err := NewKernelTrend("uniform", 0.105)
	if err != nil {
		t.Fatal(err)
	}
	if err := model.Fit(series); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	trend := model.Parameters()[ParamTrend]
	for i := 15; i < n-15; i++ {
		if math.Abs(trend[i]-values[i]) > 1e-8 {
			t.Errorf("Interior point %d: expected %f, got %f", i, values[i], trend[i])
		}
	}
	// Near the edge only later points are averaged, which biases upwards.
	if trend[0] <= values[0] {
		t.Errorf("Expected boundary bias at the start, got %f <= %f", trend[0], values[0])
	}
}

func TestKernelTrendPredict(t *testing.T) {
	times := []float64{0, 1, 2, 3, 4}
	series, _ := timeseries.NewWithTimes(times, []float64{1, 2, 3, 4, 5})

	model, _ := NewKernelTrend("epanechnikov", 0.3)
	if _, err := model.Predict([]float64{1}); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("Expected ErrNotFitted, got %v", err)
	}
	if err := model.Fit(series); err != nil {
		t.Fatal(err)
	}

	pred, err := model.Predict(times)
	if err != nil {
		t.Fatal(err)
	}
	fitted := model.FittedValues()
	for i := range pred {
		if math.Abs(pred[i]-fitted[i]) > 1e-12 {
			t.Errorf("Predict at training time %d differs from fitted value", i)
		}
	}

	// Far outside the training span the compact kernel has no support.
	far, _ := model.Predict([]float64{100})
	if !math.IsNaN(far[0]) {
		t.Errorf("Expected NaN without kernel support, got %f", far[0])
	}
}

func TestKernelTrendAutoBandwidth(t *testing.T) {
	model, _ := NewKernelTrend("gaussian", 0)
	if err := model.Fit(timeseries.New([]float64{1, 2, 3, 2, 1, 2, 3, 2, 1, 2, 3, 2, 1, 2, 3, 2, 1, 2, 3, 2, 1, 2, 3, 2, 1, 2, 3, 2, 1, 2, 3, 2})); err != nil {
		t.Fatal(err)
	}
	bw, _ := model.Parameters().Scalar(ParamBandwidth)
	if want := math.Pow(32, -0.2); math.Abs(bw-want) > 1e-12 {
		t.Errorf("Expected bandwidth %f, got %f", want, bw)
	}
}

func TestKernelTrendDegenerateSpan(t *testing.T) {
	series, _ := timeseries.NewWithTimes([]float64{1, 1, 1}, []float64{1, 2, 3})
	model, _ := NewKernelTrend("epanechnikov", 0.1)
	if err := model.Fit(series); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}
}

func TestKernelTrendCustomAndClone(t *testing.T) {
	model, err := NewKernelTrendFunc(func(u float64) float64 { return math.Max(0, 1-u*u) }, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if model.Kernel() != "custom" {
		t.Errorf("Expected custom kernel name, got %q", model.Kernel())
	}
	if err := model.Fit(timeseries.New([]float64{1, 2, 3, 4, 5, 6})); err != nil {
		t.Fatal(err)
	}

	clone := model.Clone()
	if err := clone.Fit(timeseries.New([]float64{6, 5, 4, 3, 2, 1})); err != nil {
		t.Fatal(err)
	}
	if model.Parameters()[ParamTrend][0] >= clone.Parameters()[ParamTrend][0] {
		t.Error("Refitting a clone changed the original model")
	}
}

func TestKernelNames(t *testing.T) {
	names := KernelNames()
	if len(names) != 4 || names[0] != "epanechnikov" {
		t.Errorf("Unexpected kernel names %v", names)
	}
}
