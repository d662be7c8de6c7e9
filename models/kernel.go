package models

import (
	"fmt"
	"math"
	"sort"

	"github.com/sartorproj/gotrendfit/timeseries"
)

// KernelFunc is a kernel weight as a function of the scaled distance u.
type KernelFunc func(u float64) float64

// Epanechnikov is 3/4·(1 - u²) for |u| <= 1, else 0.
func Epanechnikov(u float64) float64 {
	if math.Abs(u) > 1 {
		return 0
	}
	return 0.75 * (1 - u*u)
}

// Uniform is 1/2 for |u| <= 1, else 0.
func Uniform(u float64) float64 {
	if math.Abs(u) > 1 {
		return 0
	}
	return 0.5
}

// Triangular is 1 - |u| for |u| <= 1, else 0.
func Triangular(u float64) float64 {
	a := math.Abs(u)
	if a > 1 {
		return 0
	}
	return 1 - a
}

// Gaussian is the standard normal density.
func Gaussian(u float64) float64 {
	return math.Exp(-0.5*u*u) / math.Sqrt(2*math.Pi)
}

var kernels = map[string]KernelFunc{
	"epanechnikov": Epanechnikov,
	"uniform":      Uniform,
	"triangular":   Triangular,
	"gaussian":     Gaussian,
}

// KernelNames returns the names accepted by NewKernelTrend.
func KernelNames() []string {
	names := make([]string, 0, len(kernels))
	for k := range kernels {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// KernelTrend is a non-parametric local constant (Nadaraya-Watson) kernel
// regression. Times are scaled to [0, 1] over the training range before
// weighting, so the bandwidth is a fraction of the series length.
//
// A bandwidth of 0 selects n^(-1/5) at fit time.
type KernelTrend struct {
	base

	kernelName string
	kernel     KernelFunc
	bandwidth  float64
	autoBW     bool

	tScaled []float64
	t0, t1  float64
}

// NewKernelTrend creates a kernel trend model with a named kernel.
func NewKernelTrend(kernel string, bandwidth float64) (*KernelTrend, error) {
	k, ok := kernels[kernel]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrInvalidKernel, kernel)
	}
	m, err := NewKernelTrendFunc(k, bandwidth)
	if err != nil {
		return nil, err
	}
	m.kernelName = kernel
	return m, nil
}

// NewKernelTrendFunc creates a kernel trend model with a custom kernel.
func NewKernelTrendFunc(kernel KernelFunc, bandwidth float64) (*KernelTrend, error) {
	if kernel == nil {
		return nil, fmt.Errorf("%w: nil kernel function", ErrInvalidKernel)
	}
	if bandwidth < 0 || math.IsNaN(bandwidth) || math.IsInf(bandwidth, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBandwidth, bandwidth)
	}
	m := &KernelTrend{
		kernelName: "custom",
		kernel:     kernel,
		bandwidth:  bandwidth,
		autoBW:     bandwidth == 0,
	}
	m.params = Parameters{
		ParamBandwidth: {bandwidth},
		ParamTrend:     nil,
	}
	return m, nil
}

// Name returns the model kind.
func (m *KernelTrend) Name() string { return "kernel_trend" }

// Kernel returns the kernel name, or "custom".
func (m *KernelTrend) Kernel() string { return m.kernelName }

// Bandwidth returns the bandwidth in scaled time units.
func (m *KernelTrend) Bandwidth() float64 { return m.bandwidth }

// Fit estimates the trend at every training time.
func (m *KernelTrend) Fit(series *timeseries.Series) error {
	return m.fit(series, 2, m.fitKernel, m.predictScaled)
}

func (m *KernelTrend) fitKernel(t, y []float64) error {
	m.t0, m.t1 = t[0], t[len(t)-1]
	if m.t1 == m.t0 {
		return fmt.Errorf("%w: series spans no time", ErrInsufficientData)
	}
	if m.autoBW {
		m.bandwidth = math.Pow(float64(len(t)), -0.2)
	}

	m.tScaled = m.scale(t)
	m.params[ParamBandwidth] = []float64{m.bandwidth}
	m.params[ParamTrend] = m.localConstant(m.tScaled, y, m.tScaled)
	return nil
}

func (m *KernelTrend) scale(t []float64) []float64 {
	out := make([]float64, len(t))
	for i, v := range t {
		out[i] = (v - m.t0) / (m.t1 - m.t0)
	}
	return out
}

// localConstant evaluates Σ_j K((tau_i - t_j)/h) y_j / Σ_j K(...) at every
// tau_i. Points without any kernel support are NaN.
func (m *KernelTrend) localConstant(t, y, tau []float64) []float64 {
	out := make([]float64, len(tau))
	for i, ti := range tau {
		num, den := 0.0, 0.0
		for j, tj := range t {
			w := m.kernel((ti - tj) / m.bandwidth)
			num += w * y[j]
			den += w
		}
		if den == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = num / den
	}
	return out
}

func (m *KernelTrend) predictScaled(t []float64) []float64 {
	return m.localConstant(m.tScaled, m.data.Values, m.scale(t))
}

// Predict evaluates the kernel estimator at times t using the training
// data.
func (m *KernelTrend) Predict(t []float64) ([]float64, error) {
	if !m.fitted {
		return nil, ErrNotFitted
	}
	return m.predictScaled(t), nil
}

// Clone returns an independent copy of the model.
func (m *KernelTrend) Clone() Estimator {
	c := *m
	c.base = m.base.clone()
	c.tScaled = append([]float64(nil), m.tScaled...)
	return &c
}
