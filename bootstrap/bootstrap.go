package bootstrap

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"

	"github.com/sartorproj/gotrendfit/models"
	"github.com/sartorproj/gotrendfit/stats"
	"github.com/sartorproj/gotrendfit/timeseries"
)

// DefaultSamples is the number of bootstrap samples used when none is set.
const DefaultSamples = 1000

// DefaultConfidence is the confidence level used by CIBounds when level is 0.
const DefaultConfidence = 0.95

// Sampler generates bootstrap errors from the residuals of a fitted model.
type Sampler interface {
	// Name identifies the resampling method.
	Name() string
	// Errors returns one bootstrap error per residual. t holds the
	// training times matching residuals.
	Errors(t, residuals []float64, rng *rand.Rand) ([]float64, error)
}

// Options configures an Estimator.
type Options struct {
	Samples    int                // Number of bootstrap samples (default: 1000)
	Seed       uint64             // Seed of the master random generator
	SaveModels bool               // Keep the model fitted on every sample
	Workers    int                // Samples fitted concurrently (default: 1)
	Logger     logrus.FieldLogger // Progress logging (default: logrus standard logger)
}

// DefaultOptions returns the default bootstrap options.
func DefaultOptions() *Options {
	return &Options{
		Samples: DefaultSamples,
		Workers: 1,
	}
}

// Interval is a pair of element-wise confidence bounds.
type Interval struct {
	Lower []float64
	Upper []float64
}

// Estimator fits a model and the distributions of its parameters over
// bootstrap samples of the data.
type Estimator struct {
	model   models.Estimator
	sampler Sampler
	opts    Options
	rng     *rand.Rand
	logger  logrus.FieldLogger

	dists  map[string][][]float64
	models []models.Estimator
	fitted bool
}

// New wraps model with the given resampling method. A nil opts uses
// DefaultOptions.
func New(model models.Estimator, sampler Sampler, opts *Options) *Estimator {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	if o.Samples <= 0 {
		o.Samples = DefaultSamples
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	logger := o.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Estimator{
		model:   model,
		sampler: sampler,
		opts:    o,
		rng:     rand.New(rand.NewSource(o.Seed)),
		logger:  logger.WithField("bootstrap", sampler.Name()),
		dists:   map[string][][]float64{},
	}
}

// NewResidualResampling wraps model with residual resampling.
func NewResidualResampling(model models.Estimator, opts *Options) *Estimator {
	return New(model, ResidualResampling{}, opts)
}

// NewBlockARWild wraps model with the block autoregressive wild
// bootstrap.
func NewBlockARWild(model models.Estimator, sampler *BlockARWild, opts *Options) *Estimator {
	if sampler == nil {
		sampler = NewBlockARWildSampler()
	}
	return New(model, sampler, opts)
}

// Name returns the resampling method followed by the model kind.
func (e *Estimator) Name() string {
	return e.sampler.Name() + "(" + e.model.Name() + ")"
}

// Model returns the wrapped model.
func (e *Estimator) Model() models.Estimator {
	return e.model
}

// Sampler returns the resampling method.
func (e *Estimator) Sampler() Sampler {
	return e.sampler
}

// Samples returns the number of bootstrap samples.
func (e *Estimator) Samples() int {
	return e.opts.Samples
}

// GenerateSample returns fitted values plus bootstrap errors drawn with
// rng, or with the estimator's own generator when rng is nil.
func (e *Estimator) GenerateSample(rng *rand.Rand) ([]float64, error) {
	if !e.model.Fitted() {
		return nil, models.ErrNotFitted
	}
	if rng == nil {
		rng = e.rng
	}

	fitted := e.model.FittedValues()
	errs, err := e.sampler.Errors(e.model.Series().Times, e.model.Residuals(), rng)
	if err != nil {
		return nil, err
	}
	if len(errs) != len(fitted) {
		return nil, fmt.Errorf("sampler returned %d errors for %d observations", len(errs), len(fitted))
	}
	for i := range errs {
		errs[i] += fitted[i]
	}
	return errs, nil
}

// Fit fits the model on series and on every bootstrap sample.
func (e *Estimator) Fit(series *timeseries.Series) error {
	return e.FitContext(context.Background(), series)
}

type sampleResult struct {
	model  models.Estimator
	params models.Parameters
}

// FitContext is like Fit but stops early when ctx is done.
//
// Every sample draws from its own generator seeded from the master
// generator before any work starts, so the distributions do not depend
// on the number of workers.
func (e *Estimator) FitContext(ctx context.Context, series *timeseries.Series) error {
	e.fitted = false
	e.dists = map[string][][]float64{}
	e.models = nil

	if err := e.model.Fit(series); err != nil {
		return errors.Wrap(err, "fit model")
	}

	n := e.opts.Samples
	seeds := make([]uint64, n)
	for i := range seeds {
		seeds[i] = e.rng.Uint64()
	}

	log := e.logger.WithFields(logrus.Fields{
		"model":   e.model.Name(),
		"samples": n,
		"workers": e.opts.Workers,
	})
	log.Debug("Starting bootstrap")
	start := time.Now()

	results := make([]sampleResult, n)
	var done atomic.Int64
	step := int64(max(n/10, 1))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.fitSample(rand.New(rand.NewSource(seeds[i])))
			if err != nil {
				return errors.Wrapf(err, "bootstrap sample %d", i)
			}
			results[i] = res
			if d := done.Add(1); d%step == 0 {
				log.WithField("done", d).Debug("Bootstrap progress")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for _, res := range results {
		if e.opts.SaveModels {
			e.models = append(e.models, res.model)
		}
		for k, v := range res.params {
			e.dists[k] = append(e.dists[k], v)
		}
	}
	e.fitted = true

	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Debug("Bootstrap finished")
	return nil
}

func (e *Estimator) fitSample(rng *rand.Rand) (sampleResult, error) {
	yb, err := e.GenerateSample(rng)
	if err != nil {
		return sampleResult{}, err
	}

	mb := e.model.Clone()
	if err := mb.Fit(e.model.Series().WithValues(yb)); err != nil {
		return sampleResult{}, err
	}

	res := sampleResult{params: mb.Parameters()}
	if e.opts.SaveModels {
		res.model = mb
	}
	return res, nil
}

// Fitted reports whether Fit succeeded.
func (e *Estimator) Fitted() bool {
	return e.fitted
}

// Parameters returns the parameters of the model fitted on the data.
func (e *Estimator) Parameters() models.Parameters {
	return e.model.Parameters()
}

// Residuals returns the residuals of the model fitted on the data.
func (e *Estimator) Residuals() []float64 {
	return e.model.Residuals()
}

// Predict evaluates the model fitted on the data at times t.
func (e *Estimator) Predict(t []float64) ([]float64, error) {
	return e.model.Predict(t)
}

// ParameterDists returns, per parameter, one row of values per bootstrap
// sample in sample order.
func (e *Estimator) ParameterDists() map[string][][]float64 {
	out := make(map[string][][]float64, len(e.dists))
	for k, rows := range e.dists {
		cp := make([][]float64, len(rows))
		for i, r := range rows {
			cp[i] = append([]float64(nil), r...)
		}
		out[k] = cp
	}
	return out
}

// Models returns the models fitted on each sample. It is empty unless
// SaveModels is set.
func (e *Estimator) Models() []models.Estimator {
	return e.models
}

// CIBounds returns percentile confidence intervals for every parameter
// element at the given level (0 selects 0.95).
func (e *Estimator) CIBounds(level float64) (map[string]Interval, error) {
	if !e.fitted {
		return nil, models.ErrNotFitted
	}
	if level == 0 {
		level = DefaultConfidence
	}
	if level <= 0 || level >= 1 {
		return nil, fmt.Errorf("confidence level must be in (0, 1), got %v", level)
	}
	alpha := 1 - level
	ps := []float64{alpha / 2, 1 - alpha/2}

	out := make(map[string]Interval, len(e.dists))
	for k, rows := range e.dists {
		width := 0
		for _, r := range rows {
			width = max(width, len(r))
		}
		iv := Interval{Lower: make([]float64, width), Upper: make([]float64, width)}
		col := make([]float64, 0, len(rows))
		for j := 0; j < width; j++ {
			col = col[:0]
			for _, r := range rows {
				if j < len(r) {
					col = append(col, r[j])
				}
			}
			q := stats.Quantiles(ps, col)
			iv.Lower[j], iv.Upper[j] = q[0], q[1]
		}
		out[k] = iv
	}
	return out, nil
}
