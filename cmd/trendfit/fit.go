package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sartorproj/gotrendfit/anneal"
	"github.com/sartorproj/gotrendfit/bootstrap"
	"github.com/sartorproj/gotrendfit/internal/config"
	"github.com/sartorproj/gotrendfit/internal/report"
	"github.com/sartorproj/gotrendfit/models"
	"github.com/sartorproj/gotrendfit/timeseries"
)

type fitFlags struct {
	input, column, timeColumn, dateColumn string

	model       string
	fourier     int
	tBreak      float64
	breakLower  float64
	breakUpper  float64
	breakIter   int
	breakSeed   uint64
	kernel      string
	bandwidth   float64
	selectOrder int
	criterion   string

	bootstrap  string
	samples    int
	blockSize  int
	arCoef     float64
	confidence float64
	workers    int
	seed       uint64

	output   string
	outPath  string
	trendCSV string
}

func newFitCmd() *cobra.Command {
	f := &fitFlags{}
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit a trend model to a CSV time series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			if err := setupLogging(cfg.Log); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runFit(ctx, cfg, cmd.OutOrStdout())
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.input, "input", "i", "", "input CSV file")
	fl.StringVar(&f.column, "column", "", "value column (default y)")
	fl.StringVar(&f.timeColumn, "time-column", "", "column of decimal-year times")
	fl.StringVar(&f.dateColumn, "date-column", "", "column of calendar dates")

	fl.StringVarP(&f.model, "model", "m", "", "trend model: none, linear, broken or kernel (default linear)")
	fl.IntVar(&f.fourier, "fourier", 0, "order of the Fourier series (default 3)")
	fl.Float64Var(&f.tBreak, "t-break", 0, "fixed trend break in decimal years (broken model)")
	fl.Float64Var(&f.breakLower, "break-lower", 0, "lower bound of the break search (default series span)")
	fl.Float64Var(&f.breakUpper, "break-upper", 0, "upper bound of the break search (default series span)")
	fl.IntVar(&f.breakIter, "break-max-iter", 0, "annealing iterations of the break search (default 500)")
	fl.Uint64Var(&f.breakSeed, "break-seed", 0, "random seed of the break search")
	fl.StringVar(&f.kernel, "kernel", "", "kernel of the kernel model: "+strings.Join(models.KernelNames(), ", "))
	fl.Float64Var(&f.bandwidth, "bandwidth", 0, "kernel bandwidth on the scaled [0, 1] time axis (0 = n^-1/5)")
	fl.IntVar(&f.selectOrder, "select-order", 0, "select the Fourier order in 0..N by information criterion")
	fl.StringVar(&f.criterion, "criterion", "", "order selection criterion: aic, aicc or bic")

	fl.StringVarP(&f.bootstrap, "bootstrap", "b", "", "bootstrap method: none, residual or blockar")
	fl.IntVar(&f.samples, "samples", 0, "number of bootstrap samples (default 1000)")
	fl.IntVar(&f.blockSize, "block-size", 0, "block size of the blockar bootstrap (default 500)")
	fl.Float64Var(&f.arCoef, "ar-coef", 0, "autoregressive coefficient of the blockar bootstrap")
	fl.Float64Var(&f.confidence, "confidence", 0, "confidence level of the intervals (default 0.95)")
	fl.IntVarP(&f.workers, "workers", "w", 0, "bootstrap workers (default number of CPUs)")
	fl.Uint64Var(&f.seed, "seed", 0, "bootstrap random seed")

	fl.StringVarP(&f.output, "output", "o", "", "report format: json or yaml")
	fl.StringVar(&f.outPath, "out", "", "report file (default stdout)")
	fl.StringVar(&f.trendCSV, "trend-csv", "", "write the fitted values to this CSV file")

	return cmd
}

// loadConfig merges defaults, the config file, the environment and the
// flags set on the command line.
func loadConfig(cmd *cobra.Command, f *fitFlags) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	set := fl.Changed
	if set("input") {
		cfg.Input.Path = f.input
	}
	if set("column") {
		cfg.Input.ValueColumn = f.column
	}
	if set("time-column") {
		cfg.Input.TimeColumn = f.timeColumn
	}
	if set("date-column") {
		cfg.Input.DateColumn = f.dateColumn
	}
	if set("model") {
		cfg.Model.Kind = f.model
	}
	if set("fourier") {
		cfg.Model.Fourier = f.fourier
	}
	if set("t-break") {
		tb := f.tBreak
		cfg.Model.TBreak = &tb
	}
	if set("break-lower") {
		cfg.Model.BreakLower = f.breakLower
	}
	if set("break-upper") {
		cfg.Model.BreakUpper = f.breakUpper
	}
	if set("break-max-iter") {
		cfg.Model.BreakMaxIter = f.breakIter
	}
	if set("break-seed") {
		cfg.Model.BreakSeed = f.breakSeed
	}
	if set("kernel") {
		cfg.Model.Kernel = f.kernel
	}
	if set("bandwidth") {
		cfg.Model.Bandwidth = f.bandwidth
	}
	if set("select-order") {
		cfg.Model.SelectOrder = f.selectOrder
	}
	if set("criterion") {
		cfg.Model.Criterion = f.criterion
	}
	if set("bootstrap") {
		cfg.Bootstrap.Method = f.bootstrap
	}
	if set("samples") {
		cfg.Bootstrap.Samples = f.samples
	}
	if set("block-size") {
		cfg.Bootstrap.BlockSize = f.blockSize
	}
	if set("ar-coef") {
		ar := f.arCoef
		cfg.Bootstrap.ARCoef = &ar
	}
	if set("confidence") {
		cfg.Bootstrap.Confidence = f.confidence
	}
	if set("workers") {
		cfg.Bootstrap.Workers = f.workers
	}
	if set("seed") {
		cfg.Bootstrap.Seed = f.seed
	}
	if set("output") {
		cfg.Output.Format = f.output
	}
	if set("out") {
		cfg.Output.Path = f.outPath
	}
	if set("trend-csv") {
		cfg.Output.TrendCSV = f.trendCSV
	}
	if v, _ := fl.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := fl.GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func loadSeries(cfg config.InputConfig) (*timeseries.Series, error) {
	opts := timeseries.DefaultCSVOptions()
	opts.ValueColumn = cfg.ValueColumn
	opts.TimeColumn = cfg.TimeColumn
	opts.DateColumn = cfg.DateColumn
	if cfg.DateFormat != "" {
		opts.DateFormat = cfg.DateFormat
	}
	if cfg.Delimiter != "" {
		opts.Delimiter = []rune(cfg.Delimiter)[0]
	}

	series, err := timeseries.LoadCSV(cfg.Path, opts)
	if err != nil {
		return nil, err
	}
	if err := series.Validate(); errors.Is(err, timeseries.ErrUnsortedTimes) {
		logrus.Warn("Input times are not sorted, sorting them")
		series = series.Sort()
	}
	return series, nil
}

// buildModel returns an unfitted model of the configured kind.
func buildModel(cfg config.ModelConfig, order int) (models.Estimator, error) {
	switch cfg.Kind {
	case config.ModelNone:
		return models.NewLinearNoTrendFourier(order), nil
	case config.ModelLinear:
		return models.NewLinearTrendFourier(order), nil
	case config.ModelBroken:
		var opts []models.BrokenTrendOption
		if cfg.TBreak != nil {
			opts = append(opts, models.WithBreak(*cfg.TBreak))
		}
		if cfg.BreakLower != 0 || cfg.BreakUpper != 0 {
			opts = append(opts, models.WithSearchBounds(cfg.BreakLower, cfg.BreakUpper))
		}
		opts = append(opts, models.WithAnnealSettings(anneal.Settings{
			MaxIter: cfg.BreakMaxIter,
			Seed:    cfg.BreakSeed,
		}))
		return models.NewLinearBrokenTrendFourier(order, opts...), nil
	case config.ModelKernel:
		m, err := models.NewKernelTrend(cfg.Kernel, cfg.Bandwidth)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, errors.Errorf("unknown model %q", cfg.Kind)
	}
}

func runFit(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	series, err := loadSeries(cfg.Input)
	if err != nil {
		return err
	}
	first, last := series.Span()
	log := logrus.WithField("input", cfg.Input.Path)
	log.Infof("Loaded %s observations from %.3f to %.3f", humanize.Comma(int64(series.Len())), first, last)

	var (
		model     models.Estimator
		selection *models.Selection
	)
	if cfg.Model.SelectOrder > 0 {
		factory := func(order int) models.LeastSquares {
			m, _ := buildModel(cfg.Model, order)
			return m.(models.LeastSquares)
		}
		selection, err = models.SelectFourierOrder(series, factory, cfg.Model.SelectOrder, strings.ToLower(cfg.Model.Criterion))
		if err != nil {
			return errors.Wrap(err, "select Fourier order")
		}
		log.WithFields(logrus.Fields{
			"order":     selection.Order,
			"criterion": selection.Criterion,
		}).Info("Selected Fourier order")
		model = selection.Model
	} else {
		model, err = buildModel(cfg.Model, cfg.Model.Fourier)
		if err != nil {
			return err
		}
	}

	start := time.Now()
	var est *bootstrap.Estimator
	switch cfg.Bootstrap.Method {
	case config.BootstrapResidual, config.BootstrapBlockAR:
		workers := cfg.Bootstrap.Workers
		if workers == 0 {
			workers = runtime.NumCPU()
		}
		opts := &bootstrap.Options{
			Samples: cfg.Bootstrap.Samples,
			Seed:    cfg.Bootstrap.Seed,
			Workers: workers,
			Logger:  log,
		}
		if cfg.Bootstrap.Method == config.BootstrapResidual {
			est = bootstrap.NewResidualResampling(model, opts)
		} else {
			est = bootstrap.NewBlockARWild(model, &bootstrap.BlockARWild{
				BlockSize: cfg.Bootstrap.BlockSize,
				ARCoef:    cfg.Bootstrap.ARCoef,
			}, opts)
		}
		log.Infof("Fitting %s on %s bootstrap samples with %d workers",
			model.Name(), humanize.Comma(int64(cfg.Bootstrap.Samples)), workers)
		if err := est.FitContext(ctx, series); err != nil {
			return errors.Wrap(err, "bootstrap")
		}
	default:
		if !model.Fitted() {
			if err := model.Fit(series); err != nil {
				return errors.Wrapf(err, "fit %s", model.Name())
			}
		}
	}
	log.WithField("elapsed", time.Since(start).Round(time.Millisecond)).Infof("Fitted %s", model.Name())

	rep, err := report.New(series, model)
	if err != nil {
		return err
	}
	if selection != nil {
		rep.AddSelection(selection)
	}
	if est != nil {
		if err := rep.AddBootstrap(est, cfg.Bootstrap.Confidence); err != nil {
			return err
		}
	}

	if cfg.Output.TrendCSV != "" {
		if err := timeseries.SaveCSV(series.WithValues(model.FittedValues()), cfg.Output.TrendCSV); err != nil {
			return err
		}
		log.WithField("path", cfg.Output.TrendCSV).Info("Wrote fitted values")
	}

	if cfg.Output.Path == "" {
		return report.Write(stdout, rep, cfg.Output.Format)
	}
	if err := saveReport(cfg.Output.Path, rep, cfg.Output.Format); err != nil {
		return err
	}
	log.WithField("path", cfg.Output.Path).Info("Wrote report")
	return nil
}

// saveReport writes rep to the file at path, reporting a failed close.
func saveReport(path string, rep *report.Report, format string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create report")
	}
	if err := report.Write(file, rep, format); err != nil {
		file.Close()
		return errors.Wrap(err, "write report")
	}
	return errors.Wrap(file.Close(), "close report")
}
