// Package config holds the trendfit command configuration.
//
// Values come from, in increasing priority: built-in defaults, an
// optional YAML file, a .env file and TRENDFIT_* environment variables,
// then command line flags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Model kinds.
const (
	ModelNone   = "none"
	ModelLinear = "linear"
	ModelBroken = "broken"
	ModelKernel = "kernel"
)

// Bootstrap methods.
const (
	BootstrapNone     = "none"
	BootstrapResidual = "residual"
	BootstrapBlockAR  = "blockar"
)

// Config is the complete trendfit configuration.
type Config struct {
	Input     InputConfig     `yaml:"input"`
	Model     ModelConfig     `yaml:"model"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	Output    OutputConfig    `yaml:"output"`
	Log       LogConfig       `yaml:"log"`
}

// InputConfig describes the CSV input.
type InputConfig struct {
	Path        string `yaml:"path"`
	ValueColumn string `yaml:"column"`
	TimeColumn  string `yaml:"timeColumn"` // decimal years
	DateColumn  string `yaml:"dateColumn"`
	DateFormat  string `yaml:"dateFormat"`
	Delimiter   string `yaml:"delimiter"`
}

// ModelConfig selects and configures the trend model.
type ModelConfig struct {
	// Kind is one of none, linear, broken or kernel.
	Kind    string `yaml:"kind"`
	Fourier int    `yaml:"fourier"`

	// TBreak fixes the trend break. When nil the break is estimated
	// between BreakLower and BreakUpper (both 0 means the series span).
	TBreak       *float64 `yaml:"tBreak"`
	BreakLower   float64  `yaml:"breakLower"`
	BreakUpper   float64  `yaml:"breakUpper"`
	BreakMaxIter int      `yaml:"breakMaxIter"`
	BreakSeed    uint64   `yaml:"breakSeed"`

	Kernel    string  `yaml:"kernel"`
	Bandwidth float64 `yaml:"bandwidth"`

	// SelectOrder, when positive, picks the Fourier order in
	// 0..SelectOrder by Criterion instead of using Fourier.
	SelectOrder int    `yaml:"selectOrder"`
	Criterion   string `yaml:"criterion"`
}

// BootstrapConfig configures the confidence intervals.
type BootstrapConfig struct {
	Method     string   `yaml:"method"`
	Samples    int      `yaml:"samples"`
	BlockSize  int      `yaml:"blockSize"`
	ARCoef     *float64 `yaml:"arCoef"`
	Confidence float64  `yaml:"confidence"`
	Workers    int      `yaml:"workers"` // 0 = number of CPUs
	Seed       uint64   `yaml:"seed"`
}

// OutputConfig controls the report.
type OutputConfig struct {
	Format   string `yaml:"format"` // json or yaml
	Path     string `yaml:"path"`   // empty = stdout
	TrendCSV string `yaml:"trendCSV"`
}

// LogConfig configures logrus.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Input: InputConfig{
			ValueColumn: "y",
			Delimiter:   ",",
		},
		Model: ModelConfig{
			Kind:         ModelLinear,
			Fourier:      3,
			BreakMaxIter: 500,
			Kernel:       "epanechnikov",
			Criterion:    "aic",
		},
		Bootstrap: BootstrapConfig{
			Method:     BootstrapNone,
			Samples:    1000,
			BlockSize:  500,
			Confidence: 0.95,
		},
		Output: OutputConfig{
			Format: "json",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (if not
// empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c.
func (c *Config) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config file")
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return errors.Wrapf(err, "parse config file %s", path)
	}
	return nil
}

// LoadEnv loads a .env file from the working directory, if any, and
// overlays TRENDFIT_* variables onto c.
func (c *Config) LoadEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "load .env")
	}

	var result *multierror.Error
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setUint := func(key string, dst *uint64) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setFloat := func(key string, dst *float64) {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = f
		}
	}

	setString("TRENDFIT_INPUT", &c.Input.Path)
	setString("TRENDFIT_COLUMN", &c.Input.ValueColumn)
	setString("TRENDFIT_TIME_COLUMN", &c.Input.TimeColumn)
	setString("TRENDFIT_DATE_COLUMN", &c.Input.DateColumn)
	setString("TRENDFIT_MODEL", &c.Model.Kind)
	setInt("TRENDFIT_FOURIER", &c.Model.Fourier)
	setFloat("TRENDFIT_BREAK_LOWER", &c.Model.BreakLower)
	setFloat("TRENDFIT_BREAK_UPPER", &c.Model.BreakUpper)
	setInt("TRENDFIT_BREAK_MAX_ITER", &c.Model.BreakMaxIter)
	setUint("TRENDFIT_BREAK_SEED", &c.Model.BreakSeed)
	setString("TRENDFIT_KERNEL", &c.Model.Kernel)
	setFloat("TRENDFIT_BANDWIDTH", &c.Model.Bandwidth)
	setString("TRENDFIT_BOOTSTRAP", &c.Bootstrap.Method)
	setInt("TRENDFIT_SAMPLES", &c.Bootstrap.Samples)
	setInt("TRENDFIT_BLOCK_SIZE", &c.Bootstrap.BlockSize)
	setFloat("TRENDFIT_CONFIDENCE", &c.Bootstrap.Confidence)
	setInt("TRENDFIT_WORKERS", &c.Bootstrap.Workers)
	setUint("TRENDFIT_SEED", &c.Bootstrap.Seed)
	setString("TRENDFIT_OUTPUT", &c.Output.Format)
	setString("TRENDFIT_LOG_LEVEL", &c.Log.Level)
	setString("TRENDFIT_LOG_FORMAT", &c.Log.Format)

	if v := os.Getenv("TRENDFIT_T_BREAK"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid TRENDFIT_T_BREAK: %w", err))
		} else {
			c.Model.TBreak = &f
		}
	}

	return result.ErrorOrNil()
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var result *multierror.Error
	add := func(format string, args ...interface{}) {
		result = multierror.Append(result, fmt.Errorf(format, args...))
	}

	if c.Input.Path == "" {
		add("input path is required")
	}
	if c.Input.TimeColumn != "" && c.Input.DateColumn != "" {
		add("only one of time column and date column can be set")
	}
	if len([]rune(c.Input.Delimiter)) > 1 {
		add("delimiter must be a single character, got %q", c.Input.Delimiter)
	}

	switch c.Model.Kind {
	case ModelNone, ModelLinear, ModelBroken, ModelKernel:
	default:
		add("unknown model %q (want none, linear, broken or kernel)", c.Model.Kind)
	}
	if c.Model.Fourier < 0 {
		add("fourier order must be non-negative, got %d", c.Model.Fourier)
	}
	if c.Model.SelectOrder < 0 {
		add("select order must be non-negative, got %d", c.Model.SelectOrder)
	}
	if c.Model.SelectOrder > 0 && c.Model.Kind == ModelKernel {
		add("order selection is not available for the kernel model")
	}
	switch strings.ToLower(c.Model.Criterion) {
	case "aic", "aicc", "bic":
	default:
		add("unknown criterion %q (want aic, aicc or bic)", c.Model.Criterion)
	}
	if c.Model.Bandwidth < 0 {
		add("bandwidth must be non-negative, got %v", c.Model.Bandwidth)
	}
	if (c.Model.BreakLower != 0 || c.Model.BreakUpper != 0) && c.Model.BreakLower >= c.Model.BreakUpper {
		add("break search lower bound %v must be below upper bound %v", c.Model.BreakLower, c.Model.BreakUpper)
	}
	if c.Model.BreakMaxIter < 0 {
		add("break search iterations must be non-negative, got %d", c.Model.BreakMaxIter)
	}

	switch c.Bootstrap.Method {
	case BootstrapNone, BootstrapResidual, BootstrapBlockAR:
	default:
		add("unknown bootstrap method %q (want none, residual or blockar)", c.Bootstrap.Method)
	}
	if c.Bootstrap.Method != BootstrapNone {
		if c.Bootstrap.Samples <= 0 {
			add("bootstrap samples must be positive, got %d", c.Bootstrap.Samples)
		}
		if c.Bootstrap.BlockSize <= 0 {
			add("block size must be positive, got %d", c.Bootstrap.BlockSize)
		}
		if c.Bootstrap.Confidence <= 0 || c.Bootstrap.Confidence >= 1 {
			add("confidence must be in (0, 1), got %v", c.Bootstrap.Confidence)
		}
	}
	if c.Bootstrap.Workers < 0 {
		add("workers must be non-negative, got %d", c.Bootstrap.Workers)
	}

	switch c.Output.Format {
	case "json", "yaml":
	default:
		add("unknown output format %q (want json or yaml)", c.Output.Format)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		add("unknown log format %q (want text or json)", c.Log.Format)
	}

	return result.ErrorOrNil()
}
