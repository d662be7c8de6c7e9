// Package timeseries provides core time series data structures and operations.
package timeseries

import (
	"errors"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	// ErrLengthMismatch is returned when times and values differ in length.
	ErrLengthMismatch = errors.New("times and values must have the same length")
	// ErrUnsortedTimes is returned when times are not non-decreasing.
	ErrUnsortedTimes = errors.New("times must be non-decreasing")
	// ErrNonFinite is returned when a time or value is NaN or infinite.
	ErrNonFinite = errors.New("times and values must be finite")
)

// Series represents a time series sampled at (possibly uneven) times.
// Times are expressed in decimal years, so a seasonal cycle has period 1.
type Series struct {
	Times  []float64
	Values []float64
	Name   string
}

// New creates a new time series from values, using times 0, 1, ..., n-1.
func New(values []float64) *Series {
	times := make([]float64, len(values))
	for i := range times {
		times[i] = float64(i)
	}
	return &Series{
		Times:  times,
		Values: values,
	}
}

// NewWithTimes creates a time series with explicit times.
func NewWithTimes(times, values []float64) (*Series, error) {
	if len(times) != len(values) {
		return nil, ErrLengthMismatch
	}
	return &Series{
		Times:  times,
		Values: values,
	}, nil
}

// FromTimestamps creates a time series from timestamps, converting each
// one to a decimal year.
func FromTimestamps(timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, ErrLengthMismatch
	}
	times := make([]float64, len(timestamps))
	for i, ts := range timestamps {
		times[i] = DecimalYear(ts)
	}
	return &Series{
		Times:  times,
		Values: values,
	}, nil
}

// DecimalYear converts ts to a year plus the elapsed fraction of that year.
func DecimalYear(ts time.Time) float64 {
	ts = ts.UTC()
	start := time.Date(ts.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	frac := float64(ts.Sub(start)) / float64(end.Sub(start))
	return float64(ts.Year()) + frac
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Validate checks that the series can be fitted: equal lengths, finite
// entries and non-decreasing times.
func (s *Series) Validate() error {
	if len(s.Times) != len(s.Values) {
		return ErrLengthMismatch
	}
	for i := range s.Values {
		if math.IsNaN(s.Values[i]) || math.IsInf(s.Values[i], 0) ||
			math.IsNaN(s.Times[i]) || math.IsInf(s.Times[i], 0) {
			return ErrNonFinite
		}
		if i > 0 && s.Times[i] < s.Times[i-1] {
			return ErrUnsortedTimes
		}
	}
	return nil
}

// Span returns the first and last time of the series.
func (s *Series) Span() (first, last float64) {
	if len(s.Times) == 0 {
		return math.NaN(), math.NaN()
	}
	return s.Times[0], s.Times[len(s.Times)-1]
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance calculates the sample variance of the series.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

// Std calculates the standard deviation of the series.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the minimum value in the series, or NaN when empty.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Min(s.Values)
}

// Max returns the maximum value in the series, or NaN when empty.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Max(s.Values)
}

// Median returns the median value of the series. An even number of
// values gives the midpoint of the two central ones.
func (s *Series) Median() float64 {
	n := len(s.Values)
	if n == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), s.Values...)
	sort.Float64s(sorted)

	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// Slice returns a slice of the series from start to end (exclusive).
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Values) {
		end = len(s.Values)
	}
	if start >= end {
		return &Series{Times: []float64{}, Values: []float64{}, Name: s.Name}
	}

	values := make([]float64, end-start)
	copy(values, s.Values[start:end])

	times := make([]float64, end-start)
	if len(s.Times) >= end {
		copy(times, s.Times[start:end])
	}

	return &Series{
		Times:  times,
		Values: values,
		Name:   s.Name,
	}
}

// Between returns the observations with lo <= t <= hi.
func (s *Series) Between(lo, hi float64) *Series {
	out := &Series{Times: []float64{}, Values: []float64{}, Name: s.Name}
	for i, t := range s.Times {
		if t >= lo && t <= hi {
			out.Times = append(out.Times, t)
			out.Values = append(out.Values, s.Values[i])
		}
	}
	return out
}

// WithValues returns a series sharing the receiver's times with new values.
// The times slice is copied so the result can be modified independently.
func (s *Series) WithValues(values []float64) *Series {
	times := make([]float64, len(s.Times))
	copy(times, s.Times)
	return &Series{
		Times:  times,
		Values: values,
		Name:   s.Name,
	}
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	times := make([]float64, len(s.Times))
	copy(times, s.Times)

	return &Series{
		Times:  times,
		Values: values,
		Name:   s.Name,
	}
}

// Sort returns a copy of the series ordered by time. Ties keep their
// input order.
func (s *Series) Sort() *Series {
	idx := make([]int, len(s.Times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return s.Times[idx[a]] < s.Times[idx[b]] })

	out := &Series{
		Times:  make([]float64, len(idx)),
		Values: make([]float64, len(idx)),
		Name:   s.Name,
	}
	for i, j := range idx {
		out.Times[i] = s.Times[j]
		out.Values[i] = s.Values[j]
	}
	return out
}
