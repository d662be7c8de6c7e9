package timeseries

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	s := New(values)

	if s.Len() != 5 {
		t.Errorf("Expected length 5, got %d", s.Len())
	}

	for i, v := range s.Values {
		if v != values[i] {
			t.Errorf("Expected value %f at index %d, got %f", values[i], i, v)
		}
		if s.Times[i] != float64(i) {
			t.Errorf("Expected time %d at index %d, got %f", i, i, s.Times[i])
		}
	}
}

func TestNewWithTimesMismatch(t *testing.T) {
	_, err := NewWithTimes([]float64{1, 2}, []float64{1})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("Expected ErrLengthMismatch, got %v", err)
	}
}

func TestDecimalYear(t *testing.T) {
	tests := []struct {
		name     string
		ts       time.Time
		expected float64
	}{
		{"start of year", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 2020},
		{"mid leap year", time.Date(2020, 7, 2, 0, 0, 0, 0, time.UTC), 2020 + 183.0/366.0},
		{"mid common year", time.Date(2019, 7, 2, 12, 0, 0, 0, time.UTC), 2019 + 182.5/365.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecimalYear(tt.ts)
			if math.Abs(got-tt.expected) > 1e-12 {
				t.Errorf("Expected %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestFromTimestamps(t *testing.T) {
	ts := []time.Time{
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	s, err := FromTimestamps(ts, []float64{1, 2})
	if err != nil {
		t.Fatalf("FromTimestamps failed: %v", err)
	}
	if s.Times[0] != 2000 || s.Times[1] != 2001 {
		t.Errorf("Unexpected times: %v", s.Times)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		series *Series
		want   error
	}{
		{"ok", &Series{Times: []float64{1, 2, 2, 3}, Values: []float64{1, 2, 3, 4}}, nil},
		{"unsorted", &Series{Times: []float64{1, 3, 2}, Values: []float64{1, 2, 3}}, ErrUnsortedTimes},
		{"nan value", &Series{Times: []float64{1, 2}, Values: []float64{1, math.NaN()}}, ErrNonFinite},
		{"inf time", &Series{Times: []float64{1, math.Inf(1)}, Values: []float64{1, 2}}, ErrNonFinite},
		{"mismatch", &Series{Times: []float64{1}, Values: []float64{1, 2}}, ErrLengthMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.series.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMean(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"simple", []float64{1, 2, 3, 4, 5}, 3.0},
		{"single", []float64{5}, 5.0},
		{"negative", []float64{-1, -2, -3}, -2.0},
		{"empty", []float64{}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.values)
			result := s.Mean()
			if math.Abs(result-tt.expected) > 1e-10 {
				t.Errorf("Expected mean %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestVarianceStd(t *testing.T) {
	s := New([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	expected := 4.571428571428571

	if math.Abs(s.Variance()-expected) > 1e-10 {
		t.Errorf("Expected variance %f, got %f", expected, s.Variance())
	}
	if math.Abs(s.Std()-math.Sqrt(expected)) > 1e-10 {
		t.Errorf("Expected std %f, got %f", math.Sqrt(expected), s.Std())
	}
}

func TestMinMaxMedian(t *testing.T) {
	s := New([]float64{5, 2, 8, 1, 9, 3})

	if s.Min() != 1 {
		t.Errorf("Expected min 1, got %f", s.Min())
	}
	if s.Max() != 9 {
		t.Errorf("Expected max 9, got %f", s.Max())
	}
	if s.Median() != 4 {
		t.Errorf("Expected median 4, got %f", s.Median())
	}

	empty := New(nil)
	if !math.IsNaN(empty.Min()) || !math.IsNaN(empty.Median()) {
		t.Error("Expected NaN for empty series")
	}
}

func TestSliceAndBetween(t *testing.T) {
	s, _ := NewWithTimes([]float64{2000, 2000.5, 2001, 2001.5}, []float64{1, 2, 3, 4})

	sub := s.Slice(1, 3)
	if sub.Len() != 2 || sub.Times[0] != 2000.5 || sub.Values[1] != 3 {
		t.Errorf("Unexpected slice: %+v", sub)
	}

	between := s.Between(2000.5, 2001)
	if between.Len() != 2 || between.Values[0] != 2 {
		t.Errorf("Unexpected between: %+v", between)
	}

	if s.Slice(3, 1).Len() != 0 {
		t.Error("Expected empty slice for start >= end")
	}
}

func TestCopyIsDeep(t *testing.T) {
	s := New([]float64{1, 2, 3})
	c := s.Copy()
	c.Values[0] = 100
	c.Times[0] = 100

	if s.Values[0] != 1 || s.Times[0] != 0 {
		t.Error("Copy shares storage with the original")
	}

	w := s.WithValues([]float64{7, 8, 9})
	w.Times[1] = -1
	if s.Times[1] != 1 {
		t.Error("WithValues shares times with the original")
	}
}

func TestSort(t *testing.T) {
	s, _ := NewWithTimes([]float64{3, 1, 2, 1}, []float64{30, 10, 20, 11})
	sorted := s.Sort()

	wantT := []float64{1, 1, 2, 3}
	wantV := []float64{10, 11, 20, 30}
	for i := range wantT {
		if sorted.Times[i] != wantT[i] || sorted.Values[i] != wantV[i] {
			t.Fatalf("Unexpected order: %v %v", sorted.Times, sorted.Values)
		}
	}
	if sorted.Validate() != nil {
		t.Error("Sorted series should validate")
	}
}
