package models

import (
	"math"
	"testing"
)

func TestSelectFourierOrder(t *testing.T) {
	times := monthlyTimes(1990, 240)
	series := synthetic(times, func(t float64) float64 { return 0.02*(t-1990) + seasonal(t) }, 0.05, 1)

	factory := func(order int) LeastSquares { return NewLinearTrendFourier(order) }
	sel, err := SelectFourierOrder(series, factory, 5, CriterionBIC)
	if err != nil {
		t.Fatalf("SelectFourierOrder failed: %v", err)
	}

	t.Logf("scores: %v", sel.Scores)

	if sel.Order != 2 {
		t.Errorf("Expected order 2, got %d", sel.Order)
	}
	if len(sel.Scores) != 6 {
		t.Errorf("Expected 6 scores, got %d", len(sel.Scores))
	}
	if sel.Model.Order() != sel.Order {
		t.Errorf("Selected model has order %d", sel.Model.Order())
	}
	if sel.Scores[0] <= sel.Score {
		t.Error("Order 0 should score worse than the selected order")
	}
}

func TestSelectFourierOrderErrors(t *testing.T) {
	series := synthetic(monthlyTimes(0, 24), seasonal, 0.01, 2)
	factory := func(order int) LeastSquares { return NewLinearNoTrendFourier(order) }

	if _, err := SelectFourierOrder(series, factory, 3, "hqic"); err == nil {
		t.Error("Expected error for unknown criterion")
	}
	if _, err := SelectFourierOrder(series, factory, -1, ""); err == nil {
		t.Error("Expected error for negative max order")
	}

	short := synthetic(monthlyTimes(0, 1), seasonal, 0, 0)
	if _, err := SelectFourierOrder(short, factory, 2, CriterionAIC); err == nil {
		t.Error("Expected error when no order can be fitted")
	}
}

func TestSelectFourierOrderSkipsFailures(t *testing.T) {
	// 10 points can hold at most order 4 without a trend.
	series := synthetic(monthlyTimes(0, 10), func(t float64) float64 { return 1 + seasonal(t) }, 0.01, 3)
	factory := func(order int) LeastSquares { return NewLinearNoTrendFourier(order) }

	sel, err := SelectFourierOrder(series, factory, 6, CriterionAIC)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(sel.Scores[6], 1) || !math.IsInf(sel.Scores[5], 1) {
		t.Errorf("Expected failed orders to score +Inf: %v", sel.Scores)
	}
}
