package models

import (
	"fmt"
	"math"

	"github.com/sartorproj/gotrendfit/timeseries"
)

// Criterion names accepted by SelectFourierOrder.
const (
	CriterionAIC  = "aic"
	CriterionAICc = "aicc"
	CriterionBIC  = "bic"
)

// Factory builds an unfitted least squares model of a given Fourier order.
type Factory func(order int) LeastSquares

// Selection is the result of SelectFourierOrder.
type Selection struct {
	Order     int
	Model     LeastSquares
	Criterion string
	Score     float64
	Scores    []float64 // Score per order, +Inf where the fit failed
}

// SelectFourierOrder fits orders 0..maxOrder and keeps the one with the
// lowest information criterion.
func SelectFourierOrder(series *timeseries.Series, factory Factory, maxOrder int, criterion string) (*Selection, error) {
	if criterion == "" {
		criterion = CriterionAIC
	}
	switch criterion {
	case CriterionAIC, CriterionAICc, CriterionBIC:
	default:
		return nil, fmt.Errorf("unknown information criterion %q", criterion)
	}
	if maxOrder < 0 {
		return nil, fmt.Errorf("max order must be non-negative, got %d", maxOrder)
	}

	sel := &Selection{
		Order:     -1,
		Criterion: criterion,
		Score:     math.Inf(1),
		Scores:    make([]float64, maxOrder+1),
	}

	var firstErr error
	for order := 0; order <= maxOrder; order++ {
		sel.Scores[order] = math.Inf(1)

		m := factory(order)
		if err := m.Fit(series); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		ic, err := InformationCriteria(m)
		if err != nil {
			return nil, err
		}

		score := ic.AIC
		switch criterion {
		case CriterionAICc:
			score = ic.AICc
		case CriterionBIC:
			score = ic.BIC
		}
		sel.Scores[order] = score

		if score < sel.Score {
			sel.Score = score
			sel.Order = order
			sel.Model = m
		}
	}

	if sel.Model == nil {
		return nil, fmt.Errorf("no Fourier order could be fitted: %w", firstErr)
	}
	return sel, nil
}
