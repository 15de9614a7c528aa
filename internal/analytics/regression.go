package analytics

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"energydash/pkg/contracts/domain"
)

// Fit runs an ordinary least squares fit of row value against row mass.
// Predicted values follow the order of rows.
func Fit(rows []domain.ResultRow) (*domain.RegressionResult, error) {
	n := float64(len(rows))
	distinct := make(map[float64]struct{}, len(rows))
	var sx, sy, sxx, sxy float64
	for _, r := range rows {
		x, y := r.MassKG, r.Value
		distinct[x] = struct{}{}
		sx += x
		sy += y
		sxx += x * x
		sxy += x * y
	}
	if len(distinct) < 2 {
		return nil, &RegressionError{Points: len(rows), Distinct: len(distinct)}
	}

	denom := n*sxx - sx*sx
	if denom == 0 {
		return nil, &RegressionError{Points: len(rows), Distinct: len(distinct)}
	}
	slope := (n*sxy - sx*sy) / denom
	intercept := (sy - slope*sx) / n

	predicted := make([]float64, len(rows))
	for i, r := range rows {
		predicted[i] = slope*r.MassKG + intercept
	}

	return &domain.RegressionResult{
		Slope:     slope,
		Intercept: intercept,
		Predicted: predicted,
		Equation:  Equation(slope, intercept),
		Points:    len(rows),
	}, nil
}

// Equation renders a fitted line as "y = 0.12x + 3.40".
func Equation(slope, intercept float64) string {
	s := decimal.NewFromFloat(slope).StringFixed(2)
	b := decimal.NewFromFloat(intercept).Round(2)
	sign := "+"
	if b.IsNegative() {
		sign = "-"
		b = b.Abs()
	}
	return fmt.Sprintf("y = %sx %s %s", s, sign, b.StringFixed(2))
}

// Regress aggregates records with req and fits the resulting rows. req must
// carry a ratio metric.
func Regress(ctx context.Context, records []domain.Record, req domain.AggregationRequest) (*domain.AggregationResult, *domain.RegressionResult, error) {
	if req.Metric.Kind() != domain.KindRatio {
		return nil, nil, invalid("metric %q cannot be regressed on mass", req.Metric)
	}
	res, err := Aggregate(ctx, records, req)
	if err != nil {
		return nil, nil, err
	}
	fit, err := Fit(res.Rows)
	if err != nil {
		return res, nil, err
	}
	return res, fit, nil
}
