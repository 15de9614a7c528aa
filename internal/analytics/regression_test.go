package analytics_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energydash/internal/analytics"
	"energydash/internal/shared/testutil"
	"energydash/pkg/contracts/domain"
)

func rows(points ...[2]float64) []domain.ResultRow {
	out := make([]domain.ResultRow, len(points))
	for i, p := range points {
		out[i] = domain.ResultRow{MassKG: p[0], Value: p[1]}
	}
	return out
}

func TestFit(t *testing.T) {
	fit, err := analytics.Fit(rows([2]float64{1, 5}, [2]float64{2, 7}, [2]float64{3, 9}))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, fit.Slope, 1e-9)
	assert.InDelta(t, 3.0, fit.Intercept, 1e-9)
	assert.Equal(t, "y = 2.00x + 3.00", fit.Equation)
	assert.Equal(t, 3, fit.Points)
	require.Len(t, fit.Predicted, 3)
	assert.InDelta(t, 5.0, fit.Predicted[0], 1e-9)
	assert.InDelta(t, 9.0, fit.Predicted[2], 1e-9)
}

func TestFitPredictionsFollowInputOrder(t *testing.T) {
	fit, err := analytics.Fit(rows([2]float64{3, 9}, [2]float64{1, 5}, [2]float64{2, 7}))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{9, 5, 7}, fit.Predicted, 1e-9)
}

func TestFitInsufficientData(t *testing.T) {
	tests := []struct {
		name         string
		input        []domain.ResultRow
		wantDistinct int
	}{
		{"empty", nil, 0},
		{"single point", rows([2]float64{10, 1}), 1},
		{"one distinct mass", rows([2]float64{10, 1}, [2]float64{10, 2}, [2]float64{10, 3}), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fit, err := analytics.Fit(tt.input)
			assert.Nil(t, fit)
			require.ErrorIs(t, err, analytics.ErrInsufficientData)

			var regErr *analytics.RegressionError
			require.True(t, errors.As(err, &regErr))
			assert.Equal(t, len(tt.input), regErr.Points)
			assert.Equal(t, tt.wantDistinct, regErr.Distinct)
		})
	}
}

func TestEquation(t *testing.T) {
	tests := []struct {
		slope, intercept float64
		want             string
	}{
		{0.12, 3.4, "y = 0.12x + 3.40"},
		{0.12, -3.4, "y = 0.12x - 3.40"},
		{-1.005, 0, "y = -1.01x + 0.00"},
		{0, 12.345, "y = 0.00x + 12.35"},
		{1, -0.001, "y = 1.00x + 0.00"},
		{1, -0.005, "y = 1.00x - 0.01"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, analytics.Equation(tt.slope, tt.intercept))
		})
	}
}

func TestRegress(t *testing.T) {
	records := []domain.Record{
		testutil.Rec(t, "A", "", "2024-01-10", 100, 0, 100),
		testutil.Rec(t, "A", "", "2024-02-10", 300, 0, 200),
		testutil.Rec(t, "A", "", "2024-03-10", 600, 0, 300),
	}
	req := request(t, domain.AggregationRequest{Site: "A", Metric: domain.MetricGasPrediction})

	res, fit, err := analytics.Regress(context.Background(), records, req)
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	assert.InDelta(t, 0.005, fit.Slope, 1e-9)
	assert.InDelta(t, 0.5, fit.Intercept, 1e-9)

	chart := analytics.BuildRegressionChart(res, fit)
	require.Len(t, chart.Series, 2)
	assert.Equal(t, domain.SeriesScatter, chart.Series[0].Type)
	assert.Equal(t, domain.SeriesLine, chart.Series[1].Type)
	assert.Equal(t, fit.Equation, chart.Equation)
}

func TestRegressPairedRatioUsesPairedMass(t *testing.T) {
	records := []domain.Record{
		testutil.Rec(t, "A", "", "2024-01-10", 100, 0, 100),
		testutil.Rec(t, "A", "", "2024-01-20", 0, 0, 900),
		testutil.Rec(t, "A", "", "2024-02-10", 300, 0, 200),
		testutil.Rec(t, "A", "", "2024-02-20", 0, 0, 500),
		testutil.Rec(t, "A", "", "2024-03-10", 600, 0, 300),
	}
	req := request(t, domain.AggregationRequest{Site: "A", Metric: domain.MetricGasPrediction, PairedRatio: true})

	res, fit, err := analytics.Regress(context.Background(), records, req)
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)
	for _, row := range res.Rows {
		assert.Equal(t, row.Denominator, row.MassKG, "x matches the ratio denominator in %s", row.Label)
	}
	assert.InDelta(t, 1.0, res.Rows[0].Value, 1e-9)
	assert.InDelta(t, 100.0, res.Rows[0].MassKG, 1e-9)
	assert.InDelta(t, 0.005, fit.Slope, 1e-9)
	assert.InDelta(t, 0.5, fit.Intercept, 1e-9)

	chart := analytics.BuildRegressionChart(res, fit)
	assert.InDelta(t, 100.0, chart.Series[0].Data[0].X, 1e-9)
}

func TestRegressSingleMass(t *testing.T) {
	records := []domain.Record{
		testutil.Rec(t, "A", "", "2024-01-10", 100, 0, 100),
		testutil.Rec(t, "A", "", "2024-02-10", 300, 0, 100),
	}
	req := request(t, domain.AggregationRequest{Site: "A", Metric: domain.MetricGasPerMass})

	res, fit, err := analytics.Regress(context.Background(), records, req)
	require.ErrorIs(t, err, analytics.ErrInsufficientData)
	assert.Nil(t, fit)
	assert.Len(t, res.Rows, 2)
}

func TestRegressRejectsSumMetric(t *testing.T) {
	req := request(t, domain.AggregationRequest{Metric: domain.MetricGas})
	_, _, err := analytics.Regress(context.Background(), nil, req)
	assert.ErrorIs(t, err, analytics.ErrInvalidRequest)
}
