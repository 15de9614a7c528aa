package analytics

import (
	"sort"

	"energydash/pkg/contracts/domain"
)

// SingleSeriesColor is used when a chart has only one series.
const SingleSeriesColor = "lightblue"

// palette is the Plotly Light24 qualitative sequence.
var palette = []string{
	"#FD3216", "#00FE35", "#6A76FC", "#FED4C4", "#FE00CE", "#0DF9FF",
	"#F6F926", "#FF9616", "#479B55", "#EEA6FB", "#DC587D", "#D626FF",
	"#6E899C", "#00B5F7", "#B68E00", "#C9FBE5", "#FF0092", "#22FFA7",
	"#E3EE9E", "#86CE00", "#BC7196", "#7E7DCD", "#FC6955", "#E48F72",
}

// SeriesColor returns the color of series i out of total.
func SeriesColor(i, total int) string {
	if total <= 1 {
		return SingleSeriesColor
	}
	return palette[i%len(palette)]
}

// BuildChart draws res as grouped bars, one series per group. Each series
// holds only the rows of its own group.
func BuildChart(res *domain.AggregationResult) domain.ChartConfig {
	groups := res.Groups()
	sort.Strings(groups)
	index := make(map[string]int, len(groups))
	series := make([]domain.ChartSeries, len(groups))
	for i, g := range groups {
		index[g] = i
		series[i] = domain.ChartSeries{
			Name:  g,
			Type:  domain.SeriesBar,
			Color: SeriesColor(i, len(groups)),
			Data:  []domain.ChartPoint{},
		}
	}
	for _, row := range res.Rows {
		s := &series[index[row.Group]]
		s.Data = append(s.Data, domain.ChartPoint{Label: row.Label, Value: row.Value})
	}

	return domain.ChartConfig{
		Title:      res.Metric.Label(),
		XAxis:      ColumnPeriod,
		YAxis:      res.Metric.Unit(),
		Series:     series,
		ShowLegend: len(series) > 1,
	}
}

// BuildRegressionChart draws the aggregated points of res against mass and
// the fitted line of fit.
func BuildRegressionChart(res *domain.AggregationResult, fit *domain.RegressionResult) domain.ChartConfig {
	points := domain.ChartSeries{
		Name:  res.Metric.Label(),
		Type:  domain.SeriesScatter,
		Color: SingleSeriesColor,
		Data:  make([]domain.ChartPoint, 0, len(res.Rows)),
	}
	line := domain.ChartSeries{
		Name:  fit.Equation,
		Type:  domain.SeriesLine,
		Color: palette[0],
		Data:  make([]domain.ChartPoint, 0, len(res.Rows)),
	}
	for i, row := range res.Rows {
		points.Data = append(points.Data, domain.ChartPoint{Label: row.Label, X: row.MassKG, Value: row.Value})
		line.Data = append(line.Data, domain.ChartPoint{Label: row.Label, X: row.MassKG, Value: fit.Predicted[i]})
	}
	sort.SliceStable(line.Data, func(i, j int) bool { return line.Data[i].X < line.Data[j].X })

	return domain.ChartConfig{
		Title:      res.Metric.Label(),
		XAxis:      domain.MetricMass.Label(),
		YAxis:      res.Metric.Unit(),
		Series:     []domain.ChartSeries{points, line},
		ShowLegend: true,
		Equation:   fit.Equation,
	}
}
