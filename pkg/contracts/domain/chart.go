package domain

// Chart series types.
const (
	SeriesBar     = "bar"
	SeriesScatter = "scatter"
	SeriesLine    = "line"
)

// ChartConfig describes how a result is drawn.
type ChartConfig struct {
	Title      string        `json:"title"`
	XAxis      string        `json:"x_axis,omitempty"`
	YAxis      string        `json:"y_axis,omitempty"`
	Series     []ChartSeries `json:"series"`
	ShowLegend bool          `json:"show_legend"`
	// Equation is set on regression charts.
	Equation string `json:"equation,omitempty"`
}

// ChartSeries is one trace of a chart.
type ChartSeries struct {
	Name  string       `json:"name"`
	Type  string       `json:"type"`
	Color string       `json:"color,omitempty"`
	Data  []ChartPoint `json:"data"`
}

// ChartPoint is a single point of a series. X is set on numeric axes,
// Label on categorical ones.
type ChartPoint struct {
	Label string  `json:"label,omitempty"`
	X     float64 `json:"x,omitempty"`
	Value float64 `json:"value"`
}
