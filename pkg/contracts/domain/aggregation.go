package domain

// AggregationRequest describes one run of the pipeline. Start and End are
// inclusive period keys of Granularity; zero leaves that side open.
type AggregationRequest struct {
	Dataset      string      `json:"dataset"`
	SiteMode     SiteMode    `json:"site_mode"`
	Site         string      `json:"site,omitempty"`
	Machine      string      `json:"machine,omitempty"`
	Metric       Metric      `json:"metric"`
	Granularity  Granularity `json:"granularity"`
	Start        int         `json:"start,omitempty"`
	End          int         `json:"end,omitempty"`
	GroupBy      GroupBy     `json:"group_by,omitempty"`
	ClipOutliers bool        `json:"clip_outliers,omitempty"`
	PairedRatio  bool        `json:"paired_ratio,omitempty"`
}

// InRange reports whether key falls inside the request's period range.
func (r AggregationRequest) InRange(key int) bool {
	if r.Start != 0 && key < r.Start {
		return false
	}
	if r.End != 0 && key > r.End {
		return false
	}
	return true
}

// ResultRow is one (period, group) cell of an aggregation.
type ResultRow struct {
	PeriodKey   int     `json:"period_key"`
	Label       string  `json:"label"`
	Group       string  `json:"group"`
	Value       float64 `json:"value"`
	Numerator   float64 `json:"numerator,omitempty"`
	Denominator float64 `json:"denominator,omitempty"`
	MassKG      float64 `json:"mass_kg"`
	Records     int     `json:"records"`
}

// AggregationResult is the sorted output of the pipeline, ordered by
// period key then group name.
type AggregationResult struct {
	Dataset     string      `json:"dataset"`
	Metric      Metric      `json:"metric"`
	Granularity Granularity `json:"granularity"`
	GroupBy     GroupBy     `json:"group_by"`
	Rows        []ResultRow `json:"rows"`
	// Excluded counts groups left out because their ratio denominator was zero.
	Excluded int `json:"excluded"`
	// Clipped counts records removed by outlier screening.
	Clipped int `json:"clipped"`
	// Unresolved counts records skipped for lack of a site.
	Unresolved int `json:"unresolved"`
}

// Groups returns the distinct group names of the result in first-seen order.
func (r *AggregationResult) Groups() []string {
	seen := make(map[string]bool)
	var groups []string
	for _, row := range r.Rows {
		if !seen[row.Group] {
			seen[row.Group] = true
			groups = append(groups, row.Group)
		}
	}
	return groups
}

// RegressionResult is an OLS fit of ratio on mass over aggregated rows.
type RegressionResult struct {
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	Predicted []float64 `json:"predicted"`
	Equation  string    `json:"equation"`
	Points    int       `json:"points"`
}

// DisplayRow is a formatted row of the display table.
type DisplayRow struct {
	Period string `json:"period"`
	Group  string `json:"group"`
	Value  string `json:"value"`
}

// DisplayTable is the presentation projection of an AggregationResult.
type DisplayTable struct {
	Columns []string     `json:"columns"`
	Rows    []DisplayRow `json:"rows"`
}

// LoadReport summarises the ingestion of one source.
type LoadReport struct {
	Source     string         `json:"source"`
	Dataset    string         `json:"dataset"`
	Rows       int            `json:"rows"`
	Dropped    int            `json:"dropped"`
	Unresolved int            `json:"unresolved"`
	Reasons    map[string]int `json:"reasons,omitempty"`
}

// Drop records one dropped row under reason.
func (l *LoadReport) Drop(reason string) {
	if l.Reasons == nil {
		l.Reasons = make(map[string]int)
	}
	l.Dropped++
	l.Reasons[reason]++
}
