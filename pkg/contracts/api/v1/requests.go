// Package api contains the v1 HTTP contract of the energy dashboard.
package api

import (
	"energydash/pkg/contracts/domain"
)

// LoginRequest carries the dashboard credential pair.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// AggregateRequest is the JSON form of a pipeline run. Start and End accept
// a period key ("202403"), a label ("March 2024"), a compact form
// ("2024-03") or a date.
type AggregateRequest struct {
	Dataset      string `json:"dataset" validate:"required,max=100"`
	Site         string `json:"site,omitempty" validate:"max=100"`
	SiteMode     string `json:"site_mode,omitempty" validate:"omitempty,sitemode"`
	Machine      string `json:"machine,omitempty" validate:"max=100"`
	Metric       string `json:"metric" validate:"required,metric"`
	Granularity  string `json:"granularity" validate:"required,granularity"`
	Start        string `json:"start,omitempty" validate:"period"`
	End          string `json:"end,omitempty" validate:"period"`
	GroupBy      string `json:"group_by,omitempty" validate:"omitempty,groupby"`
	ClipOutliers *bool  `json:"clip_outliers,omitempty"`
	PairedRatio  bool   `json:"paired_ratio,omitempty"`
}

// ExportRequest is an AggregateRequest downloaded as a file. Format is taken
// from the query string when the body leaves it empty.
type ExportRequest struct {
	AggregateRequest
	Format string `json:"format,omitempty" validate:"omitempty,oneof=csv xlsx"`
}

// ToDomain converts r into a pipeline request. Period bounds must already
// be resolved to keys by the caller.
func (r AggregateRequest) ToDomain(start, end int, clipDefault bool) domain.AggregationRequest {
	clip := clipDefault
	if r.ClipOutliers != nil {
		clip = *r.ClipOutliers
	}
	return domain.AggregationRequest{
		Dataset:      r.Dataset,
		SiteMode:     domain.SiteMode(r.SiteMode),
		Site:         r.Site,
		Machine:      r.Machine,
		Metric:       domain.Metric(r.Metric),
		Granularity:  domain.Granularity(r.Granularity),
		Start:        start,
		End:          end,
		GroupBy:      domain.GroupBy(r.GroupBy),
		ClipOutliers: clip,
		PairedRatio:  r.PairedRatio,
	}
}
