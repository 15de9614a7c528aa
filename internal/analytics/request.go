package analytics

import (
	"energydash/pkg/contracts/domain"
)

// Normalize fills request defaults and checks the enum fields. defaultGroup
// is used when the request leaves GroupBy empty.
func Normalize(req domain.AggregationRequest, defaultGroup domain.GroupBy) (domain.AggregationRequest, error) {
	if req.SiteMode == "" {
		req.SiteMode, req.Site = domain.ParseSiteSelection(req.Site)
	}
	if req.GroupBy == "" {
		req.GroupBy = defaultGroup
	}
	if req.GroupBy == "" {
		req.GroupBy = domain.GroupBySite
	}

	if !req.Metric.Valid() {
		return req, invalid("unknown metric %q", req.Metric)
	}
	if !req.Granularity.Valid() {
		return req, invalid("unknown granularity %q", req.Granularity)
	}
	if !req.SiteMode.Valid() {
		return req, invalid("unknown site mode %q", req.SiteMode)
	}
	if !req.GroupBy.Valid() {
		return req, invalid("unknown group_by %q", req.GroupBy)
	}
	if req.SiteMode == domain.SiteModeSingle && req.Site == "" {
		return req, invalid("site is required in single site mode")
	}
	if req.Start != 0 && req.End != 0 && req.Start > req.End {
		return req, invalid("start %d is after end %d", req.Start, req.End)
	}
	return req, nil
}
