package api

import (
	"time"

	"energydash/pkg/contracts/domain"
)

// SessionResponse describes the caller's session.
type SessionResponse struct {
	Authenticated bool                       `json:"authenticated"`
	AuthRequired  bool                       `json:"auth_required"`
	Username      string                     `json:"username,omitempty"`
	LastRequest   *domain.AggregationRequest `json:"last_request,omitempty"`
}

// DatasetInfo lists what a dataset offers for building requests.
type DatasetInfo struct {
	Name           string              `json:"name"`
	Records        int                 `json:"records"`
	Unresolved     int                 `json:"unresolved"`
	Sites          []string            `json:"sites"`
	Machines       []string            `json:"machines,omitempty"`
	MachinesBySite map[string][]string `json:"machines_by_site,omitempty"`
	DefaultGroupBy domain.GroupBy      `json:"default_group_by"`
	Bounds         map[string]KeyRange `json:"bounds"`
}

// KeyRange is the first and last period of a dataset at one granularity.
type KeyRange struct {
	First      int    `json:"first"`
	Last       int    `json:"last"`
	FirstLabel string `json:"first_label"`
	LastLabel  string `json:"last_label"`
}

// DatasetsResponse is returned by the dataset listing.
type DatasetsResponse struct {
	Datasets     []DatasetInfo       `json:"datasets"`
	Reports      []domain.LoadReport `json:"reports"`
	LoadedAt     time.Time           `json:"loaded_at"`
	Metrics      []MetricInfo        `json:"metrics"`
	Granularity  []string            `json:"granularities"`
	ClipOutliers bool                `json:"clip_outliers_default"`
}

// MetricInfo describes one selectable metric.
type MetricInfo struct {
	Name       domain.Metric `json:"name"`
	Label      string        `json:"label"`
	Unit       string        `json:"unit"`
	Ratio      bool          `json:"ratio"`
	Regression bool          `json:"regression"`
}

// AggregateResponse is the full output of a pipeline run.
type AggregateResponse struct {
	Request domain.AggregationRequest `json:"request"`
	Result  *domain.AggregationResult `json:"result"`
	Table   domain.DisplayTable       `json:"table"`
	Chart   domain.ChartConfig        `json:"chart"`
}

// RegressionResponse adds the fitted line to an AggregateResponse.
type RegressionResponse struct {
	AggregateResponse
	Regression *domain.RegressionResult `json:"regression"`
}

// ReloadResponse summarises a snapshot reload.
type ReloadResponse struct {
	Datasets []string            `json:"datasets"`
	Reports  []domain.LoadReport `json:"reports"`
	LoadedAt time.Time           `json:"loaded_at"`
	Duration string              `json:"duration"`
}
