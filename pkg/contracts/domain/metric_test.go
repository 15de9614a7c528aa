package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricRules(t *testing.T) {
	r := Record{
		Site:           "PTWE89",
		Date:           time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		GasKWh:         2000,
		ElectricityKWh: 1000,
		MassKG:         400,
	}

	tests := []struct {
		name     string
		metric   Metric
		kind     MetricKind
		value    float64
		num, den float64
		decimals int
	}{
		{name: "gas", metric: MetricGas, kind: KindSum, value: 2000},
		{name: "electricity", metric: MetricElectricity, kind: KindSum, value: 1000},
		{name: "mass", metric: MetricMass, kind: KindSum, value: 400},
		{name: "carbon", metric: MetricCarbon, kind: KindSum, value: 2*0.181 + 1*0.0338, decimals: 2},
		{name: "gas ratio", metric: MetricGasPerMass, kind: KindRatio, num: 2000, den: 400, decimals: 2},
		{name: "electricity ratio", metric: MetricElectricityPerMass, kind: KindRatio, num: 1000, den: 400, decimals: 2},
		{name: "gas prediction", metric: MetricGasPrediction, kind: KindRatio, num: 2000, den: 400, decimals: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.metric.Valid())
			assert.Equal(t, tt.kind, tt.metric.Kind())
			assert.Equal(t, tt.decimals, tt.metric.Decimals())
			assert.NotEmpty(t, tt.metric.Label())
			if tt.kind == KindSum {
				assert.InDelta(t, tt.value, tt.metric.Value(r), 1e-9)
				return
			}
			num, den := tt.metric.Terms(r)
			assert.Equal(t, tt.num, num)
			assert.Equal(t, tt.den, den)
		})
	}
}

func TestMetricRegressionFlag(t *testing.T) {
	assert.True(t, MetricGasPrediction.Regression())
	assert.True(t, MetricElectricityPrediction.Regression())
	assert.False(t, MetricGasPerMass.Regression())
	assert.False(t, Metric("Gaz (kWh)").Valid())
}

func TestMetricRowValue(t *testing.T) {
	v, ok := MetricGasPerMass.RowValue(Record{GasKWh: 50, MassKG: 100})
	assert.True(t, ok)
	assert.Equal(t, 0.5, v)

	_, ok = MetricGasPerMass.RowValue(Record{GasKWh: 50})
	assert.False(t, ok)
}

func TestParseSiteSelection(t *testing.T) {
	tests := []struct {
		choice string
		mode   SiteMode
		site   string
	}{
		{"Global", SiteModeBreakdown, ""},
		{"", SiteModeBreakdown, ""},
		{"Total", SiteModeTotal, ""},
		{"PTWE35", SiteModeSingle, "PTWE35"},
	}
	for _, tt := range tests {
		mode, site := ParseSiteSelection(tt.choice)
		assert.Equal(t, tt.mode, mode, tt.choice)
		assert.Equal(t, tt.site, site, tt.choice)
	}
}

func TestAggregationRequestInRange(t *testing.T) {
	req := AggregationRequest{Start: 202401, End: 202403}
	assert.True(t, req.InRange(202401))
	assert.True(t, req.InRange(202403))
	assert.False(t, req.InRange(202312))
	assert.False(t, req.InRange(202404))

	open := AggregationRequest{}
	assert.True(t, open.InRange(190001))
}

func TestLoadReportDrop(t *testing.T) {
	var l LoadReport
	l.Drop("bad date")
	l.Drop("bad date")
	l.Drop("bad number")
	assert.Equal(t, 3, l.Dropped)
	assert.Equal(t, 2, l.Reasons["bad date"])
}
