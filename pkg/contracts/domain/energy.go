package domain

import (
	"time"
)

// Record is one observation row of a source table.
// An empty Site means the site could not be resolved from the source.
type Record struct {
	Site           string    `json:"site"`
	Machine        string    `json:"machine,omitempty"`
	Date           time.Time `json:"date"`
	GasKWh         float64   `json:"gas_kwh"`
	ElectricityKWh float64   `json:"electricity_kwh"`
	MassKG         float64   `json:"mass_kg"`
	Calendar       Calendar  `json:"calendar"`
}

// Resolved reports whether the record carries a known site.
func (r Record) Resolved() bool {
	return r.Site != ""
}

// CarbonT returns the carbon equivalent of the record in tonnes CO2.
func (r Record) CarbonT() float64 {
	return r.GasKWh/1000*GasEmissionFactor + r.ElectricityKWh/1000*ElectricityEmissionFactor
}

// Emission factors in tCO2 per MWh.
const (
	GasEmissionFactor         = 0.181
	ElectricityEmissionFactor = 0.0338
)

// Calendar holds the period representations derived from a record date.
type Calendar struct {
	Year       int `json:"year"`
	Month      int `json:"month"`
	Day        int `json:"day"`
	Quarter    int `json:"quarter"`
	ISOYear    int `json:"iso_year"`
	ISOWeek    int `json:"iso_week"`
	MonthKey   int `json:"month_key"`
	WeekKey    int `json:"week_key"`
	QuarterKey int `json:"quarter_key"`
	DayKey     int `json:"day_key"`
}

// Key returns the integer period key of the calendar for granularity g.
func (c Calendar) Key(g Granularity) int {
	switch g {
	case GranularityYear:
		return c.Year
	case GranularityQuarter:
		return c.QuarterKey
	case GranularityMonth:
		return c.MonthKey
	case GranularityWeek:
		return c.WeekKey
	case GranularityDay:
		return c.DayKey
	default:
		return 0
	}
}

// Granularity is the period bucket size of an aggregation.
type Granularity string

const (
	GranularityYear    Granularity = "year"
	GranularityQuarter Granularity = "quarter"
	GranularityMonth   Granularity = "month"
	GranularityWeek    Granularity = "week"
	GranularityDay     Granularity = "day"
)

// Granularities lists every supported granularity, coarsest first.
var Granularities = []Granularity{
	GranularityYear,
	GranularityQuarter,
	GranularityMonth,
	GranularityWeek,
	GranularityDay,
}

// Valid reports whether g is a known granularity.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityYear, GranularityQuarter, GranularityMonth, GranularityWeek, GranularityDay:
		return true
	}
	return false
}

// SiteMode selects how records are grouped across sites.
type SiteMode string

const (
	// SiteModeSingle keeps only the records of one named site.
	SiteModeSingle SiteMode = "single"
	// SiteModeBreakdown produces one series per site.
	SiteModeBreakdown SiteMode = "breakdown"
	// SiteModeTotal collapses every site into a single series.
	SiteModeTotal SiteMode = "total"
)

// Names used by the dashboards for the two multi-site modes.
const (
	SiteGlobal = "Global"
	SiteTotal  = "Total"
)

// Valid reports whether m is a known site mode.
func (m SiteMode) Valid() bool {
	return m == SiteModeSingle || m == SiteModeBreakdown || m == SiteModeTotal
}

// ParseSiteSelection maps a dashboard site choice onto a mode and site name.
func ParseSiteSelection(choice string) (SiteMode, string) {
	switch choice {
	case "", SiteGlobal:
		return SiteModeBreakdown, ""
	case SiteTotal:
		return SiteModeTotal, ""
	default:
		return SiteModeSingle, choice
	}
}

// GroupBy is the dimension that separates series in a result.
type GroupBy string

const (
	GroupBySite    GroupBy = "site"
	GroupByMachine GroupBy = "machine"
)

// Valid reports whether g is a known grouping dimension.
func (g GroupBy) Valid() bool {
	return g == GroupBySite || g == GroupByMachine
}
