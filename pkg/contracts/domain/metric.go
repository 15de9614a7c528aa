package domain

// Metric identifies the quantity a request aggregates.
type Metric string

const (
	MetricGas                   Metric = "gas_kwh"
	MetricElectricity           Metric = "electricity_kwh"
	MetricMass                  Metric = "mass_kg"
	MetricCarbon                Metric = "carbon_t"
	MetricGasPerMass            Metric = "gas_per_kg"
	MetricElectricityPerMass    Metric = "electricity_per_kg"
	MetricGasPrediction         Metric = "gas_prediction"
	MetricElectricityPrediction Metric = "electricity_prediction"
)

// MetricKind is the aggregation rule of a metric.
type MetricKind int

const (
	// KindSum aggregates a per-record value by summing it.
	KindSum MetricKind = iota
	// KindRatio sums numerator and denominator separately, then divides once.
	KindRatio
)

// metricRule is the single place a metric is bound to its aggregation rule.
type metricRule struct {
	kind       MetricKind
	label      string
	unit       string
	decimals   int
	regression bool
	value      func(Record) float64
	numerator  func(Record) float64
}

func gas(r Record) float64         { return r.GasKWh }
func electricity(r Record) float64 { return r.ElectricityKWh }
func mass(r Record) float64        { return r.MassKG }
func carbon(r Record) float64      { return r.CarbonT() }

var metricRules = map[Metric]metricRule{
	MetricGas:                   {kind: KindSum, label: "Gaz (kWh)", unit: "kWh", value: gas},
	MetricElectricity:           {kind: KindSum, label: "Electricité (kWh)", unit: "kWh", value: electricity},
	MetricMass:                  {kind: KindSum, label: "PE (kg)", unit: "kg", value: mass},
	MetricCarbon:                {kind: KindSum, label: "Empreinte carbone (tCO2)", unit: "tCO2", decimals: 2, value: carbon},
	MetricGasPerMass:            {kind: KindRatio, label: "Gaz (kWh/kg)", unit: "kWh/kg", decimals: 2, numerator: gas},
	MetricElectricityPerMass:    {kind: KindRatio, label: "Electricité (kWh/kg)", unit: "kWh/kg", decimals: 2, numerator: electricity},
	MetricGasPrediction:         {kind: KindRatio, label: "Prédiction Gaz (kWh/kg)", unit: "kWh/kg", decimals: 2, numerator: gas, regression: true},
	MetricElectricityPrediction: {kind: KindRatio, label: "Prédiction Electricité (kWh/kg)", unit: "kWh/kg", decimals: 2, numerator: electricity, regression: true},
}

// Metrics lists every supported metric in display order.
var Metrics = []Metric{
	MetricGas,
	MetricElectricity,
	MetricMass,
	MetricCarbon,
	MetricGasPerMass,
	MetricElectricityPerMass,
	MetricGasPrediction,
	MetricElectricityPrediction,
}

// Valid reports whether m is a known metric.
func (m Metric) Valid() bool {
	_, ok := metricRules[m]
	return ok
}

// Kind returns the aggregation rule of m.
func (m Metric) Kind() MetricKind { return metricRules[m].kind }

// Label returns the display name of m.
func (m Metric) Label() string { return metricRules[m].label }

// Unit returns the display unit of m.
func (m Metric) Unit() string { return metricRules[m].unit }

// Decimals returns the number of decimals m is displayed with.
func (m Metric) Decimals() int { return metricRules[m].decimals }

// Regression reports whether m is displayed as a fitted prediction.
func (m Metric) Regression() bool { return metricRules[m].regression }

// Value returns the additive contribution of r to a KindSum metric.
func (m Metric) Value(r Record) float64 {
	rule := metricRules[m]
	if rule.value == nil {
		return 0
	}
	return rule.value(r)
}

// Terms returns the numerator and denominator contributions of r to a KindRatio metric.
func (m Metric) Terms(r Record) (num, den float64) {
	rule := metricRules[m]
	if rule.numerator == nil {
		return 0, 0
	}
	return rule.numerator(r), r.MassKG
}

// RowValue returns the per-record value of m, used for outlier screening.
// ok is false when the value is undefined for r.
func (m Metric) RowValue(r Record) (v float64, ok bool) {
	if m.Kind() == KindSum {
		return m.Value(r), true
	}
	num, den := m.Terms(r)
	if den == 0 {
		return 0, false
	}
	return num / den, true
}
