package analytics

import (
	"math"

	"github.com/shopspring/decimal"

	"energydash/pkg/contracts/domain"
)

// Display table column headers.
const (
	ColumnPeriod  = "Période"
	ColumnSite    = "Site"
	ColumnMachine = "Machine"
)

// FormatValue renders v with the decimals of m. Values that are not
// positive finite numbers render as the empty string.
func FormatValue(m domain.Metric, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return ""
	}
	return decimal.NewFromFloat(v).StringFixed(int32(m.Decimals()))
}

// Display projects res onto its display table. Rows whose value does not
// format are left out.
func Display(res *domain.AggregationResult) domain.DisplayTable {
	group := ColumnSite
	if res.GroupBy == domain.GroupByMachine {
		group = ColumnMachine
	}
	table := domain.DisplayTable{
		Columns: []string{ColumnPeriod, group, res.Metric.Label()},
		Rows:    make([]domain.DisplayRow, 0, len(res.Rows)),
	}
	for _, row := range res.Rows {
		v := FormatValue(res.Metric, row.Value)
		if v == "" {
			continue
		}
		table.Rows = append(table.Rows, domain.DisplayRow{
			Period: row.Label,
			Group:  row.Group,
			Value:  v,
		})
	}
	return table
}
