package analytics

import (
	"context"
	"sort"

	"energydash/internal/period"
	"energydash/pkg/contracts/domain"
)

// groupKey identifies one output cell.
type groupKey struct {
	period int
	group  string
}

// accumulator holds the running sums of one cell.
type accumulator struct {
	sum     float64
	num     float64
	den     float64
	mass    float64
	records int
}

// Aggregate runs req over records. req must have passed Normalize.
// The context is checked between stages so a superseded request stops early.
func Aggregate(ctx context.Context, records []domain.Record, req domain.AggregationRequest) (*domain.AggregationResult, error) {
	res := &domain.AggregationResult{
		Dataset:     req.Dataset,
		Metric:      req.Metric,
		Granularity: req.Granularity,
		GroupBy:     req.GroupBy,
		Rows:        []domain.ResultRow{},
	}

	selected, unresolved := Filter(records, req)
	res.Unresolved = unresolved
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if req.ClipOutliers {
		selected, res.Clipped = ClipOutliers(selected, req.Metric)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	cells := make(map[groupKey]*accumulator)
	ratio := req.Metric.Kind() == domain.KindRatio
	for _, r := range selected {
		k := groupKey{period: r.Calendar.Key(req.Granularity), group: groupName(r, req)}
		acc := cells[k]
		if acc == nil {
			acc = &accumulator{}
			cells[k] = acc
		}
		acc.records++
		acc.mass += r.MassKG

		if !ratio {
			acc.sum += req.Metric.Value(r)
			continue
		}
		num, den := req.Metric.Terms(r)
		if req.PairedRatio {
			// energy only where mass was produced, mass only where energy was used
			if den > 0 {
				acc.num += num
			}
			if num > 0 {
				acc.den += den
			}
			continue
		}
		acc.num += num
		acc.den += den
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for k, acc := range cells {
		row := domain.ResultRow{
			PeriodKey: k.period,
			Label:     period.Format(req.Granularity, k.period),
			Group:     k.group,
			MassKG:    acc.mass,
			Records:   acc.records,
		}
		if ratio {
			if acc.den == 0 {
				res.Excluded++
				continue
			}
			row.Numerator = acc.num
			row.Denominator = acc.den
			row.Value = acc.num / acc.den
			if req.PairedRatio {
				// the regression x must be the mass behind the ratio
				row.MassKG = acc.den
			}
		} else {
			row.Value = acc.sum
		}
		res.Rows = append(res.Rows, row)
	}

	SortRows(res.Rows)
	return res, nil
}

// Filter keeps the records matching the site, machine and period range of
// req. Records without a resolved site are never kept and are counted.
func Filter(records []domain.Record, req domain.AggregationRequest) ([]domain.Record, int) {
	out := make([]domain.Record, 0, len(records))
	unresolved := 0
	for _, r := range records {
		if !r.Resolved() {
			unresolved++
			continue
		}
		if req.SiteMode == domain.SiteModeSingle && r.Site != req.Site {
			continue
		}
		if req.Machine != "" && r.Machine != req.Machine {
			continue
		}
		if !req.InRange(r.Calendar.Key(req.Granularity)) {
			continue
		}
		out = append(out, r)
	}
	return out, unresolved
}

// groupName returns the series a record contributes to.
func groupName(r domain.Record, req domain.AggregationRequest) string {
	if req.SiteMode == domain.SiteModeTotal {
		return domain.SiteTotal
	}
	if req.GroupBy == domain.GroupByMachine && r.Machine != "" {
		return r.Machine
	}
	return r.Site
}

// SortRows orders rows by period key, then group name.
func SortRows(rows []domain.ResultRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].PeriodKey != rows[j].PeriodKey {
			return rows[i].PeriodKey < rows[j].PeriodKey
		}
		return rows[i].Group < rows[j].Group
	})
}
