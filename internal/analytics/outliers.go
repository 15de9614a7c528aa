package analytics

import (
	"math"
	"sort"

	"energydash/pkg/contracts/domain"
)

// Outlier fence parameters. Q1 and Q3 are taken at the 1st and 99th percentiles.
const (
	lowerQuantile = 0.01
	upperQuantile = 0.99
	fenceFactor   = 1.5
)

// ClipOutliers drops records whose per-record metric value is undefined,
// non-positive, or outside [Q1-1.5·IQR, Q3+1.5·IQR]. It returns the kept
// records and the number removed.
func ClipOutliers(records []domain.Record, m domain.Metric) ([]domain.Record, int) {
	kept := make([]domain.Record, 0, len(records))
	values := make([]float64, 0, len(records))
	for _, r := range records {
		v, ok := m.RowValue(r)
		if !ok || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		kept = append(kept, r)
		values = append(values, v)
	}
	if len(values) == 0 {
		return kept, len(records)
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	q1 := quantile(sorted, lowerQuantile)
	q3 := quantile(sorted, upperQuantile)
	iqr := q3 - q1
	low, high := q1-fenceFactor*iqr, q3+fenceFactor*iqr

	out := kept[:0]
	for i, r := range kept {
		if values[i] >= low && values[i] <= high {
			out = append(out, r)
		}
	}
	return out, len(records) - len(out)
}

// quantile returns the q-quantile of sorted values with linear
// interpolation between closest ranks.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
