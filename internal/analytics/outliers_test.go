package analytics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"energydash/pkg/contracts/domain"
)

func gasRecord(gas, mass float64) domain.Record {
	return domain.Record{Site: "A", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), GasKWh: gas, MassKG: mass}
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{0.25, 2},
		{0.5, 3},
		{0.1, 1.4},
		{1, 5},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.q), func(t *testing.T) {
			assert.InDelta(t, tt.want, quantile(sorted, tt.q), 1e-9)
		})
	}
	assert.Equal(t, 0.0, quantile(nil, 0.5))
}

func TestClipOutliers(t *testing.T) {
	var records []domain.Record
	for i := 1; i <= 100; i++ {
		records = append(records, gasRecord(float64(i), 1))
	}
	records = append(records,
		gasRecord(10000, 1),
		gasRecord(0, 1),
		gasRecord(5, 0),
	)

	t.Run("sum metric", func(t *testing.T) {
		kept, clipped := ClipOutliers(records, domain.MetricGas)
		assert.Len(t, kept, 101)
		assert.Equal(t, 2, clipped)
	})

	t.Run("ratio metric drops undefined values", func(t *testing.T) {
		kept, clipped := ClipOutliers(records, domain.MetricGasPerMass)
		assert.Len(t, kept, 100)
		assert.Equal(t, 3, clipped)
		for _, r := range kept {
			assert.NotEqual(t, 10000.0, r.GasKWh)
		}
	})

	t.Run("nothing usable", func(t *testing.T) {
		kept, clipped := ClipOutliers([]domain.Record{gasRecord(0, 0)}, domain.MetricGasPerMass)
		assert.Empty(t, kept)
		assert.Equal(t, 1, clipped)
	})
}
