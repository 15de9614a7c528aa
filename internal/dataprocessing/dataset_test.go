package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"energydash/internal/shared/testutil"
	"energydash/pkg/contracts/domain"
)

func TestDataset(t *testing.T) {
	ds := NewDataset("machines", []domain.Record{
		testutil.Rec(t, "PTWE35", "F2", "2024-03-15", 10, 1, 5),
		testutil.Rec(t, "PTWE35", "F1", "2023-12-30", 10, 1, 5),
		testutil.Rec(t, "PTWE89", "F7", "2024-01-02", 10, 1, 5),
		testutil.Rec(t, "", "F9", "2022-01-02", 10, 1, 5),
	})

	assert.Equal(t, []string{"PTWE35", "PTWE89"}, ds.Sites)
	assert.Equal(t, []string{"F1", "F2", "F7"}, ds.Machines, "unresolved records add no options")
	assert.Equal(t, []string{"F1", "F2"}, ds.MachinesBySite["PTWE35"])
	assert.Equal(t, 1, ds.Unresolved)
	assert.True(t, ds.HasMachines())
	assert.Equal(t, domain.GroupByMachine, ds.DefaultGroupBy())
	assert.True(t, ds.HasSite("PTWE89"))
	assert.False(t, ds.HasSite("PTWE42"))

	first, last, ok := ds.Bounds(domain.GranularityMonth)
	assert.True(t, ok)
	assert.Equal(t, 202312, first)
	assert.Equal(t, 202403, last)

	assert.Equal(t, []int{202312, 202401, 202403}, ds.Periods(domain.GranularityMonth))
	assert.Equal(t, []int{202352, 202401, 202411}, ds.Periods(domain.GranularityWeek))
}

func TestEmptyDataset(t *testing.T) {
	ds := NewDataset("empty", nil)
	_, _, ok := ds.Bounds(domain.GranularityYear)
	assert.False(t, ok)
	assert.Empty(t, ds.Periods(domain.GranularityYear))
	assert.Equal(t, domain.GroupBySite, ds.DefaultGroupBy())
}
