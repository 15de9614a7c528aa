package dataprocessing

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"energydash/internal/period"
	"energydash/pkg/contracts/domain"
)

// Dataset is an immutable table of records with its option lists
// precomputed. It must not be modified after NewDataset returns.
type Dataset struct {
	Name    string
	Records []domain.Record

	// Sites lists the resolved sites, sorted.
	Sites []string
	// Machines lists machine labels, sorted. Empty when the dataset has no
	// machine column.
	Machines       []string
	MachinesBySite map[string][]string
	// Unresolved counts records without a site.
	Unresolved int
}

// NewDataset indexes records under name.
func NewDataset(name string, records []domain.Record) *Dataset {
	ds := &Dataset{Name: name, Records: records, MachinesBySite: make(map[string][]string)}

	sites := make(map[string]bool)
	machines := make(map[string]bool)
	bySite := make(map[string]map[string]bool)
	for _, r := range records {
		if !r.Resolved() {
			ds.Unresolved++
			continue
		}
		sites[r.Site] = true
		if r.Machine == "" {
			continue
		}
		machines[r.Machine] = true
		if bySite[r.Site] == nil {
			bySite[r.Site] = make(map[string]bool)
		}
		bySite[r.Site][r.Machine] = true
	}

	ds.Sites = sortedKeys(sites)
	ds.Machines = sortedKeys(machines)
	for site, m := range bySite {
		ds.MachinesBySite[site] = sortedKeys(m)
	}
	return ds
}

// HasMachines reports whether records carry a machine dimension.
func (d *Dataset) HasMachines() bool {
	return len(d.Machines) > 0
}

// DefaultGroupBy is machine for machine-level datasets and site otherwise.
func (d *Dataset) DefaultGroupBy() domain.GroupBy {
	if d.HasMachines() {
		return domain.GroupByMachine
	}
	return domain.GroupBySite
}

// HasSite reports whether site occurs in the dataset.
func (d *Dataset) HasSite(site string) bool {
	i := sort.SearchStrings(d.Sites, site)
	return i < len(d.Sites) && d.Sites[i] == site
}

// Bounds returns the smallest and largest period keys of granularity g
// over the resolved records. ok is false for an empty dataset.
func (d *Dataset) Bounds(g domain.Granularity) (first, last int, ok bool) {
	for _, r := range d.Records {
		if !r.Resolved() {
			continue
		}
		k := r.Calendar.Key(g)
		if !ok || k < first {
			first = k
		}
		if !ok || k > last {
			last = k
		}
		ok = true
	}
	return first, last, ok
}

// Periods returns the distinct period keys of granularity g, ascending.
func (d *Dataset) Periods(g domain.Granularity) []int {
	keys := lo.Uniq(lo.FilterMap(d.Records, func(r domain.Record, _ int) (int, bool) {
		return r.Calendar.Key(g), r.Resolved()
	}))
	sort.Ints(keys)
	return keys
}

// Snapshot is the immutable set of datasets produced by one load.
type Snapshot struct {
	Datasets map[string]*Dataset
	Reports  []domain.LoadReport
	LoadedAt time.Time
	// WeekPolicy is the policy record calendars were derived with.
	WeekPolicy period.WeekPolicy
}

// Deriver returns a calendar deriver using the snapshot's week policy.
func (s *Snapshot) Deriver() *period.Deriver {
	return period.NewDeriver(s.WeekPolicy)
}

// Dataset looks up a dataset by name.
func (s *Snapshot) Dataset(name string) (*Dataset, error) {
	ds, ok := s.Datasets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	return ds, nil
}

// Names returns the dataset names, sorted.
func (s *Snapshot) Names() []string {
	names := lo.Keys(s.Datasets)
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
