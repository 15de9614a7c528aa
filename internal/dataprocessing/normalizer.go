package dataprocessing

import (
	"strings"

	"github.com/samber/lo"

	"energydash/internal/config"
	"energydash/internal/period"
	"energydash/pkg/contracts/domain"
)

// NormalizerConfig holds the site lookups and row policies applied to every
// source.
type NormalizerConfig struct {
	// Codes maps opaque equipment codes (GRDF PCE numbers) to sites.
	Codes map[string]string
	// Aliases maps alternative site spellings to the canonical name.
	Aliases map[string]string
	// Years, when non-empty, keeps only records of these calendar years.
	Years []int
	// ExcludedMachines lists machine labels whose rows are dropped.
	ExcludedMachines []string
	WeekPolicy       period.WeekPolicy
}

// NormalizerConfigFrom builds a NormalizerConfig from the application config.
func NormalizerConfigFrom(cfg *config.Config) (NormalizerConfig, error) {
	policy, err := period.ParseWeekPolicy(cfg.Pipeline.WeekPolicy)
	if err != nil {
		return NormalizerConfig{}, err
	}
	return NormalizerConfig{
		Codes:            cfg.Sites.Codes,
		Aliases:          cfg.Sites.Aliases,
		Years:            cfg.Pipeline.Years,
		ExcludedMachines: cfg.Pipeline.ExcludedMachines,
		WeekPolicy:       policy,
	}, nil
}

// Normalizer turns raw source rows into records: header detection, parsing,
// site resolution, row policies and calendar derivation.
type Normalizer struct {
	codes    map[string]string
	aliases  map[string]string
	years    map[int]bool
	excluded map[string]bool
	deriver  *period.Deriver
}

// NewNormalizer creates a Normalizer.
func NewNormalizer(cfg NormalizerConfig) *Normalizer {
	codes := make(map[string]string, len(cfg.Codes))
	for k, v := range cfg.Codes {
		codes[strings.ToUpper(strings.TrimSpace(k))] = v
	}
	aliases := make(map[string]string, len(cfg.Aliases))
	for k, v := range cfg.Aliases {
		aliases[strings.TrimSpace(k)] = v
	}

	return &Normalizer{
		codes:    codes,
		aliases:  aliases,
		years:    lo.SliceToMap(cfg.Years, func(y int) (int, bool) { return y, true }),
		excluded: lo.SliceToMap(cfg.ExcludedMachines, func(m string) (string, bool) { return strings.TrimSpace(m), true }),
		deriver:  period.NewDeriver(cfg.WeekPolicy),
	}
}

// Normalize parses rows (header included) into records. Rejected rows are
// counted in report by reason; records whose site cannot be resolved are
// kept with an empty Site and counted as unresolved.
func (n *Normalizer) Normalize(rows [][]string, report *domain.LoadReport) ([]domain.Record, error) {
	headerRow, cols, err := detectHeader(rows)
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(rows)-headerRow-1)
	for _, row := range rows[headerRow+1:] {
		if isBlank(row) {
			continue
		}
		report.Rows++

		obs, err := parseRow(row, cols)
		if err != nil {
			report.Drop(dropReason(err))
			continue
		}
		if len(n.years) > 0 && !n.years[obs.Date.Year()] {
			report.Drop(ReasonExcludedYear)
			continue
		}
		if obs.Machine != "" && n.excluded[obs.Machine] {
			report.Drop(ReasonExcludedMachine)
			continue
		}

		rec := domain.Record{
			Site:           n.ResolveSite(obs.Site, obs.Code),
			Machine:        obs.Machine,
			Date:           obs.Date,
			GasKWh:         obs.GasKWh,
			ElectricityKWh: obs.ElectricityKWh,
			MassKG:         obs.MassKG,
			Calendar:       n.deriver.Derive(obs.Date),
		}
		if !rec.Resolved() {
			report.Unresolved++
		}
		records = append(records, rec)
	}
	return records, nil
}

// WeekPolicy reports the week policy used to derive record calendars.
func (n *Normalizer) WeekPolicy() period.WeekPolicy {
	return n.deriver.Policy()
}

// ResolveSite returns the canonical site of a row. A site column wins over a
// code; unknown codes resolve to "".
func (n *Normalizer) ResolveSite(site, code string) string {
	if site != "" {
		if canonical, ok := n.aliases[site]; ok {
			return canonical
		}
		return site
	}
	if code != "" {
		return n.codes[strings.ToUpper(code)]
	}
	return ""
}
