package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"energydash/internal/period"
	"energydash/pkg/contracts/domain"
)

// Rec builds a record dated day (YYYY-MM-DD) with its ISO calendar derived.
func Rec(t testing.TB, site, machine, day string, gas, elec, mass float64) domain.Record {
	t.Helper()
	d, err := time.Parse("2006-01-02", day)
	if err != nil {
		t.Fatalf("bad fixture date %q: %v", day, err)
	}
	return domain.Record{
		Site:           site,
		Machine:        machine,
		Date:           d,
		GasKWh:         gas,
		ElectricityKWh: elec,
		MassKG:         mass,
		Calendar:       period.Derive(d),
	}
}

// GlobalCSV is a small site-level extract in the dashboard CSV layout.
const GlobalCSV = `Date;Site;Gaz (kWh);Electricité (kWh);PE (kg)
2024-01-10;PTWE35;1000;400;500
2024-01-20;PTWE35;500;100;250
2024-02-05;PTWE42 Andrézieux;300;150;0
15/02/2024;PTWE89;800;200;400
2024-03-01;PTWE89;abc;200;400
`

// WriteFile writes content to name inside a fresh temp dir and returns the path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(strings.TrimLeft(content, "\n")), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
