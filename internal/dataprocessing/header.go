package dataprocessing

import (
	"fmt"
	"strings"

	apierrors "energydash/internal/errors"
)

// column identifies a field the parser knows how to read.
type column int

const (
	colDate column = iota
	colSite
	colCode
	colMachine
	colGas
	colElectricity
	colMass
	colYear
	colMonth
	colDay
)

func (c column) String() string {
	return [...]string{"date", "site", "code", "machine", "gas", "electricity", "mass", "year", "month", "day"}[c]
}

// columnAliases lists the accepted header spellings, already normalized.
var columnAliases = map[column][]string{
	colDate:        {"date", "date de relevé", "date de releve", "horodate"},
	colSite:        {"site"},
	colCode:        {"n° pce", "n°pce", "pce", "code"},
	colMachine:     {"machine"},
	colGas:         {"gaz (kwh)", "gas (kwh)", "gas_kwh", "gaz", "energie consommée (kwh)", "énergie consommée (kwh)"},
	colElectricity: {"electricité (kwh)", "électricité (kwh)", "electricite (kwh)", "electricity (kwh)", "electricity_kwh", "electricité"},
	colMass:        {"pe (kg)", "mass (kg)", "mass_kg", "pe"},
	colYear:        {"année", "annee", "year"},
	colMonth:       {"mois", "month"},
	colDay:         {"jour", "day"},
}

var aliasIndex = func() map[string]column {
	idx := make(map[string]column)
	for col, aliases := range columnAliases {
		for _, a := range aliases {
			idx[a] = col
		}
	}
	return idx
}()

// headerScanRows bounds how far into a source the header is searched.
const headerScanRows = 10

// columnMap maps known columns to their index in a row.
type columnMap map[column]int

func (m columnMap) has(c column) bool {
	_, ok := m[c]
	return ok
}

// cell returns the trimmed value of column c in row, or "" when the column
// is absent or the row is short.
func (m columnMap) cell(row []string, c column) string {
	i, ok := m[c]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// usable reports whether the mapped columns can produce records: a date
// (or year and month), a way to name the site, and at least one measure.
func (m columnMap) usable() bool {
	dated := m.has(colDate) || (m.has(colYear) && m.has(colMonth))
	located := m.has(colSite) || m.has(colCode)
	measured := m.has(colGas) || m.has(colElectricity) || m.has(colMass)
	return dated && located && measured
}

func normalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

// mapHeader maps the cells of a candidate header row. The first occurrence
// of a column wins.
func mapHeader(row []string) columnMap {
	cols := make(columnMap)
	for i, cell := range row {
		col, ok := aliasIndex[normalizeHeader(cell)]
		if !ok || cols.has(col) {
			continue
		}
		cols[col] = i
	}
	return cols
}

// detectHeader finds the header row among the first rows of a source.
func detectHeader(rows [][]string) (int, columnMap, error) {
	if len(rows) == 0 {
		return 0, nil, apierrors.NewParsingError("source has no rows", ErrEmptySource)
	}
	limit := len(rows)
	if limit > headerScanRows {
		limit = headerScanRows
	}
	for i := 0; i < limit; i++ {
		if cols := mapHeader(rows[i]); cols.usable() {
			return i, cols, nil
		}
	}
	return 0, nil, apierrors.NewParsingError(fmt.Sprintf("no header in the first %d rows", limit), ErrNoHeader).
		WithContext("scanned_rows", limit)
}
