package dataprocessing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// observation is one parsed source row before site resolution and
// calendar derivation.
type observation struct {
	Site           string
	Code           string
	Machine        string
	Date           time.Time
	GasKWh         float64
	ElectricityKWh float64
	MassKG         float64
}

// rowError carries the drop reason of a row that could not be parsed.
type rowError struct {
	reason string
	err    error
}

func (e *rowError) Error() string { return fmt.Sprintf("%s: %v", e.reason, e.err) }
func (e *rowError) Unwrap() error { return e.err }

// dropReason extracts the drop reason of a parse error.
func dropReason(err error) string {
	var re *rowError
	if errors.As(err, &re) {
		return re.reason
	}
	return "unparseable"
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2006/01/02",
}

// parseDate accepts ISO dates, day-first slashed dates and Excel serial numbers.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 && serial < 2958466 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t.Truncate(24 * time.Hour), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// parseNumber reads a measure. Blank cells are zero. Thousands separators
// (spaces, narrow spaces, dots before a decimal comma) are removed and a
// decimal comma is accepted. A dot after a comma ("1,234.56") is ambiguous
// and rejected, as are NaN and infinities.
func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(s)
	if comma := strings.Index(s, ","); comma >= 0 {
		if strings.LastIndex(s, ".") > comma {
			return 0, fmt.Errorf("ambiguous separators in %q", s)
		}
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

// parseRow turns a data row into an observation using the column map.
func parseRow(row []string, cols columnMap) (observation, error) {
	obs := observation{
		Site:    cols.cell(row, colSite),
		Code:    cols.cell(row, colCode),
		Machine: cols.cell(row, colMachine),
	}

	date, err := rowDate(row, cols)
	if err != nil {
		return obs, &rowError{reason: ReasonInvalidDate, err: err}
	}
	obs.Date = date

	measures := []struct {
		col column
		dst *float64
	}{
		{colGas, &obs.GasKWh},
		{colElectricity, &obs.ElectricityKWh},
		{colMass, &obs.MassKG},
	}
	for _, m := range measures {
		v, err := parseNumber(cols.cell(row, m.col))
		if err != nil {
			return obs, &rowError{reason: ReasonInvalidNumber, err: fmt.Errorf("%s: %w", m.col, err)}
		}
		if v < 0 {
			return obs, &rowError{reason: ReasonNegativeValue, err: fmt.Errorf("%s is %g", m.col, v)}
		}
		*m.dst = v
	}
	return obs, nil
}

// rowDate reads the date column, or assembles a date from year, month and
// optional day columns when the source has no date column.
func rowDate(row []string, cols columnMap) (time.Time, error) {
	if cols.has(colDate) {
		return parseDate(cols.cell(row, colDate))
	}

	year, err := strconv.Atoi(cols.cell(row, colYear))
	if err != nil {
		return time.Time{}, fmt.Errorf("year: %w", err)
	}
	month, err := strconv.Atoi(cols.cell(row, colMonth))
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month %q", cols.cell(row, colMonth))
	}
	day := 1
	if v := cols.cell(row, colDay); v != "" {
		if day, err = strconv.Atoi(v); err != nil || day < 1 || day > 31 {
			return time.Time{}, fmt.Errorf("invalid day %q", v)
		}
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("invalid date %d-%02d-%02d", year, month, day)
	}
	return t, nil
}

// isBlank reports whether every cell of row is empty.
func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
