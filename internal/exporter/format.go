package exporter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnknownFormat is returned by ParseFormat for anything but csv or xlsx.
var ErrUnknownFormat = errors.New("unsupported export format")

// Content types of the export formats.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ParseFormat parses s case-insensitively. An empty string means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return ContentTypeXLSX
	}
	return ContentTypeCSV
}

// Filename returns base with the extension of f.
func (f Format) Filename(base string) string {
	return base + "." + string(f)
}

// formatFloat formats f with a fixed number of decimals for CSV output
func formatFloat(f float64, decimals int) string {
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

// formatDate formats a record date the way the source sheets write it
func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
