package dataprocessing

import "errors"

var (
	// ErrUnknownDataset is returned when a request names a dataset that is not loaded.
	ErrUnknownDataset = errors.New("unknown dataset")
	// ErrNoHeader is returned when no row of a source looks like a header.
	ErrNoHeader = errors.New("no header row found")
	// ErrEmptySource is returned when a source yields no rows at all.
	ErrEmptySource = errors.New("source is empty")
	// ErrUnsupportedSource is returned for a source kind the loader cannot read.
	ErrUnsupportedSource = errors.New("unsupported source kind")
)

// Drop reasons recorded in a LoadReport.
const (
	ReasonInvalidDate     = "invalid_date"
	ReasonInvalidNumber   = "invalid_number"
	ReasonNegativeValue   = "negative_value"
	ReasonExcludedYear    = "excluded_year"
	ReasonExcludedMachine = "excluded_machine"
	ReasonShortRow        = "short_row"
)
