package analytics

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is wrapped by every request validation failure.
	ErrInvalidRequest = errors.New("invalid aggregation request")
	// ErrInsufficientData is wrapped by RegressionError.
	ErrInsufficientData = errors.New("not enough data")
)

// RegressionError reports that a fit was attempted on too few distinct
// mass values.
type RegressionError struct {
	Points   int
	Distinct int
}

func (e *RegressionError) Error() string {
	return fmt.Sprintf("regression needs at least 2 distinct mass values, got %d over %d points", e.Distinct, e.Points)
}

func (e *RegressionError) Unwrap() error { return ErrInsufficientData }

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
