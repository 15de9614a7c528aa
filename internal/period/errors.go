package period

import "errors"

// ErrInvalidPeriod is returned when a period key or label cannot be parsed.
var ErrInvalidPeriod = errors.New("invalid period")
