package catalog

import "errors"

// ErrInvalidSchedule is returned for malformed season schedules.
var ErrInvalidSchedule = errors.New("invalid season schedule")
