package scoring

import "errors"

// ErrInvalidTable is returned when a points table breaks grade monotonicity.
var ErrInvalidTable = errors.New("invalid scoring table")
