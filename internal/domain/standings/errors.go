package standings

import "errors"

// ErrInvalidSelection is returned when the selected event index is out of range.
var ErrInvalidSelection = errors.New("invalid selected event")
