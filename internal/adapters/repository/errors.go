package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound          = errors.New("document not found")
	ErrUnsupportedDriver = errors.New("unsupported store driver")
	ErrInvalidRecord     = errors.New("invalid stored record")
)
