package window

import "errors"

// Sentinel errors for paging.
var (
	ErrInvalidPageSize = errors.New("page size must be positive")
	ErrInvalidCursor   = errors.New("invalid cursor")
)
