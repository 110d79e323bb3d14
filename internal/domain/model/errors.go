package model

import "errors"

// Sentinel kinds for malformed domain values.
var (
	ErrInvalidPrediction = errors.New("invalid prediction")
	ErrInvalidResult     = errors.New("invalid official result")
)
