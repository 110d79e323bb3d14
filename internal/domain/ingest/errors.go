package ingest

import "errors"

// Sentinel errors for malformed inbound records.
var (
	ErrMissingField = errors.New("missing field")
	ErrFieldType    = errors.New("unexpected field type")
)
