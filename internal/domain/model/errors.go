package model

import "errors"

// Sentinel kinds for snapshot ingestion.
var (
	ErrMalformedSnapshot = errors.New("malformed snapshot")
)
