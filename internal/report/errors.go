package report

import "errors"

// Sentinel kinds for report rendering.
var (
	ErrNoData = errors.New("no data to render")
)
