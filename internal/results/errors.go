package results

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrUnnamedMetric = errors.New("metric record without a metric name")
)
