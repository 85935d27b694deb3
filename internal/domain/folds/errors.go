package folds

import "errors"

// Sentinel kinds for fold generation errors.
var (
	ErrNoObservations  = errors.New("no observations to partition")
	ErrLabelMismatch   = errors.New("label count does not match observation count")
	ErrBadFoldCount    = errors.New("fold count must be at least 2")
	ErrBadRepeatCount  = errors.New("repeat count must be at least 1")
	ErrStratumTooSmall = errors.New("stratum smaller than fold count")
)
