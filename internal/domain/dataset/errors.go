package dataset

import "errors"

// Sentinel kinds for data errors. All are fatal to a run.
var (
	ErrMissingColumn     = errors.New("required column not found")
	ErrNoRows            = errors.New("no usable rows")
	ErrUnsupportedFormat = errors.New("unsupported data format")
	ErrIndexOutOfRange   = errors.New("row index out of range")
)
