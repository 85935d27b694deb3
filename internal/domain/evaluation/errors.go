package evaluation

import "errors"

// Sentinel kinds for evaluation errors. Note that an incomputable metric
// is a missing value, not an error; only structural misuse errors here.
var (
	ErrNoTestRows = errors.New("empty test subset")
)
