package forest

import "errors"

// Sentinel kinds for fit errors.
var (
	ErrUnknownSplitRule   = errors.New("unknown split rule")
	ErrBadHyperparameters = errors.New("invalid hyperparameters")
	ErrDegenerateSplit    = errors.New("degenerate training split")
)
