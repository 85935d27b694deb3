package app

import "errors"

// Sentinel kinds for grid search errors. Both abort the run.
var (
	ErrEmptyGrid  = errors.New("hyperparameter grid is empty")
	ErrAllMissing = errors.New("every grid combination produced only missing metrics")
)
