package forest

// Option applies a configuration option to the ForestTrainer.
type Option func(*ForestTrainer)

// WithMtry overrides the number of candidate predictors per split.
// Zero keeps the floor(sqrt(p)) default.
func WithMtry(mtry int) Option {
	return func(t *ForestTrainer) {
		if mtry >= 0 {
			t.mtry = mtry
		}
	}
}

// WithNSplit caps the number of candidate thresholds per continuous
// predictor.
func WithNSplit(nsplit int) Option {
	return func(t *ForestTrainer) {
		if nsplit > 0 {
			t.nsplit = nsplit
		}
	}
}
