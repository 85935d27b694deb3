package app

import (
	"github.com/fmhr12/SuevML-CR-RFS/internal/config"
	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/evaluation"
	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/forest"
	"github.com/fmhr12/SuevML-CR-RFS/pkg/logger"
)

// Option applies a configuration option to the Driver.
type Option func(*Driver)

// WithTrainer sets the model-fitting collaborator.
func WithTrainer(t forest.Trainer) Option {
	return func(d *Driver) {
		if t != nil {
			d.trainer = t
		}
	}
}

// WithEvaluator sets the metric-computation collaborator.
func WithEvaluator(e evaluation.Evaluator) Option {
	return func(d *Driver) {
		if e != nil {
			d.evaluator = e
		}
	}
}

// WithLogger sets a custom logger for the driver.
func WithLogger(l logger.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithSeed fixes the seed driving folds and forests.
func WithSeed(seed int64) Option {
	return func(d *Driver) { d.seed = seed }
}

// WithFolds sets k.
func WithFolds(k int) Option {
	return func(d *Driver) {
		if k >= 2 {
			d.k = k
		}
	}
}

// WithRepeats sets the number of fold re-draws.
func WithRepeats(r int) Option {
	return func(d *Driver) {
		if r >= 1 {
			d.repeats = r
		}
	}
}

// WithTreeCount fixes the ensemble size per fit.
func WithTreeCount(n int) Option {
	return func(d *Driver) {
		if n >= 1 {
			d.treeCount = n
		}
	}
}

// WithSplitRule sets the node splitting rule identifier.
func WithSplitRule(rule string) Option {
	return func(d *Driver) {
		if rule != "" {
			d.splitRule = rule
		}
	}
}

// WithCause sets the event-type code of the event of interest.
func WithCause(cause int) Option {
	return func(d *Driver) { d.cause = cause }
}

// WithGrid sets the hyperparameter grid.
func WithGrid(grid []Combination) Option {
	return func(d *Driver) { d.grid = grid }
}

// WithHorizons sets the reporting horizons.
func WithHorizons(horizons []float64) Option {
	return func(d *Driver) {
		if len(horizons) > 0 {
			d.horizons = horizons
		}
	}
}

// WithEvalTimes sets the evaluation time grid for the AUC/Brier/CIF
// series.
func WithEvalTimes(times []float64) Option {
	return func(d *Driver) {
		if len(times) > 0 {
			d.evalTimes = times
		}
	}
}

// WithWorkers bounds the parallel tuning loop. 1 keeps tuning strictly
// sequential.
func WithWorkers(n int) Option {
	return func(d *Driver) {
		if n >= 1 {
			d.workers = n
		}
	}
}

// FromConfig expands a loaded Config into driver options. The grid is
// the cross product of the min-leaf and max-depth lists.
func FromConfig(cfg *config.Config) []Option {
	grid := make([]Combination, 0, len(cfg.MinLeafGrid)*len(cfg.MaxDepthGrid))
	for _, leaf := range cfg.MinLeafGrid {
		for _, depth := range cfg.MaxDepthGrid {
			grid = append(grid, Combination{MinLeaf: leaf, MaxDepth: depth})
		}
	}
	return []Option{
		WithSeed(cfg.Seed),
		WithFolds(cfg.Folds),
		WithRepeats(cfg.Repeats),
		WithTreeCount(cfg.TreeCount),
		WithSplitRule(cfg.SplitRule),
		WithCause(cfg.Cause),
		WithGrid(grid),
		WithHorizons(cfg.Horizons),
		WithEvalTimes(cfg.EvalTimes()),
		WithWorkers(cfg.Workers),
	}
}
