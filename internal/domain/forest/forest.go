// Package forest provides the model-fitting collaborator: a
// competing-risks random survival forest behind a Trainer contract.
//
// The pipeline treats the trainer as an opaque boundary; everything it
// relies on is stated here: deterministic for a fixed seed, tolerant of
// mixed categorical/continuous predictors, and aware of the designated
// cause of interest versus competing and censoring codes.
package forest

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/dataset"
)

// SplitRuleLogRank is the only supported node splitting rule: the
// cause-specific log-rank statistic.
const SplitRuleLogRank = "logrank"

// Default ensemble shape.
const (
	defaultTreeCount = 300
	defaultNSplit    = 10
)

// ModelSpec is the call contract for one fit: outcome semantics plus the
// hyperparameter combination under evaluation.
type ModelSpec struct {
	// Cause is the event-type code of the event of interest.
	Cause int

	// MinLeaf is the minimum number of observations in a terminal node.
	MinLeaf int

	// MaxDepth bounds tree depth.
	MaxDepth int

	// TreeCount fixes the ensemble size.
	TreeCount int

	// SplitRule identifies the splitting rule.
	SplitRule string

	// Seed drives bootstrapping and split sampling.
	Seed int64
}

// Model is a fitted ensemble. PredictCIF returns the cumulative incidence
// of the cause of interest per test row per requested time; it is a pure
// function of its inputs.
type Model interface {
	PredictCIF(test *dataset.Table, times []float64) [][]float64
}

// Trainer fits a model on a training subset.
type Trainer interface {
	Fit(ctx context.Context, train *dataset.Table, spec ModelSpec) (Model, error)
}

// ForestTrainer implements Trainer with an in-process random survival
// forest: per-tree bootstrap, log-rank splitting on cause-specific events
// over a random predictor subset, and Aalen-Johansen cumulative incidence
// estimates in the terminal nodes.
type ForestTrainer struct {
	// mtry overrides the number of candidate predictors per split;
	// 0 means floor(sqrt(p)).
	mtry int

	// nsplit caps the number of candidate thresholds per continuous
	// predictor.
	nsplit int
}

// NewTrainer creates a forest trainer with configuration options.
func NewTrainer(opts ...Option) *ForestTrainer {
	t := &ForestTrainer{
		mtry:   0,
		nsplit: defaultNSplit,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fit grows the ensemble. The fit is deterministic for identical inputs
// and spec.Seed.
func (t *ForestTrainer) Fit(ctx context.Context, train *dataset.Table, spec ModelSpec) (Model, error) {
	if spec.SplitRule != SplitRuleLogRank {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSplitRule, spec.SplitRule)
	}
	if spec.TreeCount <= 0 {
		spec.TreeCount = defaultTreeCount
	}
	if spec.MinLeaf < 1 || spec.MaxDepth < 1 {
		return nil, fmt.Errorf("%w: min_leaf=%d max_depth=%d", ErrBadHyperparameters, spec.MinLeaf, spec.MaxDepth)
	}
	n := train.Len()
	if n < 2*spec.MinLeaf {
		return nil, fmt.Errorf("%w: %d rows cannot satisfy min_leaf=%d", ErrDegenerateSplit, n, spec.MinLeaf)
	}
	if countCause(train, spec.Cause) == 0 {
		return nil, fmt.Errorf("%w: no events of cause %d in the training split", ErrDegenerateSplit, spec.Cause)
	}

	schema := train.Schema()
	p := len(schema.Categorical) + len(schema.Continuous)
	if p == 0 {
		return nil, fmt.Errorf("%w: no predictors declared", ErrDegenerateSplit)
	}
	mtry := t.mtry
	if mtry <= 0 {
		mtry = int(math.Max(1, math.Floor(math.Sqrt(float64(p)))))
	}
	if mtry > p {
		mtry = p
	}

	rng := rand.New(rand.NewSource(spec.Seed)) //nolint:gosec // deterministic ensembles are the contract
	ensemble := &crForest{cause: spec.Cause, trees: make([]*tree, 0, spec.TreeCount)}
	grower := &grower{
		table:   train,
		cause:   spec.Cause,
		minLeaf: spec.MinLeaf,
		maxDepth: spec.MaxDepth,
		mtry:    mtry,
		nsplit:  t.nsplit,
		nCat:    len(schema.Categorical),
		nCont:   len(schema.Continuous),
	}
	for i := 0; i < spec.TreeCount; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("fit cancelled: %w", ctx.Err())
		default:
		}
		treeRng := rand.New(rand.NewSource(rng.Int63())) //nolint:gosec // per-tree stream off the master seed
		sample := bootstrap(n, treeRng)
		ensemble.trees = append(ensemble.trees, grower.grow(sample, treeRng))
	}
	return ensemble, nil
}

func countCause(t *dataset.Table, cause int) int {
	count := 0
	for i := 0; i < t.Len(); i++ {
		if t.Row(i).Delta == cause {
			count++
		}
	}
	return count
}

func bootstrap(n int, rng *rand.Rand) []int {
	sample := make([]int, n)
	for i := range sample {
		sample[i] = rng.Intn(n)
	}
	return sample
}

// crForest is a fitted ensemble.
type crForest struct {
	cause int
	trees []*tree
}

// PredictCIF averages the terminal-node cumulative incidence curves of
// all trees for each test row.
func (f *crForest) PredictCIF(test *dataset.Table, times []float64) [][]float64 {
	out := make([][]float64, test.Len())
	for i := 0; i < test.Len(); i++ {
		row := test.Row(i)
		acc := make([]float64, len(times))
		for _, tr := range f.trees {
			leaf := tr.leafFor(row)
			for j, t := range times {
				acc[j] += leaf.at(t)
			}
		}
		for j := range acc {
			acc[j] /= float64(len(f.trees))
		}
		out[i] = acc
	}
	return out
}
