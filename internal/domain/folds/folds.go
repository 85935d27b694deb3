// Package folds generates repeated stratified k-fold partitions.
//
// Partitions are drawn once per run from a fixed seed and reused by both
// the tuning pass and the final pass, so identical seed and labels must
// reproduce identical index sets.
package folds

import (
	"fmt"
	"math/rand"
	"sort"
)

// Fold is one named train/test partition within a repeat.
type Fold struct {
	repeat int
	index  int
	train  []int
	test   []int
}

// Name identifies the fold as "r<repeat>f<index>", both 1-based.
func (f Fold) Name() string { return fmt.Sprintf("r%df%d", f.repeat+1, f.index+1) }

// Repeat returns the 0-based repeat index.
func (f Fold) Repeat() int { return f.repeat }

// Index returns the 0-based fold index within its repeat.
func (f Fold) Index() int { return f.index }

// Train returns the training indices, ascending.
func (f Fold) Train() []int { return f.train }

// Test returns the held-out indices, ascending. They are the complement
// of Train within the full observation index range.
func (f Fold) Test() []int { return f.test }

// New produces r repeats of k stratified folds over n observations.
// labels carries one stratification label (event-type code) per
// observation. Within each repeat the k test sets partition the index
// set exactly once; repeats are independently re-drawn.
func New(n int, labels []int, k, r int, seed int64) ([]Fold, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n=%d", ErrNoObservations, n)
	}
	if len(labels) != n {
		return nil, fmt.Errorf("%w: %d labels for %d observations", ErrLabelMismatch, len(labels), n)
	}
	if k < 2 {
		return nil, fmt.Errorf("%w: k=%d", ErrBadFoldCount, k)
	}
	if r < 1 {
		return nil, fmt.Errorf("%w: r=%d", ErrBadRepeatCount, r)
	}

	strata := make(map[int][]int)
	for i, label := range labels {
		strata[label] = append(strata[label], i)
	}
	// Sorted label order keeps the draw deterministic regardless of map
	// iteration order.
	labelOrder := make([]int, 0, len(strata))
	for label := range strata {
		labelOrder = append(labelOrder, label)
	}
	sort.Ints(labelOrder)

	for _, label := range labelOrder {
		if len(strata[label]) < k {
			return nil, fmt.Errorf("%w: stratum %d has %d members, need at least %d",
				ErrStratumTooSmall, label, len(strata[label]), k)
		}
	}

	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic partitions are the contract
	out := make([]Fold, 0, r*k)
	for rep := 0; rep < r; rep++ {
		test := make([][]int, k)
		for _, label := range labelOrder {
			shuffled := append([]int(nil), strata[label]...)
			rng.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
			for pos, idx := range shuffled {
				f := pos % k
				test[f] = append(test[f], idx)
			}
		}
		for f := 0; f < k; f++ {
			sort.Ints(test[f])
			out = append(out, Fold{
				repeat: rep,
				index:  f,
				train:  complement(n, test[f]),
				test:   test[f],
			})
		}
	}
	return out, nil
}

// complement returns [0,n) minus the sorted excluded indices.
func complement(n int, excluded []int) []int {
	out := make([]int, 0, n-len(excluded))
	j := 0
	for i := 0; i < n; i++ {
		if j < len(excluded) && excluded[j] == i {
			j++
			continue
		}
		out = append(out, i)
	}
	return out
}
