package forest

import (
	"math"
	"math/rand"
	"sort"

	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/dataset"
)

// tree is one grown survival tree.
type tree struct {
	root *node
}

// node is either a split or a terminal node carrying a CIF estimate.
type node struct {
	leaf *cifCurve

	splitCat  bool
	featIdx   int     // into Observation.Cat or Observation.Cont
	level     string  // categorical split: left iff Cat[featIdx] == level
	threshold float64 // continuous split: left iff Cont[featIdx] <= threshold
	left      *node
	right     *node
}

// leafFor routes an observation to its terminal node.
func (t *tree) leafFor(o dataset.Observation) *cifCurve {
	n := t.root
	for n.leaf == nil {
		goLeft := false
		if n.splitCat {
			goLeft = o.Cat[n.featIdx] == n.level
		} else {
			goLeft = o.Cont[n.featIdx] <= n.threshold
		}
		if goLeft {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.leaf
}

// cifCurve is a right-continuous step function: values[i] holds from
// times[i] (inclusive) until the next jump. Non-decreasing by
// construction of the Aalen-Johansen estimator.
type cifCurve struct {
	times  []float64
	values []float64
}

// at evaluates the curve at time t.
func (c *cifCurve) at(t float64) float64 {
	// Rightmost jump at or before t.
	i := sort.SearchFloat64s(c.times, t)
	if i < len(c.times) && c.times[i] == t {
		return c.values[i]
	}
	if i == 0 {
		return 0
	}
	return c.values[i-1]
}

// grower carries the immutable inputs of one fit.
type grower struct {
	table    *dataset.Table
	cause    int
	minLeaf  int
	maxDepth int
	mtry     int
	nsplit   int
	nCat     int
	nCont    int
}

func (g *grower) grow(rows []int, rng *rand.Rand) *tree {
	return &tree{root: g.build(rows, 0, rng)}
}

func (g *grower) build(rows []int, depth int, rng *rand.Rand) *node {
	if depth >= g.maxDepth || len(rows) < 2*g.minLeaf {
		return &node{leaf: g.aalenJohansen(rows)}
	}
	best, ok := g.bestSplit(rows, rng)
	if !ok {
		return &node{leaf: g.aalenJohansen(rows)}
	}
	n := &node{
		splitCat:  best.cat,
		featIdx:   best.featIdx,
		level:     best.level,
		threshold: best.threshold,
	}
	n.left = g.build(best.leftRows, depth+1, rng)
	n.right = g.build(best.rightRows, depth+1, rng)
	return n
}

type candidate struct {
	cat       bool
	featIdx   int
	level     string
	threshold float64
	stat      float64
	leftRows  []int
	rightRows []int
}

// bestSplit searches mtry randomly chosen predictors for the split with
// the largest cause-specific log-rank statistic subject to the minimum
// leaf size.
func (g *grower) bestSplit(rows []int, rng *rand.Rand) (candidate, bool) {
	p := g.nCat + g.nCont
	order := rng.Perm(p)[:g.mtry]

	var best candidate
	found := false
	consider := func(c candidate) {
		if !found || c.stat > best.stat {
			best = c
			found = true
		}
	}

	for _, fi := range order {
		if fi < g.nCat {
			for _, c := range g.categoricalSplits(rows, fi) {
				consider(c)
			}
		} else {
			for _, c := range g.continuousSplits(rows, fi-g.nCat, rng) {
				consider(c)
			}
		}
	}
	return best, found
}

func (g *grower) categoricalSplits(rows []int, featIdx int) []candidate {
	levels := make(map[string]struct{})
	for _, i := range rows {
		levels[g.table.Row(i).Cat[featIdx]] = struct{}{}
	}
	ordered := make([]string, 0, len(levels))
	for l := range levels {
		ordered = append(ordered, l)
	}
	sort.Strings(ordered)

	var out []candidate
	for _, level := range ordered {
		left := make([]int, 0, len(rows))
		right := make([]int, 0, len(rows))
		for _, i := range rows {
			if g.table.Row(i).Cat[featIdx] == level {
				left = append(left, i)
			} else {
				right = append(right, i)
			}
		}
		if len(left) < g.minLeaf || len(right) < g.minLeaf {
			continue
		}
		stat, ok := g.logRank(left, right)
		if !ok {
			continue
		}
		out = append(out, candidate{cat: true, featIdx: featIdx, level: level, stat: stat, leftRows: left, rightRows: right})
	}
	return out
}

func (g *grower) continuousSplits(rows []int, featIdx int, rng *rand.Rand) []candidate {
	values := make([]float64, 0, len(rows))
	for _, i := range rows {
		values = append(values, g.table.Row(i).Cont[featIdx])
	}
	sort.Float64s(values)
	var mids []float64
	for i := 1; i < len(values); i++ {
		if values[i] > values[i-1] {
			mids = append(mids, (values[i]+values[i-1])/2)
		}
	}
	if len(mids) == 0 {
		return nil
	}
	if len(mids) > g.nsplit {
		picked := rng.Perm(len(mids))[:g.nsplit]
		sort.Ints(picked)
		sampled := make([]float64, 0, g.nsplit)
		for _, i := range picked {
			sampled = append(sampled, mids[i])
		}
		mids = sampled
	}

	var out []candidate
	for _, thr := range mids {
		left := make([]int, 0, len(rows))
		right := make([]int, 0, len(rows))
		for _, i := range rows {
			if g.table.Row(i).Cont[featIdx] <= thr {
				left = append(left, i)
			} else {
				right = append(right, i)
			}
		}
		if len(left) < g.minLeaf || len(right) < g.minLeaf {
			continue
		}
		stat, ok := g.logRank(left, right)
		if !ok {
			continue
		}
		out = append(out, candidate{featIdx: featIdx, threshold: thr, stat: stat, leftRows: left, rightRows: right})
	}
	return out
}

// logRank computes the absolute standardized two-sample log-rank
// statistic on cause-specific events, treating competing events and
// censoring alike as censored for the purpose of the split.
func (g *grower) logRank(left, right []int) (float64, bool) {
	type subject struct {
		time  float64
		event bool
		left  bool
	}
	subjects := make([]subject, 0, len(left)+len(right))
	for _, i := range left {
		o := g.table.Row(i)
		subjects = append(subjects, subject{time: o.Time, event: o.Delta == g.cause, left: true})
	}
	for _, i := range right {
		o := g.table.Row(i)
		subjects = append(subjects, subject{time: o.Time, event: o.Delta == g.cause})
	}
	sort.Slice(subjects, func(a, b int) bool { return subjects[a].time < subjects[b].time })

	atRisk := len(subjects)
	atRiskLeft := len(left)
	var u, v float64
	for i := 0; i < len(subjects); {
		t := subjects[i].time
		d, d1, removed, removedLeft := 0, 0, 0, 0
		for ; i < len(subjects) && subjects[i].time == t; i++ {
			removed++
			if subjects[i].left {
				removedLeft++
			}
			if subjects[i].event {
				d++
				if subjects[i].left {
					d1++
				}
			}
		}
		if d > 0 {
			y := float64(atRisk)
			y1 := float64(atRiskLeft)
			u += float64(d1) - float64(d)*y1/y
			if atRisk > 1 {
				v += float64(d) * (y1 / y) * (1 - y1/y) * (y - float64(d)) / (y - 1)
			}
		}
		atRisk -= removed
		atRiskLeft -= removedLeft
	}
	if v <= 0 {
		return 0, false
	}
	return math.Abs(u) / math.Sqrt(v), true
}

// aalenJohansen estimates the cumulative incidence of the cause of
// interest from the rows of a terminal node.
func (g *grower) aalenJohansen(rows []int) *cifCurve {
	type subject struct {
		time  float64
		delta int
	}
	subjects := make([]subject, 0, len(rows))
	for _, i := range rows {
		o := g.table.Row(i)
		subjects = append(subjects, subject{time: o.Time, delta: o.Delta})
	}
	sort.Slice(subjects, func(a, b int) bool { return subjects[a].time < subjects[b].time })

	curve := &cifCurve{}
	surv := 1.0 // overall event-free survival just before the current time
	cif := 0.0
	atRisk := len(subjects)
	for i := 0; i < len(subjects); {
		t := subjects[i].time
		dAll, dCause, removed := 0, 0, 0
		for ; i < len(subjects) && subjects[i].time == t; i++ {
			removed++
			if subjects[i].delta != dataset.CodeCensored {
				dAll++
			}
			if subjects[i].delta == g.cause {
				dCause++
			}
		}
		y := float64(atRisk)
		if dCause > 0 {
			cif += surv * float64(dCause) / y
			curve.times = append(curve.times, t)
			curve.values = append(curve.values, cif)
		}
		if dAll > 0 {
			surv *= 1 - float64(dAll)/y
		}
		atRisk -= removed
	}
	return curve
}
