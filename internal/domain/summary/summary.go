// Package summary contains the metric record model and the cross-fold
// aggregation arithmetic: group means with two-sided 95% confidence
// intervals under the normal approximation.
package summary

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// z975 is the 97.5th percentile of the standard normal distribution.
const z975 = 1.959964

// Metric names shared across the pipeline.
const (
	MetricAUC    = "auc"
	MetricBrier  = "brier"
	MetricIBS    = "ibs"
	MetricCIndex = "cindex"
	MetricCIF    = "cif"
)

// Value is a first-class optional float64. A missing value is recorded
// when a metric could not be computed for a fold/horizon; it is excluded
// from every aggregation, never substituted with zero.
type Value struct {
	v  float64
	ok bool
}

// Some wraps a computed value.
func Some(v float64) Value { return Value{v: v, ok: true} }

// Missing is the absent value.
func Missing() Value { return Value{} }

// FromFloat treats NaN as missing, anything else as present.
func FromFloat(v float64) Value {
	if math.IsNaN(v) {
		return Missing()
	}
	return Some(v)
}

// Float returns the value and whether it is present.
func (v Value) Float() (float64, bool) { return v.v, v.ok }

// IsMissing reports whether the value is absent.
func (v Value) IsMissing() bool { return !v.ok }

// Record is one write-once metric observation. Combo is empty for
// final-phase records, which belong to the single selected combination.
type Record struct {
	Combo  string
	Fold   string
	Metric string
	Time   float64
	Value  Value
}

// Summary is the aggregate of one record group: mean and 95% CI bounds.
// With fewer than two present values the CI bounds are missing; with
// zero present values the mean is missing as well.
type Summary struct {
	Time  float64
	N     int
	Mean  Value
	Lower Value
	Upper Value
}

// Aggregate summarizes a set of optional values. Missing inputs are
// excluded from n, the mean and the CI.
func Aggregate(values []Value) Summary {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := v.Float(); ok {
			present = append(present, f)
		}
	}
	s := Summary{N: len(present)}
	if len(present) == 0 {
		return s
	}
	mean := stat.Mean(present, nil)
	s.Mean = Some(mean)
	if len(present) < 2 {
		return s
	}
	sd := stat.StdDev(present, nil)
	half := z975 * sd / math.Sqrt(float64(len(present)))
	s.Lower = Some(mean - half)
	s.Upper = Some(mean + half)
	return s
}

// ByTime groups records on their Time key and aggregates each group,
// returning summaries in ascending time order. The same summarizer serves
// AUC-by-time, Brier-by-time, IBS-by-horizon, C-index-by-horizon and
// CIF-by-time.
func ByTime(records []Record) []Summary {
	groups := make(map[float64][]Value)
	for _, r := range records {
		groups[r.Time] = append(groups[r.Time], r.Value)
	}
	times := make([]float64, 0, len(groups))
	for t := range groups {
		times = append(times, t)
	}
	sort.Float64s(times)

	out := make([]Summary, 0, len(times))
	for _, t := range times {
		s := Aggregate(groups[t])
		s.Time = t
		out = append(out, s)
	}
	return out
}
