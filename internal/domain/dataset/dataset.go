// Package dataset holds the observation table: a statically declared
// schema, load-time validation and filtering, and immutable row access.
package dataset

import (
	"fmt"
)

// Event-type codes. Anything above CodeEvent is a competing risk.
const (
	CodeCensored = 0
	CodeEvent    = 1
	CodeCompeting = 2
)

// Schema statically declares the columns the pipeline uses. Column names
// are validated against the source header at load time; a mismatch fails
// fast instead of a loose lookup returning garbage downstream.
type Schema struct {
	TimeColumn  string
	EventColumn string
	Categorical []string
	Continuous  []string
}

// Predictors returns the predictor names, categorical first.
func (s Schema) Predictors() []string {
	out := make([]string, 0, len(s.Categorical)+len(s.Continuous))
	out = append(out, s.Categorical...)
	out = append(out, s.Continuous...)
	return out
}

// Observation is one complete row. Cat and Cont are aligned with the
// schema's Categorical and Continuous lists. Observations are immutable
// after load, aside from the time cap applied during parsing.
type Observation struct {
	Time  float64
	Delta int
	Cat   []string
	Cont  []float64
}

// Table is the immutable observation table shared by every fold. Folds
// address it through index sets; nothing mutates it after load.
type Table struct {
	schema  Schema
	obs     []Observation
	dropped int
}

// New builds a table from already-parsed observations.
func New(schema Schema, obs []Observation) *Table {
	return &Table{schema: schema, obs: obs}
}

// Schema returns the declared schema.
func (t *Table) Schema() Schema { return t.schema }

// Len returns the number of retained observations.
func (t *Table) Len() int { return len(t.obs) }

// Dropped returns how many rows the missing-value filter removed.
func (t *Table) Dropped() int { return t.dropped }

// Row returns the i-th observation.
func (t *Table) Row(i int) Observation { return t.obs[i] }

// Labels returns the event-type code per observation, the stratification
// input for fold generation.
func (t *Table) Labels() []int {
	labels := make([]int, len(t.obs))
	for i, o := range t.obs {
		labels[i] = o.Delta
	}
	return labels
}

// Subset returns a new table holding the rows at the given indices. The
// underlying observations are shared, not copied; they are immutable.
func (t *Table) Subset(indices []int) (*Table, error) {
	obs := make([]Observation, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(t.obs) {
			return nil, fmt.Errorf("%w: index %d of %d", ErrIndexOutOfRange, idx, len(t.obs))
		}
		obs[i] = t.obs[idx]
	}
	return &Table{schema: t.schema, obs: obs}, nil
}
