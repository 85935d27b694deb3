// Package results defines the metric record store interface and errors.
//
// The store replaces ad hoc mutable accumulators across the grid, fold
// and horizon loops: every iteration appends an immutable write-once
// record, and the driver derives rankings and summaries from queries.
// Appends are guarded, so the optional parallel tuning loop can share a
// store safely.
package results

import (
	"context"
	"sync"

	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/summary"
)

// Store provides append and grouped read access to metric records.
type Store interface {
	// Add appends one write-once record.
	Add(ctx context.Context, rec summary.Record) error

	// ByMetric returns all records carrying the metric name, in
	// insertion order.
	ByMetric(ctx context.Context, metric string) []summary.Record

	// ByCombo returns the records of one hyperparameter combination and
	// metric name.
	ByCombo(ctx context.Context, combo, metric string) []summary.Record

	// Count returns the number of records held.
	Count(ctx context.Context) int
}

// MemoryStore implements Store with a mutex-guarded append-only slice.
type MemoryStore struct {
	mu      sync.RWMutex
	records []summary.Record
}

// NewMemoryStore creates an in-memory record store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends one record.
func (s *MemoryStore) Add(_ context.Context, rec summary.Record) error {
	if rec.Metric == "" {
		return ErrUnnamedMetric
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// ByMetric returns all records with the given metric name.
func (s *MemoryStore) ByMetric(_ context.Context, metric string) []summary.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []summary.Record
	for _, r := range s.records {
		if r.Metric == metric {
			out = append(out, r)
		}
	}
	return out
}

// ByCombo returns the records of one combination and metric.
func (s *MemoryStore) ByCombo(_ context.Context, combo, metric string) []summary.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []summary.Record
	for _, r := range s.records {
		if r.Combo == combo && r.Metric == metric {
			out = append(out, r)
		}
	}
	return out
}

// Count returns the number of records held.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
