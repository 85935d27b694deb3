// Package results defines the metric record store interface and errors.
package results

import (
	"github.com/fmhr12/SuevML-CR-RFS/internal/domain/summary"
)

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithCapacity pre-allocates record storage for a known run shape
// (combinations x folds x horizons).
func WithCapacity(n int) Option {
	return func(s *MemoryStore) {
		if n > 0 {
			s.records = make([]summary.Record, 0, n)
		}
	}
}
