// Package validate implements static validation of run configurations
// against instrument-physical limits.
//
// Validation is pure and deterministic: the rule set is declared data, the
// checker only iterates it. New limits can be added without touching control
// flow. Validation never performs controller I/O.
package validate

import "sync"

// Limits holds the instrument-physical bounds a configuration is checked
// against. Values are inclusive unless noted.
type Limits struct {
	// TFRMin and TFRMax bound the total flow rate in mL/min.
	TFRMin float64
	TFRMax float64

	// RatioMin and RatioMax bound the aqueous:solvent flow rate ratio.
	RatioMin float64
	RatioMax float64

	// TempMin and TempMax bound the process temperature in degrees Celsius.
	TempMin float64
	TempMax float64

	// MinRunDuration is the minimum settling time in minutes; a run shorter
	// than this cannot produce stable particle sizes.
	MinRunDuration float64

	// MaxSessionDuration is the maximum session duration in minutes.
	MaxSessionDuration float64

	// SmallManifoldCeiling and LargeManifoldCeiling cap the target volume
	// in mL per manifold size.
	SmallManifoldCeiling float64
	LargeManifoldCeiling float64
}

// DefaultLimits returns the shipped instrument limits.
func DefaultLimits() Limits {
	return Limits{
		TFRMin:               0.8,
		TFRMax:               15.0,
		RatioMin:             1.0,
		RatioMax:             10.0,
		TempMin:              5.0,
		TempMax:              60.0,
		MinRunDuration:       0.2,
		MaxSessionDuration:   240.0,
		SmallManifoldCeiling: 10.0,
		LargeManifoldCeiling: 50.0,
	}
}

// Store holds the live limits and allows hot replacement, e.g. when the
// limits file changes on disk. Reads and writes are safe for concurrent use.
type Store struct {
	mu  sync.RWMutex
	lim Limits
}

// NewStore creates a Store seeded with the given limits.
func NewStore(lim Limits) *Store {
	return &Store{lim: lim}
}

// Current returns the live limits.
func (s *Store) Current() Limits {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lim
}

// Replace swaps in a new limit set. In-flight validations keep the limits
// they started with.
func (s *Store) Replace(lim Limits) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lim = lim
}
