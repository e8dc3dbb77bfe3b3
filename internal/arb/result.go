package arb

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Result is one round-trip arbitrage computation: the signed yield, in token
// units, of converting the notional out and back in each direction.
type Result struct {
	BaseToModeYield decimal.Decimal
	ModeToBaseYield decimal.Decimal
	ComputedAt      time.Time
}

// Store holds the single most recent result. The slot starts empty and each
// successful computation replaces it whole; readers never observe a partial
// value. Failed cycles leave the previous value untouched.
type Store struct {
	mu      sync.RWMutex
	current Result
	set     bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Publish replaces the current result.
func (s *Store) Publish(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = r
	s.set = true
}

// Load returns the current result and whether one has been published yet.
func (s *Store) Load() (Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.set
}
