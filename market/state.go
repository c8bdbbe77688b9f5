package market

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// State holds the current price and bounded price history for every tracked
// instrument. It is the single source of truth for market data: the tick
// generator is the only writer, everything else reads through snapshot
// accessors that copy out under a read lock. A reader never observes an
// instrument with its price updated but its history not yet appended.
type State struct {
	mu         sync.RWMutex
	symbols    []string // stable iteration order
	prices     map[string]decimal.Decimal
	history    map[string][]decimal.Decimal
	maxHistory int
	floor      decimal.Decimal
}

// NewState builds the market from a static seed set. Seeds with non-positive
// prices are rejected; the instrument set never changes afterwards.
func NewState(seeds []Seed, maxHistory int) (*State, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("market: no instruments configured")
	}
	if maxHistory <= 0 {
		return nil, fmt.Errorf("market: history limit must be positive, got %d", maxHistory)
	}

	s := &State{
		prices:     make(map[string]decimal.Decimal, len(seeds)),
		history:    make(map[string][]decimal.Decimal, len(seeds)),
		maxHistory: maxHistory,
		floor:      DefaultFloor,
	}
	for _, seed := range seeds {
		if seed.Symbol == "" {
			return nil, fmt.Errorf("market: empty instrument symbol")
		}
		if !seed.Price.IsPositive() {
			return nil, fmt.Errorf("market: instrument %s seed price must be positive, got %s", seed.Symbol, seed.Price)
		}
		if _, dup := s.prices[seed.Symbol]; dup {
			return nil, fmt.Errorf("market: duplicate instrument %s", seed.Symbol)
		}
		p := seed.Price.Round(2)
		s.symbols = append(s.symbols, seed.Symbol)
		s.prices[seed.Symbol] = p
		s.history[seed.Symbol] = []decimal.Decimal{p}
	}
	sort.Strings(s.symbols)
	return s, nil
}

// SetFloor overrides the clamp floor. Must be called before ticking starts.
func (s *State) SetFloor(floor decimal.Decimal) {
	if floor.IsPositive() {
		s.floor = floor
	}
}

// Tracked reports whether symbol belongs to the instrument set.
func (s *State) Tracked(symbol string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.prices[symbol]
	return ok
}

// Symbols returns the tracked symbols in sorted order.
func (s *State) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.symbols))
	copy(out, s.symbols)
	return out
}

// Price returns the current price for symbol.
func (s *State) Price(symbol string) (decimal.Decimal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.prices[symbol]
	return p, ok
}

// Prices returns a copy of the full current price map.
func (s *State) Prices() map[string]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(s.prices))
	for sym, p := range s.prices {
		out[sym] = p
	}
	return out
}

// History returns a copy of symbol's bounded price history, oldest first.
// Untracked symbols yield an empty slice, not an error.
func (s *State) History(symbol string) []decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := s.history[symbol]
	out := make([]decimal.Decimal, len(h))
	copy(out, h)
	return out
}

// Histories returns a copy of the full history map, each sequence oldest first.
func (s *State) Histories() map[string][]decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]decimal.Decimal, len(s.history))
	for sym, h := range s.history {
		c := make([]decimal.Decimal, len(h))
		copy(c, h)
		out[sym] = c
	}
	return out
}

// Advance applies one tick to every instrument: each price moves by a bounded
// multiplicative step produced by perturb (a factor such as 1.0037), rounded
// to 2 decimals and clamped at the floor, then is appended to the history with
// the oldest entry evicted past the cap. The whole tick happens under the
// write lock so readers see either the previous cycle or the new one.
func (s *State) Advance(perturb func(symbol string) decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sym := range s.symbols {
		old := s.prices[sym]

		factor := perturb(sym)
		if !factor.IsPositive() {
			// A broken perturbation leaves the last good price in place
			// rather than poisoning the instrument or aborting the cycle.
			factor = decimal.NewFromInt(1)
		}

		next := old.Mul(factor).Round(2)
		if next.LessThanOrEqual(s.floor) {
			next = s.floor
		}

		s.prices[sym] = next
		h := append(s.history[sym], next)
		if len(h) > s.maxHistory {
			h = h[len(h)-s.maxHistory:]
		}
		s.history[sym] = h
	}
}
