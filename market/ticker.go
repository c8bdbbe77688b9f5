package market

import (
	"context"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultJitter is the half-width of the symmetric perturbation interval:
// each tick multiplies a price by (1 + d) with d uniform in (-0.01, +0.01).
const DefaultJitter = 0.01

// TickFunc receives the post-tick price map and history map, copied out of
// State, once per cycle.
type TickFunc func(prices map[string]decimal.Decimal, history map[string][]decimal.Decimal)

// Ticker drives the market: once per interval it advances every instrument
// and hands the updated snapshots to onTick for broadcast. It is the sole
// writer of its State.
type Ticker struct {
	state    *State
	interval time.Duration
	jitter   float64
	rng      *rand.Rand
	onTick   TickFunc
}

// NewTicker builds a ticker over state. A zero seed derives one from the
// clock; a fixed seed gives a reproducible price path for tests and demos.
func NewTicker(state *State, interval time.Duration, seed int64, onTick TickFunc) *Ticker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Ticker{
		state:    state,
		interval: interval,
		jitter:   DefaultJitter,
		rng:      rand.New(rand.NewSource(seed)),
		onTick:   onTick,
	}
}

// Step applies a single tick and reports the snapshots to onTick. Exposed so
// tests and the replay tooling can drive the market without real time.
func (t *Ticker) Step() {
	t.state.Advance(func(string) decimal.Decimal {
		d := (t.rng.Float64()*2 - 1) * t.jitter
		return decimal.NewFromFloat(1 + d)
	})
	if t.onTick != nil {
		t.onTick(t.state.Prices(), t.state.Histories())
	}
}

// Run ticks until ctx is cancelled.
func (t *Ticker) Run(ctx context.Context) {
	tick := time.NewTicker(t.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			t.Step()
		}
	}
}
