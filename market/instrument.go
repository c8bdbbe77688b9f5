package market

import "github.com/shopspring/decimal"

// Seed describes one tracked instrument at process start. The instrument set
// is fixed for the life of the process.
type Seed struct {
	Symbol string
	Price  decimal.Decimal
}

// DefaultFloor is the minimum price an instrument may reach. The random walk
// has no natural lower bound, so a tick that would drive a price to zero or
// negative clamps here instead.
var DefaultFloor = decimal.NewFromFloat(0.01)
