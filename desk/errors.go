package desk

import "errors"

var (
	// ErrUnknownInstrument rejects a trade against a symbol outside the
	// tracked set.
	ErrUnknownInstrument = errors.New("unknown instrument")

	// ErrBadQuantity rejects a trade whose quantity is not a positive integer.
	ErrBadQuantity = errors.New("quantity must be a positive integer")

	// ErrBadSide rejects a trade whose side is neither buy nor sell.
	ErrBadSide = errors.New("side must be buy or sell")
)
