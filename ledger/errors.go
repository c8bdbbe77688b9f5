package ledger

import "errors"

var (
	// ErrInsufficientFunds rejects a buy whose total exceeds the account's cash.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientHoldings rejects a sell larger than the owned quantity.
	ErrInsufficientHoldings = errors.New("insufficient holdings")

	// ErrBadAmount rejects a deposit that is not strictly positive.
	ErrBadAmount = errors.New("deposit amount must be positive")
)
