package dispenser

import "errors"

var (
	// ErrUnsupportedAmount means the feasibility gate rejected the amount; no search was run.
	ErrUnsupportedAmount = errors.New("amount cannot be dispensed with the note denominations available in this dispenser")

	// ErrInsufficientFunds means the gate passed but no combination fits the current stock.
	ErrInsufficientFunds = errors.New("insufficient funds in dispenser")

	ErrInvalidInventory = errors.New("invalid inventory")
)
