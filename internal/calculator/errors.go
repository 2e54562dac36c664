package calculator

import "errors"

var (
	ErrInvalidSplitInput = errors.New("invalid split input")
	ErrInvalidSchedule   = errors.New("invalid savings schedule")
	ErrInvalidBudget     = errors.New("monthly budget must be positive")
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
)
