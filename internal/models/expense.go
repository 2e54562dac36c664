package models

import "github.com/shopspring/decimal"

// SplitEqual is the only split type currently supported.
const SplitEqual = "equal"

// Payment request statuses.
const (
	RequestPending  = "pending"
	RequestPaid     = "paid"
	RequestDeclined = "declined"
)

// Expense represents an amount one trip participant paid for the group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// TripID is the trip the expense belongs to.
	TripID string

	// Description is what was paid for (e.g., "Fuel", "Campsite").
	Description string

	// Amount is the total paid. Always positive.
	Amount decimal.Decimal

	// PaidBy is the user who paid.
	PaidBy string

	// SplitType is how the amount is divided. Only SplitEqual is implemented.
	SplitType string

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64
}

// PaymentRequest is one participant's obligation derived from an Expense.
// Requests are created together with their expense and only their
// Status changes afterwards.
type PaymentRequest struct {
	ID        string
	ExpenseID string

	// TripID is copied from the expense so balances can filter by trip.
	TripID string

	// UserID is the participant who owes the amount.
	UserID string

	// PayeeID is the participant who paid the expense and is owed.
	PayeeID string

	Amount decimal.Decimal

	// Status is one of RequestPending, RequestPaid, RequestDeclined.
	Status string

	CreatedAt int64
	UpdatedAt int64
}

// Payment statuses shared by trip payments and wallet deposits.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment is a trip payment made through the external payment processor.
type Payment struct {
	ID            string
	TripID        string
	UserID        string
	Amount        decimal.Decimal
	Status        string
	PaymentMethod string

	// ProcessorID is the identifier assigned by the payment processor.
	ProcessorID string

	CreatedAt int64
}
