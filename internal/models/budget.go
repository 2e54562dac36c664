package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetCategory is a per-user, per-month spending ceiling.
// Categories are keyed by (UserID, Name, Month); a new row is expected
// each calendar month.
type BudgetCategory struct {
	ID     string
	UserID string
	Name   string

	// MonthlyBudget is the ceiling for the month. Always positive.
	MonthlyBudget decimal.Decimal

	// CurrentSpent is what has been spent in the category this month.
	CurrentSpent decimal.Decimal

	// Month is the first day of the month the category applies to (UTC).
	Month time.Time
}
