package calculator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tripfund/internal/models"
)

// Budget statuses.
const (
	StatusOnTrack    = "on_track"
	StatusOverBudget = "over_budget"
)

var hundred = decimal.NewFromInt(100)

// CategoryStatus is the analysis of one budget category.
type CategoryStatus struct {
	Name           string
	Budget         decimal.Decimal
	Spent          decimal.Decimal
	PercentageUsed decimal.Decimal // Rounded to 2 places for display
	Status         string
}

// ValidateBudget rejects non-positive monthly budgets. It runs when a
// category is created so analysis never divides by zero.
func ValidateBudget(monthlyBudget decimal.Decimal) error {
	if !monthlyBudget.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidBudget, monthlyBudget)
	}
	return nil
}

// AnalyzeBudget computes utilisation for each category, preserving input order.
// A category is on track up to and including 100% usage.
func AnalyzeBudget(categories []models.BudgetCategory) ([]CategoryStatus, error) {
	out := make([]CategoryStatus, 0, len(categories))
	for _, c := range categories {
		if err := ValidateBudget(c.MonthlyBudget); err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Name, err)
		}

		pct := c.CurrentSpent.Mul(hundred).Div(c.MonthlyBudget)
		status := StatusOnTrack
		if pct.GreaterThan(hundred) {
			status = StatusOverBudget
		}

		out = append(out, CategoryStatus{
			Name:           c.Name,
			Budget:         c.MonthlyBudget,
			Spent:          c.CurrentSpent,
			PercentageUsed: pct.Round(centPlaces),
			Status:         status,
		})
	}
	return out, nil
}

// MonthKey returns the first instant of t's month in UTC, the period key of budget categories.
func MonthKey(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
