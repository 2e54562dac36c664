package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tripfund/internal/models"
)

var (
	silverThreshold = decimal.NewFromInt(1000)
	goldThreshold   = decimal.NewFromInt(5000)
	pointValue      = decimal.New(1, -2) // 1 point = 0.01
)

// CheckFunds verifies that amount can be debited from balance.
func CheckFunds(balance, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(balance) {
		return fmt.Errorf("%w: balance %s, requested %s", ErrInsufficientFunds, balance.StringFixed(centPlaces), amount.StringFixed(centPlaces))
	}
	return nil
}

// NormalizeAmount rounds a money amount to cents and rejects non-positive values.
func NormalizeAmount(amount decimal.Decimal) (decimal.Decimal, error) {
	amount = amount.Round(centPlaces)
	if !amount.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return amount, nil
}

// RewardPoints returns the points earned for a confirmed deposit: one per whole unit.
func RewardPoints(deposit decimal.Decimal) decimal.Decimal {
	if !deposit.IsPositive() {
		return decimal.Zero
	}
	return deposit.Floor()
}

// RewardLevel maps a points total to a loyalty level.
func RewardLevel(points decimal.Decimal) string {
	switch {
	case points.GreaterThanOrEqual(goldThreshold):
		return models.LevelGold
	case points.GreaterThanOrEqual(silverThreshold):
		return models.LevelSilver
	default:
		return models.LevelBronze
	}
}

// RewardCashValue converts points to their cash equivalent.
func RewardCashValue(points decimal.Decimal) decimal.Decimal {
	return points.Mul(pointValue)
}
