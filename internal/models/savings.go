package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Auto-save frequencies.
const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
)

// RuleFixed is a rule that contributes a fixed amount every period.
const RuleFixed = "fixed"

// SavingsGoal is a target amount a user (or group) saves towards by a deadline.
type SavingsGoal struct {
	ID     string
	UserID string
	Name   string

	// TargetAmount is the amount to reach. Always positive.
	TargetAmount decimal.Decimal

	// CurrentAmount is what has been saved so far.
	CurrentAmount decimal.Decimal

	// Deadline is when the target should be reached (UTC).
	Deadline time.Time

	IsGroup bool

	// AutoSave enables a derived SavingsRule that contributes every AutoSaveFrequency.
	AutoSave          bool
	AutoSaveFrequency string

	// Completed is set once CurrentAmount reaches TargetAmount.
	Completed bool

	CreatedAt int64
}

// Remaining returns how much is still missing to reach the target.
func (g *SavingsGoal) Remaining() decimal.Decimal {
	return g.TargetAmount.Sub(g.CurrentAmount)
}

// SavingsRule is the recurring contribution derived from a SavingsGoal.
// A goal has at most one rule; it is replaced whenever the goal changes.
type SavingsRule struct {
	ID     string
	UserID string
	GoalID string

	// RuleType is currently always RuleFixed.
	RuleType string

	// Amount is the per-period contribution.
	Amount decimal.Decimal

	// Frequency mirrors the goal's AutoSaveFrequency.
	Frequency string

	IsActive bool

	// LastAppliedAt is the Unix timestamp of the last automatic contribution (0 = never).
	LastAppliedAt int64

	CreatedAt int64
}
