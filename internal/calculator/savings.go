package calculator

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tripfund/internal/models"
)

// periodDays maps an auto-save frequency to its length in days.
var periodDays = map[string]int64{
	models.FrequencyDaily:   1,
	models.FrequencyWeekly:  7,
	models.FrequencyMonthly: 30,
}

// ValidFrequency reports whether freq is a supported auto-save frequency.
func ValidFrequency(freq string) bool {
	_, ok := periodDays[freq]
	return ok
}

// RemainingDays returns the number of whole days from now until deadline.
// Partial days are floored, so a deadline later today yields 0.
func RemainingDays(deadline, now time.Time) int64 {
	return int64(math.Floor(deadline.Sub(now).Hours() / 24))
}

// ComputeSavingsContribution returns the per-period amount needed to reach
// the goal's target by its deadline at the goal's auto-save frequency.
//
// Algorithm:
//   - remaining = target - current
//   - divisor = remaining_days / period_days (daily 1, weekly 7, monthly 30)
//   - per_period = remaining / divisor, rounded up to cents and capped at remaining
func ComputeSavingsContribution(goal models.SavingsGoal, now time.Time) (decimal.Decimal, error) {
	period, ok := periodDays[goal.AutoSaveFrequency]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: unknown frequency %q", ErrInvalidSchedule, goal.AutoSaveFrequency)
	}

	days := RemainingDays(goal.Deadline, now)
	if days <= 0 {
		return decimal.Zero, fmt.Errorf("%w: deadline %s is not in the future", ErrInvalidSchedule, goal.Deadline.Format(time.DateOnly))
	}

	remaining := goal.Remaining()
	if !remaining.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: goal already met", ErrInvalidSchedule)
	}

	// remaining * period / days avoids dividing by a repeating fraction
	perPeriod := remaining.
		Mul(decimal.NewFromInt(period)).
		Div(decimal.NewFromInt(days)).
		RoundCeil(centPlaces)
	if perPeriod.GreaterThan(remaining) {
		perPeriod = remaining
	}
	return perPeriod, nil
}

// DeriveSavingsRule builds the fixed recurring rule for goal.
// The returned rule has no ID; storage assigns one when it replaces the
// goal's previous rule.
func DeriveSavingsRule(goal models.SavingsGoal, now time.Time) (*models.SavingsRule, error) {
	amount, err := ComputeSavingsContribution(goal, now)
	if err != nil {
		return nil, err
	}
	return &models.SavingsRule{
		UserID:    goal.UserID,
		GoalID:    goal.ID,
		RuleType:  models.RuleFixed,
		Amount:    amount,
		Frequency: goal.AutoSaveFrequency,
		IsActive:  true,
		CreatedAt: now.Unix(),
	}, nil
}

// ContributionPlan describes the effect of adding money to a goal.
type ContributionPlan struct {
	// Applied is the amount actually moved, never more than what was missing.
	Applied decimal.Decimal

	// Goal is the goal after the contribution.
	Goal models.SavingsGoal

	// Rule replaces the goal's rule. Nil means the goal has no active rule
	// afterwards (auto-save off, goal completed, or deadline passed).
	Rule *models.SavingsRule
}

// PlanContribution applies amount to goal and recomputes its savings rule
// from the resulting state.
func PlanContribution(goal models.SavingsGoal, amount decimal.Decimal, now time.Time) (ContributionPlan, error) {
	amount = amount.Round(centPlaces)
	if !amount.IsPositive() {
		return ContributionPlan{}, ErrInvalidAmount
	}
	remaining := goal.Remaining()
	if goal.Completed || !remaining.IsPositive() {
		return ContributionPlan{}, fmt.Errorf("%w: goal already met", ErrInvalidSchedule)
	}

	applied := decimal.Min(amount, remaining)
	goal.CurrentAmount = goal.CurrentAmount.Add(applied)
	goal.Completed = goal.CurrentAmount.GreaterThanOrEqual(goal.TargetAmount)

	plan := ContributionPlan{Applied: applied, Goal: goal}
	if goal.AutoSave && !goal.Completed {
		// An expired deadline leaves the goal without a rule rather than failing the contribution
		if rule, err := DeriveSavingsRule(goal, now); err == nil {
			plan.Rule = rule
		}
	}
	return plan, nil
}

// DeriveNextSavingsRule derives the rule for a goal whose current period is
// already paid, spreading what is left over the periods after it. When the
// deadline falls inside the next period the rule is derived from now, which
// asks for the whole remainder on the next run.
func DeriveNextSavingsRule(goal models.SavingsGoal, now time.Time) (*models.SavingsRule, error) {
	period, ok := periodDays[goal.AutoSaveFrequency]
	if !ok {
		return nil, fmt.Errorf("%w: unknown frequency %q", ErrInvalidSchedule, goal.AutoSaveFrequency)
	}
	rule, err := DeriveSavingsRule(goal, now.AddDate(0, 0, int(period)))
	if err != nil {
		return DeriveSavingsRule(goal, now)
	}
	rule.CreatedAt = now.Unix()
	return rule, nil
}

// PlanScheduledContribution is PlanContribution for the automatic payment of
// the current period. The new rule covers only the periods still to come.
func PlanScheduledContribution(goal models.SavingsGoal, amount decimal.Decimal, now time.Time) (ContributionPlan, error) {
	plan, err := PlanContribution(goal, amount, now)
	if err != nil || plan.Rule == nil {
		return plan, err
	}
	rule, err := DeriveNextSavingsRule(plan.Goal, now)
	if err != nil {
		return plan, nil
	}
	plan.Rule = rule
	return plan, nil
}

// Progress summarises how far a goal is from its target.
type Progress struct {
	Remaining          decimal.Decimal
	RemainingDays      int64
	ProgressPercentage decimal.Decimal
}

// GoalProgress reports the remaining amount, days left and percentage saved.
func GoalProgress(goal models.SavingsGoal, now time.Time) Progress {
	pct := decimal.Zero
	if goal.TargetAmount.IsPositive() {
		pct = goal.CurrentAmount.Div(goal.TargetAmount).Mul(hundred).Round(centPlaces)
	}
	return Progress{
		Remaining:          goal.Remaining(),
		RemainingDays:      RemainingDays(goal.Deadline, now),
		ProgressPercentage: pct,
	}
}

// Recommendation suggests a daily saving amount for an open goal.
type Recommendation struct {
	GoalID      string
	GoalName    string
	DailyAmount decimal.Decimal
	Message     string
}

// RecommendSavings returns a per-day saving suggestion for every goal that is
// still open and whose deadline is in the future, in input order.
func RecommendSavings(goals []models.SavingsGoal, now time.Time) []Recommendation {
	var recs []Recommendation
	for _, g := range goals {
		remaining := g.Remaining()
		days := RemainingDays(g.Deadline, now)
		if g.Completed || !remaining.IsPositive() || days <= 0 {
			continue
		}
		daily := remaining.Div(decimal.NewFromInt(days)).RoundCeil(centPlaces)
		recs = append(recs, Recommendation{
			GoalID:      g.ID,
			GoalName:    g.Name,
			DailyAmount: daily,
			Message:     fmt.Sprintf("To reach your goal '%s', save %s per day.", g.Name, daily.StringFixed(centPlaces)),
		})
	}
	return recs
}

// dueness decides, per frequency, whether a rule last applied at last is due at now.
var dueness = map[string]func(last, now time.Time) bool{
	models.FrequencyDaily: func(last, now time.Time) bool {
		return last.UTC().Format(time.DateOnly) != now.UTC().Format(time.DateOnly)
	},
	models.FrequencyWeekly: func(last, now time.Time) bool {
		return now.Sub(last) >= 7*24*time.Hour
	},
	models.FrequencyMonthly: func(last, now time.Time) bool {
		l, n := last.UTC(), now.UTC()
		return l.Year() != n.Year() || l.Month() != n.Month()
	},
}

// IsContributionDue reports whether a rule with the given frequency, last
// applied at lastApplied (zero = never), should contribute at now.
func IsContributionDue(frequency string, lastApplied, now time.Time) bool {
	check, ok := dueness[frequency]
	if !ok {
		return false
	}
	if lastApplied.IsZero() {
		return true
	}
	return check(lastApplied, now)
}
