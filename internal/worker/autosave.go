// Package worker runs background jobs alongside the RPC server.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/tripfund/internal/calculator"
	"github.com/mmynk/tripfund/internal/metrics"
	"github.com/mmynk/tripfund/internal/models"
	"github.com/mmynk/tripfund/internal/storage"
)

// AutoSaver moves money from wallets into savings goals according to their rules.
type AutoSaver struct {
	store   storage.SavingsStore
	metrics *metrics.Metrics
}

// NewAutoSaver creates an AutoSaver. m may be nil.
func NewAutoSaver(store storage.SavingsStore, m *metrics.Metrics) *AutoSaver {
	return &AutoSaver{store: store, metrics: m}
}

// Run applies due rules immediately and then every interval until ctx is done.
func (a *AutoSaver) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("Auto-save worker started", "interval", interval)
	a.tick(ctx, time.Now(), interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Auto-save worker stopped")
			return nil
		case now := <-ticker.C:
			a.tick(ctx, now, interval)
		}
	}
}

func (a *AutoSaver) tick(ctx context.Context, now time.Time, interval time.Duration) {
	applied, err := a.RunOnce(ctx, now)
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Auto-save run failed", "error", err)
		return
	}
	slog.Info("Auto-save run complete", "applied", applied, "next_check", now.Add(interval).Format(time.Kitchen))
}

// RunOnce applies every active rule that is due at now and returns how many
// contributions were made. A failing rule is logged and skipped.
func (a *AutoSaver) RunOnce(ctx context.Context, now time.Time) (int, error) {
	rules, err := a.store.ListActiveRules(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list savings rules: %w", err)
	}

	applied := 0
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return applied, err
		}

		var last time.Time
		if rule.LastAppliedAt > 0 {
			last = time.Unix(rule.LastAppliedAt, 0)
		}
		if !calculator.IsContributionDue(rule.Frequency, last, now) {
			continue
		}

		outcome := a.apply(ctx, rule, now)
		a.metrics.Autosave(outcome)
		if outcome == metrics.OutcomeApplied {
			applied++
		}
	}
	return applied, nil
}

func (a *AutoSaver) apply(ctx context.Context, rule *models.SavingsRule, now time.Time) string {
	goal, err := a.store.GetGoal(ctx, rule.GoalID)
	if err != nil {
		slog.Error("Auto-save: failed to load goal", "goal_id", rule.GoalID, "error", err)
		return metrics.OutcomeError
	}

	// Goals past their deadline or already met keep no rule
	if goal.Completed || !goal.Remaining().IsPositive() || !goal.Deadline.After(now) {
		if err := a.store.UpdateGoal(ctx, goal, nil); err != nil {
			slog.Error("Auto-save: failed to retire rule", "goal_id", goal.ID, "error", err)
			return metrics.OutcomeError
		}
		slog.Info("Auto-save rule retired", "goal_id", goal.ID, "completed", goal.Completed)
		return metrics.OutcomeExpired
	}

	plan, err := calculator.PlanScheduledContribution(*goal, rule.Amount, now)
	if err != nil {
		slog.Error("Auto-save: cannot plan contribution", "goal_id", goal.ID, "error", err)
		return metrics.OutcomeError
	}
	if plan.Rule != nil {
		plan.Rule.LastAppliedAt = now.Unix()
	}

	err = a.store.ApplyContribution(ctx, storage.GoalContribution{
		Goal:        &plan.Goal,
		Amount:      plan.Applied,
		FromWallet:  true,
		ReplaceRule: true,
		Rule:        plan.Rule,
	})
	switch {
	case errors.Is(err, calculator.ErrInsufficientFunds):
		slog.Warn("Auto-save skipped: insufficient funds", "goal_id", goal.ID, "user_id", goal.UserID, "amount", plan.Applied)
		return metrics.OutcomeInsufficientFunds
	case err != nil:
		slog.Error("Auto-save contribution failed", "goal_id", goal.ID, "error", err)
		return metrics.OutcomeError
	}

	slog.Info("Auto-save contribution applied",
		"goal_id", goal.ID,
		"user_id", goal.UserID,
		"amount", plan.Applied,
		"completed", plan.Goal.Completed,
	)
	return metrics.OutcomeApplied
}
