package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tripfund/internal/calculator"
	"github.com/mmynk/tripfund/internal/metrics"
	"github.com/mmynk/tripfund/internal/models"
	"github.com/mmynk/tripfund/internal/storage"
	"github.com/mmynk/tripfund/internal/storage/sqlite"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setup(t *testing.T) (*sqlite.SQLiteStore, *AutoSaver, *prometheus.Registry) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "worker.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	reg := prometheus.NewRegistry()
	return store, NewAutoSaver(store, metrics.New(reg)), reg
}

func fundWallet(t *testing.T, store *sqlite.SQLiteStore, userID, balance string) {
	t.Helper()
	if err := store.CreateWallet(context.Background(), &models.Wallet{UserID: userID, Balance: d(balance)}); err != nil {
		t.Fatalf("CreateWallet failed: %v", err)
	}
}

// createAutoGoal stores a daily auto-save goal of 100 due in ten days,
// which derives a rule of 10 per day.
func createAutoGoal(t *testing.T, store *sqlite.SQLiteStore, userID string) *models.SavingsGoal {
	t.Helper()
	goal := &models.SavingsGoal{
		UserID:            userID,
		Name:              "Porto trip",
		TargetAmount:      d("100"),
		CurrentAmount:     decimal.Zero,
		Deadline:          now.AddDate(0, 0, 10),
		AutoSave:          true,
		AutoSaveFrequency: models.FrequencyDaily,
	}
	rule, err := calculator.DeriveSavingsRule(*goal, now)
	if err != nil {
		t.Fatalf("DeriveSavingsRule failed: %v", err)
	}
	if err := store.CreateGoal(context.Background(), goal, rule); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}
	return goal
}

func outcomeCount(t *testing.T, reg *prometheus.Registry, outcome string) int {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != "tripfund_autosave_contributions_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "outcome" && l.GetValue() == outcome {
					return int(m.GetCounter().GetValue())
				}
			}
		}
	}
	return 0
}

func TestRunOnce_AppliesDueRule(t *testing.T) {
	ctx := context.Background()
	store, saver, reg := setup(t)
	fundWallet(t, store, "alice", "50")
	goal := createAutoGoal(t, store, "alice")

	applied, err := saver.RunOnce(ctx, now)
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if applied != 1 {
		t.Fatalf("Expected 1 contribution, got %d", applied)
	}

	got, err := store.GetGoal(ctx, goal.ID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if !got.CurrentAmount.Equal(d("10")) {
		t.Errorf("Expected current amount 10, got %s", got.CurrentAmount)
	}

	wallet, err := store.GetWalletByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetWalletByUser failed: %v", err)
	}
	if !wallet.Balance.Equal(d("40")) {
		t.Errorf("Expected wallet balance 40, got %s", wallet.Balance)
	}

	rule, err := store.GetRuleForGoal(ctx, goal.ID)
	if err != nil {
		t.Fatalf("GetRuleForGoal failed: %v", err)
	}
	if rule.LastAppliedAt != now.Unix() {
		t.Errorf("Expected last applied %d, got %d", now.Unix(), rule.LastAppliedAt)
	}
	// 90 left over the 9 days after the one just paid
	if !rule.Amount.Equal(d("10")) {
		t.Errorf("Expected rule amount 10, got %s", rule.Amount)
	}
	if outcomeCount(t, reg, metrics.OutcomeApplied) != 1 {
		t.Errorf("Expected one applied outcome recorded")
	}
}

func TestRunOnce_SkipsRuleAlreadyAppliedToday(t *testing.T) {
	ctx := context.Background()
	store, saver, _ := setup(t)
	fundWallet(t, store, "alice", "50")
	goal := createAutoGoal(t, store, "alice")

	if _, err := saver.RunOnce(ctx, now); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	applied, err := saver.RunOnce(ctx, now.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("Expected no contribution later the same day, got %d", applied)
	}

	applied, err = saver.RunOnce(ctx, now.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if applied != 1 {
		t.Errorf("Expected a contribution the next day, got %d", applied)
	}

	got, err := store.GetGoal(ctx, goal.ID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if !got.CurrentAmount.Equal(d("20")) {
		t.Errorf("Expected current amount 20, got %s", got.CurrentAmount)
	}
}

func TestRunOnce_DailyRunsCompleteGoalByDeadline(t *testing.T) {
	ctx := context.Background()
	store, saver, _ := setup(t)
	fundWallet(t, store, "alice", "500")
	goal := createAutoGoal(t, store, "alice")

	for day := 0; day <= 10; day++ {
		if _, err := saver.RunOnce(ctx, now.AddDate(0, 0, day)); err != nil {
			t.Fatalf("day %d: RunOnce failed: %v", day, err)
		}
	}

	got, err := store.GetGoal(ctx, goal.ID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if !got.Completed || !got.CurrentAmount.Equal(d("100")) {
		t.Errorf("Expected goal completed at 100 by the deadline, got completed=%v current=%s", got.Completed, got.CurrentAmount)
	}

	wallet, err := store.GetWalletByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetWalletByUser failed: %v", err)
	}
	if !wallet.Balance.Equal(d("400")) {
		t.Errorf("Expected wallet balance 400, got %s", wallet.Balance)
	}
}

func TestRunOnce_InsufficientFundsLeavesGoalUntouched(t *testing.T) {
	ctx := context.Background()
	store, saver, reg := setup(t)
	fundWallet(t, store, "alice", "5")
	goal := createAutoGoal(t, store, "alice")

	applied, err := saver.RunOnce(ctx, now)
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("Expected no contribution, got %d", applied)
	}

	got, err := store.GetGoal(ctx, goal.ID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if !got.CurrentAmount.IsZero() {
		t.Errorf("Expected current amount 0, got %s", got.CurrentAmount)
	}

	rule, err := store.GetRuleForGoal(ctx, goal.ID)
	if err != nil {
		t.Fatalf("GetRuleForGoal failed: %v", err)
	}
	if rule.LastAppliedAt != 0 {
		t.Errorf("Expected rule to stay unapplied, got %d", rule.LastAppliedAt)
	}
	if outcomeCount(t, reg, metrics.OutcomeInsufficientFunds) != 1 {
		t.Errorf("Expected one insufficient_funds outcome recorded")
	}
}

func TestRunOnce_MissingWalletIsAnError(t *testing.T) {
	store, saver, reg := setup(t)
	createAutoGoal(t, store, "bob")

	applied, err := saver.RunOnce(context.Background(), now)
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("Expected no contribution, got %d", applied)
	}
	if outcomeCount(t, reg, metrics.OutcomeError) != 1 {
		t.Errorf("Expected one error outcome recorded")
	}
}

func TestRunOnce_RetiresExpiredRule(t *testing.T) {
	ctx := context.Background()
	store, saver, reg := setup(t)
	fundWallet(t, store, "alice", "50")
	goal := createAutoGoal(t, store, "alice")

	applied, err := saver.RunOnce(ctx, goal.Deadline.Add(time.Hour))
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if applied != 0 {
		t.Errorf("Expected no contribution, got %d", applied)
	}

	if _, err := store.GetRuleForGoal(ctx, goal.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected rule to be removed, got %v", err)
	}
	if outcomeCount(t, reg, metrics.OutcomeExpired) != 1 {
		t.Errorf("Expected one expired outcome recorded")
	}

	wallet, err := store.GetWalletByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetWalletByUser failed: %v", err)
	}
	if !wallet.Balance.Equal(d("50")) {
		t.Errorf("Expected untouched wallet, got %s", wallet.Balance)
	}
}

func TestRunOnce_FinalContributionCompletesGoal(t *testing.T) {
	ctx := context.Background()
	store, saver, _ := setup(t)
	fundWallet(t, store, "alice", "50")
	goal := createAutoGoal(t, store, "alice")

	goal.CurrentAmount = d("95")
	if err := store.UpdateGoal(ctx, goal, &models.SavingsRule{
		RuleType:  models.RuleFixed,
		Amount:    d("10"),
		Frequency: models.FrequencyDaily,
		IsActive:  true,
	}); err != nil {
		t.Fatalf("UpdateGoal failed: %v", err)
	}

	applied, err := saver.RunOnce(ctx, now)
	if err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if applied != 1 {
		t.Fatalf("Expected 1 contribution, got %d", applied)
	}

	got, err := store.GetGoal(ctx, goal.ID)
	if err != nil {
		t.Fatalf("GetGoal failed: %v", err)
	}
	if !got.Completed || !got.CurrentAmount.Equal(d("100")) {
		t.Errorf("Expected completed goal at 100, got completed=%v current=%s", got.Completed, got.CurrentAmount)
	}
	if _, err := store.GetRuleForGoal(ctx, goal.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected no rule after completion, got %v", err)
	}

	wallet, err := store.GetWalletByUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetWalletByUser failed: %v", err)
	}
	if !wallet.Balance.Equal(d("45")) {
		t.Errorf("Expected only the missing 5 debited, got balance %s", wallet.Balance)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	_, saver, _ := setup(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- saver.Run(ctx, time.Hour) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
