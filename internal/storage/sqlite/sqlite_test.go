package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tripfund/internal/calculator"
	"github.com/mmynk/tripfund/internal/models"
	"github.com/mmynk/tripfund/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "tripfund-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createTrip(t *testing.T, store *SQLiteStore, creator string) *models.Trip {
	t.Helper()
	trip := &models.Trip{
		CreatorID:       creator,
		StartPoint:      "Lisbon",
		Destination:     "Porto",
		StartDate:       time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		DurationDays:    4,
		MaxParticipants: 5,
		EstimatedCost:   d("800"),
	}
	if err := store.CreateTrip(context.Background(), trip); err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	return trip
}

func createFundedWallet(t *testing.T, store *SQLiteStore, userID, amount string) *models.Wallet {
	t.Helper()
	ctx := context.Background()
	wallet := &models.Wallet{UserID: userID, Balance: d(amount)}
	if err := store.CreateWallet(ctx, wallet); err != nil {
		t.Fatalf("CreateWallet failed: %v", err)
	}
	return wallet
}

func TestSQLiteStore_Users(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := models.NewUser("alice@example.com", "Alice", "hash")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	t.Run("GetUserByEmail", func(t *testing.T) {
		got, err := store.GetUserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail failed: %v", err)
		}
		if got.ID != user.ID || got.DisplayName != "Alice" {
			t.Errorf("unexpected user: %+v", got)
		}
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		dup := models.NewUser("alice@example.com", "Other", "hash")
		if err := store.CreateUser(ctx, dup); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		if _, err := store.GetUserByID(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSQLiteStore_Trips(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	trip := createTrip(t, store, "alice")

	t.Run("creator is accepted", func(t *testing.T) {
		got, err := store.GetTrip(ctx, trip.ID)
		if err != nil {
			t.Fatalf("GetTrip failed: %v", err)
		}
		if !got.IsAccepted("alice") {
			t.Errorf("expected creator to be accepted, participants: %+v", got.Participants)
		}
		if !got.StartDate.Equal(trip.StartDate) {
			t.Errorf("StartDate mismatch: got %v, want %v", got.StartDate, trip.StartDate)
		}
		if !got.EstimatedCost.Equal(d("800")) {
			t.Errorf("EstimatedCost mismatch: got %s", got.EstimatedCost)
		}
	})

	t.Run("join then accept", func(t *testing.T) {
		if err := store.AddTripParticipant(ctx, trip.ID, "bob"); err != nil {
			t.Fatalf("AddTripParticipant failed: %v", err)
		}
		if err := store.AddTripParticipant(ctx, trip.ID, "bob"); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("expected ErrConflict on second join, got %v", err)
		}
		if err := store.SetParticipantStatus(ctx, trip.ID, "bob", models.ParticipantAccepted); err != nil {
			t.Fatalf("SetParticipantStatus failed: %v", err)
		}

		got, _ := store.GetTrip(ctx, trip.ID)
		if ids := got.AcceptedParticipants(); len(ids) != 2 {
			t.Errorf("expected 2 accepted participants, got %v", ids)
		}
	})

	t.Run("unknown participant", func(t *testing.T) {
		err := store.SetParticipantStatus(ctx, trip.ID, "zed", models.ParticipantAccepted)
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("GetTrip returns error for nonexistent trip", func(t *testing.T) {
		if _, err := store.GetTrip(ctx, "nonexistent-id"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSQLiteStore_Expenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	trip := createTrip(t, store, "alice")

	expense := &models.Expense{
		TripID:      trip.ID,
		Description: "Dinner",
		Amount:      d("90"),
		PaidBy:      "alice",
		SplitType:   models.SplitEqual,
	}
	requests := []*models.PaymentRequest{
		{UserID: "bob", Amount: d("30")},
		{UserID: "carol", Amount: d("30")},
	}
	if err := store.CreateExpense(ctx, expense, requests); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	t.Run("requests are linked to the expense", func(t *testing.T) {
		for _, r := range requests {
			if r.ID == "" || r.ExpenseID != expense.ID || r.PayeeID != "alice" || r.Status != models.RequestPending {
				t.Errorf("request not populated: %+v", r)
			}
		}
	})

	t.Run("ledger snapshot", func(t *testing.T) {
		expenses, reqs, err := store.TripLedger(ctx, trip.ID)
		if err != nil {
			t.Fatalf("TripLedger failed: %v", err)
		}
		if len(expenses) != 1 || len(reqs) != 2 {
			t.Fatalf("expected 1 expense and 2 requests, got %d and %d", len(expenses), len(reqs))
		}
		if !expenses[0].Amount.Equal(d("90")) {
			t.Errorf("expense amount mismatch: %s", expenses[0].Amount)
		}

		bal := calculator.ComputeBalance("alice", trip.ID, expenses, reqs)
		if !bal.Balance.Equal(d("90")) {
			t.Errorf("alice balance: got %s, want 90", bal.Balance)
		}
	})

	t.Run("failed insert leaves nothing behind", func(t *testing.T) {
		bad := &models.Expense{TripID: "missing-trip", Description: "x", Amount: d("10"), PaidBy: "alice", SplitType: models.SplitEqual}
		if err := store.CreateExpense(ctx, bad, []*models.PaymentRequest{{UserID: "bob", Amount: d("5")}}); err == nil {
			t.Fatal("expected foreign key failure")
		}
		expenses, _ := store.ListExpensesByTrip(ctx, trip.ID)
		if len(expenses) != 1 {
			t.Errorf("expected 1 expense, got %d", len(expenses))
		}
	})

	t.Run("decline only once", func(t *testing.T) {
		id := requests[1].ID
		if err := store.UpdatePaymentRequestStatus(ctx, id, models.RequestDeclined); err != nil {
			t.Fatalf("UpdatePaymentRequestStatus failed: %v", err)
		}
		if err := store.UpdatePaymentRequestStatus(ctx, id, models.RequestPaid); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})
}

func TestSQLiteStore_PayPaymentRequest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	trip := createTrip(t, store, "alice")

	alice := createFundedWallet(t, store, "alice", "0")
	bob := createFundedWallet(t, store, "bob", "20")

	requests := []*models.PaymentRequest{{UserID: "bob", Amount: d("30")}}
	expense := &models.Expense{TripID: trip.ID, Description: "Fuel", Amount: d("60"), PaidBy: "alice", SplitType: models.SplitEqual}
	if err := store.CreateExpense(ctx, expense, requests); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	t.Run("insufficient funds changes nothing", func(t *testing.T) {
		err := store.PayPaymentRequest(ctx, requests[0].ID)
		if !errors.Is(err, calculator.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}
		w, _ := store.GetWalletByUser(ctx, "bob")
		if !w.Balance.Equal(d("20")) {
			t.Errorf("bob balance changed: %s", w.Balance)
		}
		req, _ := store.GetPaymentRequest(ctx, requests[0].ID)
		if req.Status != models.RequestPending {
			t.Errorf("request status changed: %s", req.Status)
		}
	})

	t.Run("pays from wallet", func(t *testing.T) {
		if err := store.Transfer(ctx, "alice", "bob", d("1")); !errors.Is(err, calculator.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds for empty wallet, got %v", err)
		}
		if _, err := store.CreateDeposit(ctx, bob.ID, d("15"), "pi_bob"); err != nil {
			t.Fatalf("CreateDeposit failed: %v", err)
		}
		if _, err := store.ConfirmDeposit(ctx, "pi_bob"); err != nil {
			t.Fatalf("ConfirmDeposit failed: %v", err)
		}

		if err := store.PayPaymentRequest(ctx, requests[0].ID); err != nil {
			t.Fatalf("PayPaymentRequest failed: %v", err)
		}

		a, _ := store.GetWalletByUser(ctx, "alice")
		b, _ := store.GetWalletByUser(ctx, "bob")
		if !a.Balance.Equal(d("30")) || !b.Balance.Equal(d("5")) {
			t.Errorf("balances: alice %s (want 30), bob %s (want 5)", a.Balance, b.Balance)
		}

		txs, _ := store.ListWalletTransactions(ctx, alice.ID)
		if len(txs) != 1 || txs[0].Type != models.TxPayment || !txs[0].Amount.Equal(d("30")) {
			t.Errorf("unexpected alice history: %+v", txs)
		}

		if err := store.PayPaymentRequest(ctx, requests[0].ID); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("expected ErrConflict paying twice, got %v", err)
		}
	})
}

func TestSQLiteStore_Deposits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	wallet := createFundedWallet(t, store, "alice", "0")

	if wallet.CardNumber == "" {
		t.Fatal("card number not generated")
	}

	if _, err := store.CreateDeposit(ctx, wallet.ID, d("1250.75"), "pi_1"); err != nil {
		t.Fatalf("CreateDeposit failed: %v", err)
	}

	t.Run("pending deposit does not credit", func(t *testing.T) {
		w, _ := store.GetWalletByUser(ctx, "alice")
		if !w.Balance.IsZero() {
			t.Errorf("balance credited before confirmation: %s", w.Balance)
		}
	})

	t.Run("confirm credits and rewards", func(t *testing.T) {
		if _, err := store.ConfirmDeposit(ctx, "pi_1"); err != nil {
			t.Fatalf("ConfirmDeposit failed: %v", err)
		}
		w, _ := store.GetWalletByUser(ctx, "alice")
		if !w.Balance.Equal(d("1250.75")) {
			t.Errorf("balance: got %s, want 1250.75", w.Balance)
		}
		r, err := store.GetRewards(ctx, wallet.ID)
		if err != nil {
			t.Fatalf("GetRewards failed: %v", err)
		}
		if !r.Points.Equal(d("1250")) || r.Level != models.LevelSilver {
			t.Errorf("rewards: got %s %s, want 1250 silver", r.Points, r.Level)
		}
	})

	t.Run("confirm is not repeated", func(t *testing.T) {
		if _, err := store.ConfirmDeposit(ctx, "pi_1"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("failed deposit", func(t *testing.T) {
		if _, err := store.CreateDeposit(ctx, wallet.ID, d("10"), "pi_2"); err != nil {
			t.Fatalf("CreateDeposit failed: %v", err)
		}
		if err := store.FailDeposit(ctx, "pi_2"); err != nil {
			t.Fatalf("FailDeposit failed: %v", err)
		}
		w, _ := store.GetWalletByUser(ctx, "alice")
		if !w.Balance.Equal(d("1250.75")) {
			t.Errorf("failed deposit changed balance: %s", w.Balance)
		}
	})

	t.Run("one wallet per user", func(t *testing.T) {
		err := store.CreateWallet(ctx, &models.Wallet{UserID: "alice"})
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})
}

func TestSQLiteStore_Savings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	goal := &models.SavingsGoal{
		UserID:            "alice",
		Name:              "Japan",
		TargetAmount:      d("1000"),
		CurrentAmount:     d("0"),
		Deadline:          now.AddDate(0, 0, 100),
		AutoSave:          true,
		AutoSaveFrequency: models.FrequencyWeekly,
	}
	rule, err := calculator.DeriveSavingsRule(*goal, now)
	if err != nil {
		t.Fatalf("DeriveSavingsRule failed: %v", err)
	}
	if err := store.CreateGoal(ctx, goal, rule); err != nil {
		t.Fatalf("CreateGoal failed: %v", err)
	}

	t.Run("rule is attached", func(t *testing.T) {
		got, err := store.GetRuleForGoal(ctx, goal.ID)
		if err != nil {
			t.Fatalf("GetRuleForGoal failed: %v", err)
		}
		if got.GoalID != goal.ID || !got.Amount.Equal(d("70")) || !got.IsActive {
			t.Errorf("unexpected rule: %+v", got)
		}
	})

	t.Run("update replaces the rule", func(t *testing.T) {
		goal.AutoSaveFrequency = models.FrequencyDaily
		newRule, err := calculator.DeriveSavingsRule(*goal, now)
		if err != nil {
			t.Fatalf("DeriveSavingsRule failed: %v", err)
		}
		if err := store.UpdateGoal(ctx, goal, newRule); err != nil {
			t.Fatalf("UpdateGoal failed: %v", err)
		}
		rules, _ := store.ListActiveRules(ctx)
		if len(rules) != 1 || rules[0].Frequency != models.FrequencyDaily || !rules[0].Amount.Equal(d("10")) {
			t.Errorf("expected one daily rule of 10, got %+v", rules)
		}
	})

	t.Run("contribution from wallet", func(t *testing.T) {
		createFundedWallet(t, store, "alice", "100")
		plan, err := calculator.PlanContribution(*goal, d("40"), now)
		if err != nil {
			t.Fatalf("PlanContribution failed: %v", err)
		}
		err = store.ApplyContribution(ctx, storage.GoalContribution{
			Goal:        &plan.Goal,
			Amount:      plan.Applied,
			FromWallet:  true,
			ReplaceRule: true,
			Rule:        plan.Rule,
		})
		if err != nil {
			t.Fatalf("ApplyContribution failed: %v", err)
		}

		got, _ := store.GetGoal(ctx, goal.ID)
		if !got.CurrentAmount.Equal(d("40")) {
			t.Errorf("current amount: got %s, want 40", got.CurrentAmount)
		}
		w, _ := store.GetWalletByUser(ctx, "alice")
		if !w.Balance.Equal(d("60")) {
			t.Errorf("wallet balance: got %s, want 60", w.Balance)
		}
	})

	t.Run("contribution beyond balance is rolled back", func(t *testing.T) {
		before, _ := store.GetGoal(ctx, goal.ID)
		plan, err := calculator.PlanContribution(*before, d("500"), now)
		if err != nil {
			t.Fatalf("PlanContribution failed: %v", err)
		}
		err = store.ApplyContribution(ctx, storage.GoalContribution{Goal: &plan.Goal, Amount: plan.Applied, FromWallet: true})
		if !errors.Is(err, calculator.ErrInsufficientFunds) {
			t.Fatalf("expected ErrInsufficientFunds, got %v", err)
		}
		after, _ := store.GetGoal(ctx, goal.ID)
		if !after.CurrentAmount.Equal(before.CurrentAmount) {
			t.Errorf("goal changed despite failure: %s", after.CurrentAmount)
		}
	})

	t.Run("list by user", func(t *testing.T) {
		goals, err := store.ListGoalsByUser(ctx, "alice")
		if err != nil {
			t.Fatalf("ListGoalsByUser failed: %v", err)
		}
		if len(goals) != 1 || !goals[0].Deadline.Equal(goal.Deadline) {
			t.Errorf("unexpected goals: %+v", goals)
		}
	})
}

func TestSQLiteStore_Budgets(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	month := calculator.MonthKey(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))

	food := &models.BudgetCategory{UserID: "alice", Name: "food", MonthlyBudget: d("300"), Month: month}
	if err := store.UpsertBudgetCategory(ctx, food); err != nil {
		t.Fatalf("UpsertBudgetCategory failed: %v", err)
	}
	if _, err := store.AddBudgetSpend(ctx, food.ID, d("150")); err != nil {
		t.Fatalf("AddBudgetSpend failed: %v", err)
	}

	t.Run("upsert keeps spending", func(t *testing.T) {
		again := &models.BudgetCategory{UserID: "alice", Name: "food", MonthlyBudget: d("400"), Month: month}
		if err := store.UpsertBudgetCategory(ctx, again); err != nil {
			t.Fatalf("UpsertBudgetCategory failed: %v", err)
		}
		if again.ID != food.ID {
			t.Errorf("expected same category, got %s vs %s", again.ID, food.ID)
		}
		if !again.MonthlyBudget.Equal(d("400")) || !again.CurrentSpent.Equal(d("150")) {
			t.Errorf("unexpected category: %+v", again)
		}
	})

	t.Run("months are separate", func(t *testing.T) {
		next := month.AddDate(0, 1, 0)
		cats, _ := store.ListBudgetCategories(ctx, "alice", next)
		if len(cats) != 0 {
			t.Errorf("expected no categories next month, got %d", len(cats))
		}
		cats, _ = store.ListBudgetCategories(ctx, "alice", month)
		if len(cats) != 1 {
			t.Errorf("expected 1 category this month, got %d", len(cats))
		}
	})
}

func TestSQLiteStore_Payments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := &models.Payment{TripID: "t1", UserID: "alice", Amount: d("25"), PaymentMethod: "card", ProcessorID: "pi_9"}
	if err := store.CreatePayment(ctx, p); err != nil {
		t.Fatalf("CreatePayment failed: %v", err)
	}
	if err := store.SetPaymentStatus(ctx, "pi_9", models.PaymentCompleted); err != nil {
		t.Fatalf("SetPaymentStatus failed: %v", err)
	}
	got, err := store.GetPaymentByProcessorID(ctx, "pi_9")
	if err != nil {
		t.Fatalf("GetPaymentByProcessorID failed: %v", err)
	}
	if got.Status != models.PaymentCompleted {
		t.Errorf("status: got %s, want completed", got.Status)
	}
	if err := store.SetPaymentStatus(ctx, "pi_9", models.PaymentFailed); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for settled payment, got %v", err)
	}
}

func TestSQLiteStore_Ping(t *testing.T) {
	store := newTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	store.Close()
	if err := store.Ping(context.Background()); err == nil {
		t.Error("Expected Ping to fail on a closed store")
	}
}
