// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tripfund/internal/models"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write clashes with existing state
	// (duplicate key, request no longer pending, etc.).
	ErrConflict = errors.New("conflict")
)

// GoalContribution describes money added to a savings goal.
type GoalContribution struct {
	// Goal is the goal state after the contribution (CurrentAmount, Completed).
	Goal *models.SavingsGoal

	// Amount is the amount moved into the goal.
	Amount decimal.Decimal

	// FromWallet debits Amount from the goal owner's wallet.
	FromWallet bool

	// ReplaceRule swaps the goal's savings rule for Rule (nil removes it).
	ReplaceRule bool
	Rule        *models.SavingsRule
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// TripStore persists trips and their participants.
type TripStore interface {
	// CreateTrip persists a new trip with its creator as an accepted participant.
	// The trip.ID field will be populated by the store.
	CreateTrip(ctx context.Context, trip *models.Trip) error

	// GetTrip retrieves a trip with all participants.
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)

	// AddTripParticipant records a pending join request.
	AddTripParticipant(ctx context.Context, tripID, userID string) error

	// SetParticipantStatus changes a participant's status.
	SetParticipantStatus(ctx context.Context, tripID, userID, status string) error
}

// ExpenseStore persists expenses and the payment requests derived from them.
type ExpenseStore interface {
	// CreateExpense persists an expense and its payment requests atomically.
	// IDs are generated, and each request is linked to the expense.
	CreateExpense(ctx context.Context, expense *models.Expense, requests []*models.PaymentRequest) error

	ListExpensesByTrip(ctx context.Context, tripID string) ([]*models.Expense, error)
	ListPaymentRequestsByTrip(ctx context.Context, tripID string) ([]*models.PaymentRequest, error)
	GetPaymentRequest(ctx context.Context, requestID string) (*models.PaymentRequest, error)

	// UpdatePaymentRequestStatus moves a pending request to status.
	// Returns ErrConflict if the request is no longer pending.
	UpdatePaymentRequestStatus(ctx context.Context, requestID, status string) error

	// PayPaymentRequest transfers the request amount from the ower's wallet
	// to the payee's wallet and marks the request paid, atomically.
	PayPaymentRequest(ctx context.Context, requestID string) error

	// TripLedger reads every expense and payment request of a trip from one
	// consistent snapshot.
	TripLedger(ctx context.Context, tripID string) ([]models.Expense, []models.PaymentRequest, error)
}

// SavingsStore persists savings goals and their rules.
// A goal has at most one rule; every write that touches a rule replaces it.
type SavingsStore interface {
	// CreateGoal persists a goal and, when rule is non-nil, its savings rule.
	CreateGoal(ctx context.Context, goal *models.SavingsGoal, rule *models.SavingsRule) error
	GetGoal(ctx context.Context, goalID string) (*models.SavingsGoal, error)
	ListGoalsByUser(ctx context.Context, userID string) ([]*models.SavingsGoal, error)

	// UpdateGoal saves the goal and replaces its rule with rule (nil removes it).
	UpdateGoal(ctx context.Context, goal *models.SavingsGoal, rule *models.SavingsRule) error

	GetRuleForGoal(ctx context.Context, goalID string) (*models.SavingsRule, error)
	ListActiveRules(ctx context.Context) ([]*models.SavingsRule, error)

	// ApplyContribution records money added to a goal atomically.
	ApplyContribution(ctx context.Context, c GoalContribution) error
}

// BudgetStore persists monthly budget categories.
type BudgetStore interface {
	// UpsertBudgetCategory creates the category for (user, name, month) or
	// updates its monthly budget. ID and CurrentSpent are populated.
	UpsertBudgetCategory(ctx context.Context, category *models.BudgetCategory) error
	GetBudgetCategory(ctx context.Context, categoryID string) (*models.BudgetCategory, error)
	ListBudgetCategories(ctx context.Context, userID string, month time.Time) ([]*models.BudgetCategory, error)
	AddBudgetSpend(ctx context.Context, categoryID string, amount decimal.Decimal) (*models.BudgetCategory, error)
}

// WalletStore persists virtual wallets, their history and rewards.
type WalletStore interface {
	// CreateWallet persists a new wallet with an empty rewards record.
	// Returns ErrConflict if the user already has a wallet.
	CreateWallet(ctx context.Context, wallet *models.Wallet) error
	GetWalletByUser(ctx context.Context, userID string) (*models.Wallet, error)

	// CreateDeposit records a pending deposit awaiting processor confirmation.
	CreateDeposit(ctx context.Context, walletID string, amount decimal.Decimal, processorID string) (*models.WalletTransaction, error)

	// ConfirmDeposit credits a pending deposit and awards reward points.
	ConfirmDeposit(ctx context.Context, processorID string) (*models.WalletTransaction, error)

	// FailDeposit marks a pending deposit failed without touching the balance.
	FailDeposit(ctx context.Context, processorID string) error

	// Transfer moves amount between two users' wallets. Funds are checked
	// before either balance changes.
	Transfer(ctx context.Context, fromUserID, toUserID string, amount decimal.Decimal) error

	ListWalletTransactions(ctx context.Context, walletID string) ([]*models.WalletTransaction, error)
	GetRewards(ctx context.Context, walletID string) (*models.WalletRewards, error)
}

// PaymentStore persists trip payments made through the processor.
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPaymentByProcessorID(ctx context.Context, processorID string) (*models.Payment, error)
	SetPaymentStatus(ctx context.Context, processorID, status string) error
}

// Store defines the full storage interface used by the services.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	TripStore
	ExpenseStore
	SavingsStore
	BudgetStore
	WalletStore
	PaymentStore

	// Close releases any resources held by the store.
	Close() error
}
