package models

import "github.com/shopspring/decimal"

// Wallet statuses.
const (
	WalletActive = "active"
	WalletFrozen = "frozen"
	WalletClosed = "closed"
)

// Wallet transaction types.
const (
	TxDeposit  = "deposit"
	TxTransfer = "transfer"
	TxPayment  = "payment"
	TxSavings  = "savings"
)

// Reward levels.
const (
	LevelBronze = "bronze"
	LevelSilver = "silver"
	LevelGold   = "gold"
)

// Wallet is a user's virtual card. Each user has at most one.
type Wallet struct {
	ID     string
	UserID string

	// Balance never goes below zero.
	Balance decimal.Decimal

	// CardNumber is the virtual card number, e.g. "4242-TRIP-1A2B3C4D".
	CardNumber string

	Status    string
	CreatedAt int64
}

// WalletTransaction is one entry in a wallet's history.
type WalletTransaction struct {
	ID       string
	WalletID string

	// Amount is signed: credits are positive, debits negative.
	Amount decimal.Decimal

	Type        string
	Description string

	// Status is one of PaymentPending, PaymentCompleted, PaymentFailed.
	Status string

	// ProcessorID links deposits to the processor's payment intent.
	ProcessorID string

	CreatedAt int64
}

// WalletRewards tracks loyalty points earned on a wallet.
type WalletRewards struct {
	WalletID    string
	Points      decimal.Decimal
	Level       string
	LastUpdated int64
}
