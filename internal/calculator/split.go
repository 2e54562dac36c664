// Package calculator holds the pure money computations: expense splitting,
// trip balances, savings schedules and budget analysis. Functions here take
// plain data and never touch storage.
package calculator

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// centPlaces is the number of decimal places kept for currency amounts.
const centPlaces = 2

// Obligation is what one participant owes the payer for an expense.
type Obligation struct {
	UserID string
	Amount decimal.Decimal
}

// SplitResult is the outcome of splitting an expense.
type SplitResult struct {
	// Obligations has one entry per participant other than the payer, in input order.
	Obligations []Obligation

	// PayerShare is the part of the expense the payer keeps for themselves.
	// It absorbs any remainder cents so that the sum of obligations plus
	// PayerShare always equals the expense amount.
	PayerShare decimal.Decimal
}

// SplitExpense divides amount equally among participantIDs.
// participantIDs must contain payerID exactly once and no duplicates.
//
// Algorithm:
//   - share = amount / n, truncated to cents
//   - every non-payer owes share
//   - payer keeps amount - share*(n-1)
//
// An amount too small to give every participant at least one cent is
// rejected, since it would issue zero-value obligations.
func SplitExpense(amount decimal.Decimal, payerID string, participantIDs []string) (SplitResult, error) {
	if len(participantIDs) == 0 {
		return SplitResult{}, fmt.Errorf("%w: must have at least one participant", ErrInvalidSplitInput)
	}
	amount = amount.Round(centPlaces)
	if !amount.IsPositive() {
		return SplitResult{}, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidSplitInput, amount)
	}

	seen := make(map[string]bool, len(participantIDs))
	for _, p := range participantIDs {
		if strings.TrimSpace(p) == "" {
			return SplitResult{}, fmt.Errorf("%w: blank participant id", ErrInvalidSplitInput)
		}
		if seen[p] {
			return SplitResult{}, fmt.Errorf("%w: participant %q listed twice", ErrInvalidSplitInput, p)
		}
		seen[p] = true
	}
	if !seen[payerID] {
		return SplitResult{}, fmt.Errorf("%w: payer %q must be one of the participants", ErrInvalidSplitInput, payerID)
	}

	n := int64(len(participantIDs))
	share := amount.Div(decimal.NewFromInt(n)).Truncate(centPlaces)
	if n > 1 && share.IsZero() {
		return SplitResult{}, fmt.Errorf("%w: %s cannot be split among %d participants", ErrInvalidSplitInput, amount, n)
	}

	obligations := make([]Obligation, 0, n-1)
	for _, p := range participantIDs {
		if p == payerID {
			continue
		}
		obligations = append(obligations, Obligation{UserID: p, Amount: share})
	}

	return SplitResult{
		Obligations: obligations,
		PayerShare:  amount.Sub(share.Mul(decimal.NewFromInt(n - 1))),
	}, nil
}

// Total returns the sum of all obligations.
func (r SplitResult) Total() decimal.Decimal {
	total := decimal.Zero
	for _, o := range r.Obligations {
		total = total.Add(o.Amount)
	}
	return total
}
