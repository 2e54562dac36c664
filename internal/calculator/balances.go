package calculator

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mmynk/tripfund/internal/models"
)

// BalanceSummary is one user's position on a trip.
type BalanceSummary struct {
	Paid    decimal.Decimal // Sum of expenses the user paid
	Owed    decimal.Decimal // Sum of the user's pending payment requests
	Balance decimal.Decimal // Paid - Owed
}

// ComputeBalance aggregates what userID paid versus what they still owe on tripID.
// Expenses and requests from other trips or users are ignored, so callers may
// pass unfiltered slices. A user with no activity gets a zero summary.
func ComputeBalance(userID, tripID string, expenses []models.Expense, requests []models.PaymentRequest) BalanceSummary {
	paid := decimal.Zero
	for _, e := range expenses {
		if e.TripID == tripID && e.PaidBy == userID {
			paid = paid.Add(e.Amount)
		}
	}

	owed := decimal.Zero
	for _, r := range requests {
		if r.TripID == tripID && r.UserID == userID && r.Status == models.RequestPending {
			owed = owed.Add(r.Amount)
		}
	}

	return BalanceSummary{
		Paid:    paid,
		Owed:    owed,
		Balance: paid.Sub(owed),
	}
}

// MemberBalance represents the outstanding position of one trip member.
type MemberBalance struct {
	UserID     string
	Receivable decimal.Decimal // Pending requests other members owe this member
	Payable    decimal.Decimal // Pending requests this member owes
	NetBalance decimal.Decimal // Positive = owed money, Negative = owes money
}

// DebtEdge represents a transfer that clears part of the outstanding debt.
type DebtEdge struct {
	From   string // Member who owes
	To     string // Member who is owed
	Amount decimal.Decimal
}

// SettleTrip nets the pending payment requests of tripID per member and
// returns the member balances plus a reduced set of transfers that clears them.
//
// Algorithm:
//   - For each pending request: ower's payable += amount, payee's receivable += amount
//   - net_balance = receivable - payable
//   - Greedy matching: largest debtor pays largest creditor until one side is cleared
func SettleTrip(tripID string, requests []models.PaymentRequest) ([]MemberBalance, []DebtEdge) {
	balances := make(map[string]*MemberBalance)
	get := func(id string) *MemberBalance {
		if _, exists := balances[id]; !exists {
			balances[id] = &MemberBalance{
				UserID:     id,
				Receivable: decimal.Zero,
				Payable:    decimal.Zero,
				NetBalance: decimal.Zero,
			}
		}
		return balances[id]
	}

	for _, r := range requests {
		if r.TripID != tripID || r.Status != models.RequestPending {
			continue
		}
		get(r.UserID).Payable = get(r.UserID).Payable.Add(r.Amount)
		get(r.PayeeID).Receivable = get(r.PayeeID).Receivable.Add(r.Amount)
	}

	memberBalances := make([]MemberBalance, 0, len(balances))
	for _, bal := range balances {
		bal.NetBalance = bal.Receivable.Sub(bal.Payable)
		memberBalances = append(memberBalances, *bal)
	}
	sort.Slice(memberBalances, func(i, j int) bool {
		return memberBalances[i].UserID < memberBalances[j].UserID
	})

	// Split members into creditors (owed money) and debtors (owe money)
	var creditors, debtors []MemberBalance
	for _, bal := range memberBalances {
		if bal.NetBalance.IsPositive() {
			creditors = append(creditors, bal)
		} else if bal.NetBalance.IsNegative() {
			debtors = append(debtors, bal)
		}
	}
	byMagnitude := func(list []MemberBalance) {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].NetBalance.Abs().GreaterThan(list[j].NetBalance.Abs())
		})
	}
	byMagnitude(creditors)
	byMagnitude(debtors)

	debtorLeft := make([]decimal.Decimal, len(debtors))
	for i, d := range debtors {
		debtorLeft[i] = d.NetBalance.Neg()
	}
	creditorLeft := make([]decimal.Decimal, len(creditors))
	for j, c := range creditors {
		creditorLeft[j] = c.NetBalance
	}

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtorLeft[i], creditorLeft[j])
		if amount.IsPositive() {
			edges = append(edges, DebtEdge{
				From:   debtors[i].UserID,
				To:     creditors[j].UserID,
				Amount: amount,
			})
		}

		debtorLeft[i] = debtorLeft[i].Sub(amount)
		creditorLeft[j] = creditorLeft[j].Sub(amount)

		// Decimal arithmetic is exact, so a settled side is exactly zero
		if !debtorLeft[i].IsPositive() {
			i++
		}
		if !creditorLeft[j].IsPositive() {
			j++
		}
	}

	return memberBalances, edges
}
