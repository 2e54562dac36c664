// Package models defines the core domain models for TripFund.
//
// # Ledger models
//
// Trips group people travelling together. Money moves through:
//   - Expense: something one participant paid for on behalf of the trip
//   - PaymentRequest: what each other participant owes for an expense
//   - Wallet / WalletTransaction: the user's virtual card balance
//   - Payment: a trip payment made through the payment processor
//
// # Planning models
//
//   - SavingsGoal / SavingsRule: a target amount and the derived recurring contribution
//   - BudgetCategory: a per-user, per-month spending ceiling
//
// # Design Principles
//
// 1. **Decimal money**: every amount is a decimal.Decimal in major units, kept to cents
// 2. **Avoid circular references**: use ID strings instead of pointers for relationships
// 3. **Derived rows are never edited by hand**: payment requests and savings rules are
// produced by the calculator package and only their status changes afterwards
package models
