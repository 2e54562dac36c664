package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSplitExpense(t *testing.T) {
	tests := []struct {
		name         string
		amount       decimal.Decimal
		payer        string
		participants []string
		wantErr      error
		validateFunc func(t *testing.T, res SplitResult)
	}{
		{
			name:         "90 among payer and two others",
			amount:       d("90.00"),
			payer:        "alice",
			participants: []string{"alice", "bob", "carol"},
			validateFunc: func(t *testing.T, res SplitResult) {
				if len(res.Obligations) != 2 {
					t.Fatalf("obligations = %d, want 2", len(res.Obligations))
				}
				for _, o := range res.Obligations {
					if !o.Amount.Equal(d("30")) {
						t.Errorf("%s owes %s, want 30.00", o.UserID, o.Amount)
					}
				}
				if res.Obligations[0].UserID != "bob" || res.Obligations[1].UserID != "carol" {
					t.Errorf("obligations out of input order: %+v", res.Obligations)
				}
				if !res.PayerShare.Equal(d("30")) {
					t.Errorf("payer share = %s, want 30.00", res.PayerShare)
				}
			},
		},
		{
			name:         "payer only emits nothing",
			amount:       d("42.50"),
			payer:        "alice",
			participants: []string{"alice"},
			validateFunc: func(t *testing.T, res SplitResult) {
				if len(res.Obligations) != 0 {
					t.Errorf("obligations = %d, want 0", len(res.Obligations))
				}
				if !res.PayerShare.Equal(d("42.50")) {
					t.Errorf("payer share = %s, want 42.50", res.PayerShare)
				}
			},
		},
		{
			name:         "payer absorbs remainder cents",
			amount:       d("100"),
			payer:        "carol",
			participants: []string{"alice", "bob", "carol"},
			validateFunc: func(t *testing.T, res SplitResult) {
				for _, o := range res.Obligations {
					if !o.Amount.Equal(d("33.33")) {
						t.Errorf("%s owes %s, want 33.33", o.UserID, o.Amount)
					}
				}
				if !res.PayerShare.Equal(d("33.34")) {
					t.Errorf("payer share = %s, want 33.34", res.PayerShare)
				}
			},
		},
		{
			name:         "empty participants",
			amount:       d("10"),
			payer:        "alice",
			participants: []string{},
			wantErr:      ErrInvalidSplitInput,
		},
		{
			name:         "zero amount",
			amount:       decimal.Zero,
			payer:        "alice",
			participants: []string{"alice", "bob"},
			wantErr:      ErrInvalidSplitInput,
		},
		{
			name:         "negative amount",
			amount:       d("-5"),
			payer:        "alice",
			participants: []string{"alice", "bob"},
			wantErr:      ErrInvalidSplitInput,
		},
		{
			name:         "payer not a participant",
			amount:       d("10"),
			payer:        "mallory",
			participants: []string{"alice", "bob"},
			wantErr:      ErrInvalidSplitInput,
		},
		{
			name:         "amount below one cent per participant",
			amount:       d("0.02"),
			payer:        "alice",
			participants: []string{"alice", "bob", "carol"},
			wantErr:      ErrInvalidSplitInput,
		},
		{
			name:         "one cent each is enough",
			amount:       d("0.03"),
			payer:        "alice",
			participants: []string{"alice", "bob", "carol"},
			validateFunc: func(t *testing.T, res SplitResult) {
				for _, o := range res.Obligations {
					if !o.Amount.Equal(d("0.01")) {
						t.Errorf("%s owes %s, want 0.01", o.UserID, o.Amount)
					}
				}
			},
		},
		{
			name:         "duplicate participant",
			amount:       d("10"),
			payer:        "alice",
			participants: []string{"alice", "bob", "bob"},
			wantErr:      ErrInvalidSplitInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := SplitExpense(tt.amount, tt.payer, tt.participants)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SplitExpense() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitExpense() unexpected error: %v", err)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, res)
			}
		})
	}
}

func TestSplitExpense_SharesSumToAmount(t *testing.T) {
	amounts := []string{"0.01", "0.10", "1", "10", "99.99", "100", "1234.56", "7777.77"}
	for _, a := range amounts {
		for n := 1; n <= 9; n++ {
			participants := make([]string, n)
			for i := range participants {
				participants[i] = string(rune('a' + i))
			}
			payer := participants[n/2]

			res, err := SplitExpense(d(a), payer, participants)
			if n > 1 && d(a).Shift(2).IntPart() < int64(n) {
				if !errors.Is(err, ErrInvalidSplitInput) {
					t.Errorf("SplitExpense(%s, n=%d) error = %v, want ErrInvalidSplitInput", a, n, err)
				}
				continue
			}
			if err != nil {
				t.Fatalf("SplitExpense(%s, n=%d) error: %v", a, n, err)
			}
			if len(res.Obligations) != n-1 {
				t.Errorf("SplitExpense(%s, n=%d) obligations = %d, want %d", a, n, len(res.Obligations), n-1)
			}
			if got := res.Total().Add(res.PayerShare); !got.Equal(d(a)) {
				t.Errorf("SplitExpense(%s, n=%d) obligations + payer share = %s", a, n, got)
			}
			for _, o := range res.Obligations {
				if !o.Amount.IsPositive() {
					t.Errorf("SplitExpense(%s, n=%d) zero obligation for %s", a, n, o.UserID)
				}
			}
			if res.PayerShare.IsNegative() {
				t.Errorf("SplitExpense(%s, n=%d) negative payer share %s", a, n, res.PayerShare)
			}
		}
	}
}
