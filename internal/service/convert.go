package service

import (
	"time"

	"github.com/mmynk/tripfund/internal/calculator"
	"github.com/mmynk/tripfund/internal/models"
	"github.com/mmynk/tripfund/pkg/api"
)

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   unixTime(u.CreatedAt),
	}
}

func toAPITrip(t *models.Trip) *api.Trip {
	participants := make([]*api.Participant, 0, len(t.Participants))
	for _, p := range t.Participants {
		participants = append(participants, &api.Participant{
			UserID:   p.UserID,
			Status:   p.Status,
			JoinedAt: unixTime(p.JoinedAt),
		})
	}
	return &api.Trip{
		ID:              t.ID,
		CreatorID:       t.CreatorID,
		StartPoint:      t.StartPoint,
		Destination:     t.Destination,
		StartDate:       t.StartDate,
		DurationDays:    t.DurationDays,
		MaxParticipants: t.MaxParticipants,
		EstimatedCost:   t.EstimatedCost,
		Requirements:    t.Requirements,
		Participants:    participants,
		CreatedAt:       unixTime(t.CreatedAt),
	}
}

func toAPIExpense(e *models.Expense) *api.Expense {
	return &api.Expense{
		ID:          e.ID,
		TripID:      e.TripID,
		Description: e.Description,
		Amount:      e.Amount,
		PaidBy:      e.PaidBy,
		SplitType:   e.SplitType,
		CreatedAt:   unixTime(e.CreatedAt),
	}
}

func toAPIRequest(r *models.PaymentRequest) *api.PaymentRequest {
	return &api.PaymentRequest{
		ID:        r.ID,
		ExpenseID: r.ExpenseID,
		TripID:    r.TripID,
		UserID:    r.UserID,
		PayeeID:   r.PayeeID,
		Amount:    r.Amount,
		Status:    r.Status,
		CreatedAt: unixTime(r.CreatedAt),
		UpdatedAt: unixTime(r.UpdatedAt),
	}
}

func toAPIGoal(g *models.SavingsGoal, rule *models.SavingsRule, now time.Time) *api.SavingsGoal {
	progress := calculator.GoalProgress(*g, now)
	out := &api.SavingsGoal{
		ID:                 g.ID,
		UserID:             g.UserID,
		Name:               g.Name,
		TargetAmount:       g.TargetAmount,
		CurrentAmount:      g.CurrentAmount,
		Deadline:           g.Deadline,
		IsGroup:            g.IsGroup,
		AutoSave:           g.AutoSave,
		AutoSaveFrequency:  g.AutoSaveFrequency,
		Completed:          g.Completed,
		Remaining:          progress.Remaining,
		RemainingDays:      progress.RemainingDays,
		ProgressPercentage: progress.ProgressPercentage,
		CreatedAt:          unixTime(g.CreatedAt),
	}
	if rule != nil {
		out.Rule = &api.SavingsRule{
			ID:        rule.ID,
			RuleType:  rule.RuleType,
			Amount:    rule.Amount,
			Frequency: rule.Frequency,
			IsActive:  rule.IsActive,
		}
		if rule.LastAppliedAt > 0 {
			t := unixTime(rule.LastAppliedAt)
			out.Rule.LastAppliedAt = &t
		}
	}
	return out
}

func toAPICategory(c *models.BudgetCategory) *api.BudgetCategory {
	return &api.BudgetCategory{
		ID:            c.ID,
		Name:          c.Name,
		MonthlyBudget: c.MonthlyBudget,
		CurrentSpent:  c.CurrentSpent,
		Month:         c.Month,
	}
}

func toAPIWallet(w *models.Wallet) *api.Wallet {
	return &api.Wallet{
		ID:         w.ID,
		Balance:    w.Balance,
		CardNumber: w.CardNumber,
		Status:     w.Status,
		CreatedAt:  unixTime(w.CreatedAt),
	}
}

func toAPIWalletTx(t *models.WalletTransaction) *api.WalletTransaction {
	return &api.WalletTransaction{
		ID:          t.ID,
		Amount:      t.Amount,
		Type:        t.Type,
		Description: t.Description,
		Status:      t.Status,
		CreatedAt:   unixTime(t.CreatedAt),
	}
}
