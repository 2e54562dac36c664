package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tripfund/internal/calculator"
	"github.com/mmynk/tripfund/internal/models"
	"github.com/mmynk/tripfund/internal/storage"
	"github.com/mmynk/tripfund/pkg/api"
)

// BudgetService implements the Connect BudgetService.
type BudgetService struct {
	store storage.BudgetStore
	now   func() time.Time
}

// NewBudgetService creates a new BudgetService with the given storage backend.
func NewBudgetService(store storage.BudgetStore) *BudgetService {
	return &BudgetService{store: store, now: time.Now}
}

// SetCategory creates or updates one of the caller's categories for the current month.
func (s *BudgetService) SetCategory(ctx context.Context, req *connect.Request[api.SetCategoryRequest]) (*connect.Response[api.SetCategoryResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	budget := req.Msg.MonthlyBudget.Round(2)
	if err := calculator.ValidateBudget(budget); err != nil {
		return nil, toConnectError(err)
	}

	category := &models.BudgetCategory{
		UserID:        userID,
		Name:          strings.TrimSpace(req.Msg.Name),
		MonthlyBudget: budget,
		Month:         calculator.MonthKey(s.now()),
	}
	if err := s.store.UpsertBudgetCategory(ctx, category); err != nil {
		slog.Error("SetCategory failed", "name", category.Name, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Budget category set", "category_id", category.ID, "name", category.Name, "budget", category.MonthlyBudget)
	return connect.NewResponse(&api.SetCategoryResponse{Category: toAPICategory(category)}), nil
}

// RecordSpend adds spending to one of the caller's categories.
func (s *BudgetService) RecordSpend(ctx context.Context, req *connect.Request[api.RecordSpendRequest]) (*connect.Response[api.RecordSpendResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	amount, err := calculator.NormalizeAmount(req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}

	category, err := s.store.GetBudgetCategory(ctx, req.Msg.CategoryID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if category.UserID != userID {
		return nil, toConnectError(fmt.Errorf("%w: category %s belongs to another user", errForbidden, category.ID))
	}

	updated, err := s.store.AddBudgetSpend(ctx, category.ID, amount)
	if err != nil {
		slog.Error("RecordSpend failed", "category_id", category.ID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.RecordSpendResponse{Category: toAPICategory(updated)}), nil
}

// GetAnalysis reports utilisation of the caller's categories for a month.
func (s *BudgetService) GetAnalysis(ctx context.Context, req *connect.Request[api.GetAnalysisRequest]) (*connect.Response[api.GetAnalysisResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	month := req.Msg.Month
	if month.IsZero() {
		month = s.now()
	}
	month = calculator.MonthKey(month)

	categories, err := s.store.ListBudgetCategories(ctx, userID, month)
	if err != nil {
		slog.Error("GetAnalysis failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	values := make([]models.BudgetCategory, 0, len(categories))
	for _, c := range categories {
		values = append(values, *c)
	}
	statuses, err := calculator.AnalyzeBudget(values)
	if err != nil {
		return nil, toConnectError(err)
	}

	out := make([]*api.CategoryStatus, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, &api.CategoryStatus{
			Name:           st.Name,
			Budget:         st.Budget,
			Spent:          st.Spent,
			PercentageUsed: st.PercentageUsed,
			Status:         st.Status,
		})
	}
	return connect.NewResponse(&api.GetAnalysisResponse{Month: month, Categories: out}), nil
}
