package service

import (
	"context"
	"errors"
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

// SavingsService implements the Connect SavingsService.
type SavingsService struct {
	store storage.SavingsStore
	now   func() time.Time
}

// NewSavingsService creates a new SavingsService with the given storage backend.
func NewSavingsService(store storage.SavingsStore) *SavingsService {
	return &SavingsService{store: store, now: time.Now}
}

// CreateGoal creates a savings goal for the caller. With auto-save enabled
// the recurring rule is derived from the goal and stored with it.
func (s *SavingsService) CreateGoal(ctx context.Context, req *connect.Request[api.CreateGoalRequest]) (*connect.Response[api.CreateGoalResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	now := s.now()
	goal := &models.SavingsGoal{
		UserID:            userID,
		Name:              strings.TrimSpace(req.Msg.Name),
		TargetAmount:      req.Msg.TargetAmount.Round(2),
		CurrentAmount:     req.Msg.CurrentAmount.Round(2),
		Deadline:          req.Msg.Deadline.UTC(),
		IsGroup:           req.Msg.IsGroup,
		AutoSave:          req.Msg.AutoSave,
		AutoSaveFrequency: req.Msg.AutoSaveFrequency,
	}
	if err := checkGoal(goal, now); err != nil {
		return nil, toConnectError(err)
	}

	rule, err := ruleFor(goal, now)
	if err != nil {
		slog.Warn("CreateGoal: cannot derive savings rule", "error", err)
		return nil, toConnectError(err)
	}

	if err := s.store.CreateGoal(ctx, goal, rule); err != nil {
		slog.Error("CreateGoal failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Savings goal created", "goal_id", goal.ID, "user_id", userID, "auto_save", goal.AutoSave)
	return connect.NewResponse(&api.CreateGoalResponse{Goal: toAPIGoal(goal, rule, now)}), nil
}

// UpdateGoal changes a goal's settings and recomputes its rule.
func (s *SavingsService) UpdateGoal(ctx context.Context, req *connect.Request[api.UpdateGoalRequest]) (*connect.Response[api.UpdateGoalResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	goal, err := s.ownGoal(ctx, req.Msg.GoalID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	now := s.now()
	if req.Msg.Name != nil {
		goal.Name = strings.TrimSpace(*req.Msg.Name)
	}
	if req.Msg.TargetAmount != nil {
		goal.TargetAmount = req.Msg.TargetAmount.Round(2)
	}
	if req.Msg.Deadline != nil {
		goal.Deadline = req.Msg.Deadline.UTC()
	}
	if req.Msg.AutoSave != nil {
		goal.AutoSave = *req.Msg.AutoSave
	}
	if req.Msg.AutoSaveFrequency != nil {
		goal.AutoSaveFrequency = *req.Msg.AutoSaveFrequency
	}
	if err := checkGoal(goal, now); err != nil {
		return nil, toConnectError(err)
	}

	rule, err := ruleFor(goal, now)
	if err != nil {
		return nil, toConnectError(err)
	}
	rule = s.continueRule(ctx, goal, rule, now)

	if err := s.store.UpdateGoal(ctx, goal, rule); err != nil {
		slog.Error("UpdateGoal failed", "goal_id", goal.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Savings goal updated", "goal_id", goal.ID, "completed", goal.Completed, "has_rule", rule != nil)
	return connect.NewResponse(&api.UpdateGoalResponse{Goal: toAPIGoal(goal, rule, now)}), nil
}

// Contribute adds money to a goal, optionally from the caller's wallet.
func (s *SavingsService) Contribute(ctx context.Context, req *connect.Request[api.ContributeRequest]) (*connect.Response[api.ContributeResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	goal, err := s.ownGoal(ctx, req.Msg.GoalID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	now := s.now()
	plan, err := calculator.PlanContribution(*goal, req.Msg.Amount, now)
	if err != nil {
		return nil, toConnectError(err)
	}
	plan.Rule = s.continueRule(ctx, &plan.Goal, plan.Rule, now)

	err = s.store.ApplyContribution(ctx, storage.GoalContribution{
		Goal:        &plan.Goal,
		Amount:      plan.Applied,
		FromWallet:  req.Msg.FromWallet,
		ReplaceRule: true,
		Rule:        plan.Rule,
	})
	if err != nil {
		slog.Warn("Contribute failed", "goal_id", goal.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Contribution applied",
		"goal_id", goal.ID,
		"applied", plan.Applied,
		"from_wallet", req.Msg.FromWallet,
		"completed", plan.Goal.Completed,
	)
	return connect.NewResponse(&api.ContributeResponse{
		Goal:    toAPIGoal(&plan.Goal, plan.Rule, now),
		Applied: plan.Applied,
	}), nil
}

// GetGoal returns one of the caller's goals with its progress and rule.
func (s *SavingsService) GetGoal(ctx context.Context, req *connect.Request[api.GetGoalRequest]) (*connect.Response[api.GetGoalResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	goal, err := s.ownGoal(ctx, req.Msg.GoalID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	rule, err := s.ruleOrNil(ctx, goal.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetGoalResponse{Goal: toAPIGoal(goal, rule, s.now())}), nil
}

// ListGoals returns the caller's goals ordered by deadline.
func (s *SavingsService) ListGoals(ctx context.Context, req *connect.Request[api.ListGoalsRequest]) (*connect.Response[api.ListGoalsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	goals, err := s.store.ListGoalsByUser(ctx, userID)
	if err != nil {
		slog.Error("ListGoals failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	now := s.now()
	out := make([]*api.SavingsGoal, 0, len(goals))
	for _, g := range goals {
		rule, err := s.ruleOrNil(ctx, g.ID)
		if err != nil {
			return nil, toConnectError(err)
		}
		out = append(out, toAPIGoal(g, rule, now))
	}
	return connect.NewResponse(&api.ListGoalsResponse{Goals: out}), nil
}

// GetRecommendations suggests a daily saving amount for each open goal.
func (s *SavingsService) GetRecommendations(ctx context.Context, req *connect.Request[api.GetRecommendationsRequest]) (*connect.Response[api.GetRecommendationsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	goals, err := s.store.ListGoalsByUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	values := make([]models.SavingsGoal, 0, len(goals))
	for _, g := range goals {
		values = append(values, *g)
	}

	recs := calculator.RecommendSavings(values, s.now())
	out := make([]*api.Recommendation, 0, len(recs))
	for _, r := range recs {
		out = append(out, &api.Recommendation{
			GoalID:      r.GoalID,
			GoalName:    r.GoalName,
			DailyAmount: r.DailyAmount,
			Message:     r.Message,
		})
	}
	return connect.NewResponse(&api.GetRecommendationsResponse{Recommendations: out}), nil
}

func (s *SavingsService) ownGoal(ctx context.Context, goalID, userID string) (*models.SavingsGoal, error) {
	goal, err := s.store.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.UserID != userID {
		return nil, fmt.Errorf("%w: goal %s belongs to another user", errForbidden, goalID)
	}
	return goal, nil
}

func (s *SavingsService) ruleOrNil(ctx context.Context, goalID string) (*models.SavingsRule, error) {
	rule, err := s.store.GetRuleForGoal(ctx, goalID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return rule, err
}

// continueRule carries the previous rule's run history over to rule. If the
// auto-saver already paid the current period, rule is derived from the next one.
func (s *SavingsService) continueRule(ctx context.Context, goal *models.SavingsGoal, rule *models.SavingsRule, now time.Time) *models.SavingsRule {
	if rule == nil {
		return nil
	}
	prev, err := s.store.GetRuleForGoal(ctx, goal.ID)
	if err != nil || prev.LastAppliedAt == 0 {
		return rule
	}
	if !calculator.IsContributionDue(goal.AutoSaveFrequency, time.Unix(prev.LastAppliedAt, 0), now) {
		if next, err := calculator.DeriveNextSavingsRule(*goal, now); err == nil {
			rule = next
		}
	}
	rule.LastAppliedAt = prev.LastAppliedAt
	return rule
}

// checkGoal validates a goal's amounts and schedule and sets Completed.
func checkGoal(goal *models.SavingsGoal, now time.Time) error {
	if goal.Name == "" {
		return fmt.Errorf("%w: name is required", errInvalidRequest)
	}
	if !goal.TargetAmount.IsPositive() {
		return fmt.Errorf("%w: target amount must be positive", calculator.ErrInvalidAmount)
	}
	if goal.CurrentAmount.IsNegative() {
		return fmt.Errorf("%w: current amount cannot be negative", errInvalidRequest)
	}
	if goal.AutoSave && !calculator.ValidFrequency(goal.AutoSaveFrequency) {
		return fmt.Errorf("%w: auto-save needs a frequency (daily, weekly or monthly)", calculator.ErrInvalidSchedule)
	}
	goal.Completed = goal.CurrentAmount.GreaterThanOrEqual(goal.TargetAmount)
	if !goal.Completed && !goal.Deadline.After(now) {
		return fmt.Errorf("%w: deadline must be in the future", calculator.ErrInvalidSchedule)
	}
	return nil
}

// ruleFor derives the goal's rule, or nil when auto-save is off or the goal is met.
func ruleFor(goal *models.SavingsGoal, now time.Time) (*models.SavingsRule, error) {
	if !goal.AutoSave || goal.Completed {
		return nil, nil
	}
	return calculator.DeriveSavingsRule(*goal, now)
}
