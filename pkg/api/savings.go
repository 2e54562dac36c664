package api

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
)

// SavingsServiceName is the fully-qualified name of the SavingsService.
const SavingsServiceName = "tripfund.v1.SavingsService"

const (
	SavingsServiceCreateGoalProcedure         = "/tripfund.v1.SavingsService/CreateGoal"
	SavingsServiceUpdateGoalProcedure         = "/tripfund.v1.SavingsService/UpdateGoal"
	SavingsServiceContributeProcedure         = "/tripfund.v1.SavingsService/Contribute"
	SavingsServiceGetGoalProcedure            = "/tripfund.v1.SavingsService/GetGoal"
	SavingsServiceListGoalsProcedure          = "/tripfund.v1.SavingsService/ListGoals"
	SavingsServiceGetRecommendationsProcedure = "/tripfund.v1.SavingsService/GetRecommendations"
)

type SavingsRule struct {
	ID            string          `json:"id"`
	RuleType      string          `json:"rule_type"`
	Amount        decimal.Decimal `json:"amount"`
	Frequency     string          `json:"frequency"`
	IsActive      bool            `json:"is_active"`
	LastAppliedAt *time.Time      `json:"last_applied_at,omitempty"`
}

type SavingsGoal struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	Name               string          `json:"name"`
	TargetAmount       decimal.Decimal `json:"target_amount"`
	CurrentAmount      decimal.Decimal `json:"current_amount"`
	Deadline           time.Time       `json:"deadline"`
	IsGroup            bool            `json:"is_group"`
	AutoSave           bool            `json:"auto_save"`
	AutoSaveFrequency  string          `json:"auto_save_frequency,omitempty"`
	Completed          bool            `json:"completed"`
	Remaining          decimal.Decimal `json:"remaining"`
	RemainingDays      int64           `json:"remaining_days"`
	ProgressPercentage decimal.Decimal `json:"progress_percentage"`
	Rule               *SavingsRule    `json:"rule,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}

type CreateGoalRequest struct {
	Name              string          `json:"name" validate:"required,max=100"`
	TargetAmount      decimal.Decimal `json:"target_amount" validate:"gt=0"`
	CurrentAmount     decimal.Decimal `json:"current_amount" validate:"gte=0"`
	Deadline          time.Time       `json:"deadline" validate:"required"`
	IsGroup           bool            `json:"is_group"`
	AutoSave          bool            `json:"auto_save"`
	AutoSaveFrequency string          `json:"auto_save_frequency" validate:"omitempty,oneof=daily weekly monthly"`
}

type CreateGoalResponse struct {
	Goal *SavingsGoal `json:"goal"`
}

// UpdateGoalRequest changes a goal's plan. Nil fields are left unchanged.
type UpdateGoalRequest struct {
	GoalID            string           `json:"goal_id" validate:"required"`
	Name              *string          `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	TargetAmount      *decimal.Decimal `json:"target_amount,omitempty"`
	Deadline          *time.Time       `json:"deadline,omitempty"`
	AutoSave          *bool            `json:"auto_save,omitempty"`
	AutoSaveFrequency *string          `json:"auto_save_frequency,omitempty" validate:"omitempty,oneof=daily weekly monthly"`
}

type UpdateGoalResponse struct {
	Goal *SavingsGoal `json:"goal"`
}

// ContributeRequest adds money to a goal, optionally drawn from the caller's wallet.
type ContributeRequest struct {
	GoalID     string          `json:"goal_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
	FromWallet bool            `json:"from_wallet"`
}

type ContributeResponse struct {
	Goal    *SavingsGoal    `json:"goal"`
	Applied decimal.Decimal `json:"applied"`
}

type GetGoalRequest struct {
	GoalID string `json:"goal_id" validate:"required"`
}

type GetGoalResponse struct {
	Goal *SavingsGoal `json:"goal"`
}

type ListGoalsRequest struct{}

type ListGoalsResponse struct {
	Goals []*SavingsGoal `json:"goals"`
}

type GetRecommendationsRequest struct{}

type Recommendation struct {
	GoalID      string          `json:"goal_id"`
	GoalName    string          `json:"goal_name"`
	DailyAmount decimal.Decimal `json:"daily_amount"`
	Message     string          `json:"message"`
}

type GetRecommendationsResponse struct {
	Recommendations []*Recommendation `json:"recommendations"`
}

// SavingsServiceHandler is implemented by the server side of SavingsService.
type SavingsServiceHandler interface {
	CreateGoal(context.Context, *connect.Request[CreateGoalRequest]) (*connect.Response[CreateGoalResponse], error)
	UpdateGoal(context.Context, *connect.Request[UpdateGoalRequest]) (*connect.Response[UpdateGoalResponse], error)
	Contribute(context.Context, *connect.Request[ContributeRequest]) (*connect.Response[ContributeResponse], error)
	GetGoal(context.Context, *connect.Request[GetGoalRequest]) (*connect.Response[GetGoalResponse], error)
	ListGoals(context.Context, *connect.Request[ListGoalsRequest]) (*connect.Response[ListGoalsResponse], error)
	GetRecommendations(context.Context, *connect.Request[GetRecommendationsRequest]) (*connect.Response[GetRecommendationsResponse], error)
}

// NewSavingsServiceHandler builds an HTTP handler for SavingsService and
// returns the path to mount it on.
func NewSavingsServiceHandler(svc SavingsServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, SavingsServiceCreateGoalProcedure, svc.CreateGoal, opts)
	route(mux, SavingsServiceUpdateGoalProcedure, svc.UpdateGoal, opts)
	route(mux, SavingsServiceContributeProcedure, svc.Contribute, opts)
	route(mux, SavingsServiceGetGoalProcedure, svc.GetGoal, opts)
	route(mux, SavingsServiceListGoalsProcedure, svc.ListGoals, opts)
	route(mux, SavingsServiceGetRecommendationsProcedure, svc.GetRecommendations, opts)
	return "/" + SavingsServiceName + "/", mux
}

// SavingsServiceClient calls SavingsService.
type SavingsServiceClient struct {
	createGoal         *connect.Client[CreateGoalRequest, CreateGoalResponse]
	updateGoal         *connect.Client[UpdateGoalRequest, UpdateGoalResponse]
	contribute         *connect.Client[ContributeRequest, ContributeResponse]
	getGoal            *connect.Client[GetGoalRequest, GetGoalResponse]
	listGoals          *connect.Client[ListGoalsRequest, ListGoalsResponse]
	getRecommendations *connect.Client[GetRecommendationsRequest, GetRecommendationsResponse]
}

// NewSavingsServiceClient returns a client for the SavingsService at baseURL.
func NewSavingsServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SavingsServiceClient {
	opts = clientOptions(opts)
	return &SavingsServiceClient{
		createGoal:         unary[CreateGoalRequest, CreateGoalResponse](httpClient, baseURL, SavingsServiceCreateGoalProcedure, opts),
		updateGoal:         unary[UpdateGoalRequest, UpdateGoalResponse](httpClient, baseURL, SavingsServiceUpdateGoalProcedure, opts),
		contribute:         unary[ContributeRequest, ContributeResponse](httpClient, baseURL, SavingsServiceContributeProcedure, opts),
		getGoal:            unary[GetGoalRequest, GetGoalResponse](httpClient, baseURL, SavingsServiceGetGoalProcedure, opts),
		listGoals:          unary[ListGoalsRequest, ListGoalsResponse](httpClient, baseURL, SavingsServiceListGoalsProcedure, opts),
		getRecommendations: unary[GetRecommendationsRequest, GetRecommendationsResponse](httpClient, baseURL, SavingsServiceGetRecommendationsProcedure, opts),
	}
}

func (c *SavingsServiceClient) CreateGoal(ctx context.Context, req *connect.Request[CreateGoalRequest]) (*connect.Response[CreateGoalResponse], error) {
	return c.createGoal.CallUnary(ctx, req)
}

func (c *SavingsServiceClient) UpdateGoal(ctx context.Context, req *connect.Request[UpdateGoalRequest]) (*connect.Response[UpdateGoalResponse], error) {
	return c.updateGoal.CallUnary(ctx, req)
}

func (c *SavingsServiceClient) Contribute(ctx context.Context, req *connect.Request[ContributeRequest]) (*connect.Response[ContributeResponse], error) {
	return c.contribute.CallUnary(ctx, req)
}

func (c *SavingsServiceClient) GetGoal(ctx context.Context, req *connect.Request[GetGoalRequest]) (*connect.Response[GetGoalResponse], error) {
	return c.getGoal.CallUnary(ctx, req)
}

func (c *SavingsServiceClient) ListGoals(ctx context.Context, req *connect.Request[ListGoalsRequest]) (*connect.Response[ListGoalsResponse], error) {
	return c.listGoals.CallUnary(ctx, req)
}

func (c *SavingsServiceClient) GetRecommendations(ctx context.Context, req *connect.Request[GetRecommendationsRequest]) (*connect.Response[GetRecommendationsResponse], error) {
	return c.getRecommendations.CallUnary(ctx, req)
}
