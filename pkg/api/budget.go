package api

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
)

// BudgetServiceName is the fully-qualified name of the BudgetService.
const BudgetServiceName = "tripfund.v1.BudgetService"

const (
	BudgetServiceSetCategoryProcedure = "/tripfund.v1.BudgetService/SetCategory"
	BudgetServiceRecordSpendProcedure = "/tripfund.v1.BudgetService/RecordSpend"
	BudgetServiceGetAnalysisProcedure = "/tripfund.v1.BudgetService/GetAnalysis"
)

type BudgetCategory struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget"`
	CurrentSpent  decimal.Decimal `json:"current_spent"`
	Month         time.Time       `json:"month"`
}

// SetCategoryRequest creates or re-budgets a category for the current month.
type SetCategoryRequest struct {
	Name          string          `json:"name" validate:"required,max=50"`
	MonthlyBudget decimal.Decimal `json:"monthly_budget"`
}

type SetCategoryResponse struct {
	Category *BudgetCategory `json:"category"`
}

type RecordSpendRequest struct {
	CategoryID string          `json:"category_id" validate:"required"`
	Amount     decimal.Decimal `json:"amount"`
}

type RecordSpendResponse struct {
	Category *BudgetCategory `json:"category"`
}

// GetAnalysisRequest analyses one month; a zero Month means the current month.
type GetAnalysisRequest struct {
	Month time.Time `json:"month"`
}

type CategoryStatus struct {
	Name           string          `json:"name"`
	Budget         decimal.Decimal `json:"budget"`
	Spent          decimal.Decimal `json:"spent"`
	PercentageUsed decimal.Decimal `json:"percentage_used"`
	Status         string          `json:"status"`
}

type GetAnalysisResponse struct {
	Month      time.Time         `json:"month"`
	Categories []*CategoryStatus `json:"categories"`
}

// BudgetServiceHandler is implemented by the server side of BudgetService.
type BudgetServiceHandler interface {
	SetCategory(context.Context, *connect.Request[SetCategoryRequest]) (*connect.Response[SetCategoryResponse], error)
	RecordSpend(context.Context, *connect.Request[RecordSpendRequest]) (*connect.Response[RecordSpendResponse], error)
	GetAnalysis(context.Context, *connect.Request[GetAnalysisRequest]) (*connect.Response[GetAnalysisResponse], error)
}

// NewBudgetServiceHandler builds an HTTP handler for BudgetService and
// returns the path to mount it on.
func NewBudgetServiceHandler(svc BudgetServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, BudgetServiceSetCategoryProcedure, svc.SetCategory, opts)
	route(mux, BudgetServiceRecordSpendProcedure, svc.RecordSpend, opts)
	route(mux, BudgetServiceGetAnalysisProcedure, svc.GetAnalysis, opts)
	return "/" + BudgetServiceName + "/", mux
}

// BudgetServiceClient calls BudgetService.
type BudgetServiceClient struct {
	setCategory *connect.Client[SetCategoryRequest, SetCategoryResponse]
	recordSpend *connect.Client[RecordSpendRequest, RecordSpendResponse]
	getAnalysis *connect.Client[GetAnalysisRequest, GetAnalysisResponse]
}

// NewBudgetServiceClient returns a client for the BudgetService at baseURL.
func NewBudgetServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BudgetServiceClient {
	opts = clientOptions(opts)
	return &BudgetServiceClient{
		setCategory: unary[SetCategoryRequest, SetCategoryResponse](httpClient, baseURL, BudgetServiceSetCategoryProcedure, opts),
		recordSpend: unary[RecordSpendRequest, RecordSpendResponse](httpClient, baseURL, BudgetServiceRecordSpendProcedure, opts),
		getAnalysis: unary[GetAnalysisRequest, GetAnalysisResponse](httpClient, baseURL, BudgetServiceGetAnalysisProcedure, opts),
	}
}

func (c *BudgetServiceClient) SetCategory(ctx context.Context, req *connect.Request[SetCategoryRequest]) (*connect.Response[SetCategoryResponse], error) {
	return c.setCategory.CallUnary(ctx, req)
}

func (c *BudgetServiceClient) RecordSpend(ctx context.Context, req *connect.Request[RecordSpendRequest]) (*connect.Response[RecordSpendResponse], error) {
	return c.recordSpend.CallUnary(ctx, req)
}

func (c *BudgetServiceClient) GetAnalysis(ctx context.Context, req *connect.Request[GetAnalysisRequest]) (*connect.Response[GetAnalysisResponse], error) {
	return c.getAnalysis.CallUnary(ctx, req)
}
