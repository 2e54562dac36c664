package api

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
)

// ExpenseServiceName is the fully-qualified name of the ExpenseService.
const ExpenseServiceName = "tripfund.v1.ExpenseService"

const (
	ExpenseServicePreviewSplitProcedure            = "/tripfund.v1.ExpenseService/PreviewSplit"
	ExpenseServiceCreateExpenseProcedure           = "/tripfund.v1.ExpenseService/CreateExpense"
	ExpenseServiceListExpensesProcedure            = "/tripfund.v1.ExpenseService/ListExpenses"
	ExpenseServiceListPaymentRequestsProcedure     = "/tripfund.v1.ExpenseService/ListPaymentRequests"
	ExpenseServiceRespondToPaymentRequestProcedure = "/tripfund.v1.ExpenseService/RespondToPaymentRequest"
	ExpenseServicePayPaymentRequestProcedure       = "/tripfund.v1.ExpenseService/PayPaymentRequest"
	ExpenseServiceGetBalanceProcedure              = "/tripfund.v1.ExpenseService/GetBalance"
	ExpenseServiceGetSettlementPlanProcedure       = "/tripfund.v1.ExpenseService/GetSettlementPlan"
)

// Responses accepted by RespondToPaymentRequest.
const (
	ResponseDecline  = "decline"
	ResponseMarkPaid = "mark_paid"
)

type Obligation struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

type Expense struct {
	ID          string          `json:"id"`
	TripID      string          `json:"trip_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	PaidBy      string          `json:"paid_by"`
	SplitType   string          `json:"split_type"`
	CreatedAt   time.Time       `json:"created_at"`
}

type PaymentRequest struct {
	ID        string          `json:"id"`
	ExpenseID string          `json:"expense_id"`
	TripID    string          `json:"trip_id"`
	UserID    string          `json:"user_id"`
	PayeeID   string          `json:"payee_id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// PreviewSplitRequest runs the splitter without touching any trip.
type PreviewSplitRequest struct {
	Amount         decimal.Decimal `json:"amount"`
	PayerID        string          `json:"payer_id"`
	ParticipantIDs []string        `json:"participant_ids"`
}

type PreviewSplitResponse struct {
	Obligations []*Obligation   `json:"obligations"`
	PayerShare  decimal.Decimal `json:"payer_share"`
}

// CreateExpenseRequest records an expense paid by the caller and splits it
// equally among the trip's accepted participants.
type CreateExpenseRequest struct {
	TripID      string          `json:"trip_id" validate:"required"`
	Description string          `json:"description" validate:"required,max=200"`
	Amount      decimal.Decimal `json:"amount"`
}

type CreateExpenseResponse struct {
	Expense         *Expense          `json:"expense"`
	PaymentRequests []*PaymentRequest `json:"payment_requests"`
	PayerShare      decimal.Decimal   `json:"payer_share"`
}

type ListExpensesRequest struct {
	TripID string `json:"trip_id" validate:"required"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

type ListPaymentRequestsRequest struct {
	TripID string `json:"trip_id" validate:"required"`
}

type ListPaymentRequestsResponse struct {
	PaymentRequests []*PaymentRequest `json:"payment_requests"`
}

type RespondToPaymentRequestRequest struct {
	RequestID string `json:"request_id" validate:"required"`
	Response  string `json:"response" validate:"required,oneof=decline mark_paid"`
}

type RespondToPaymentRequestResponse struct {
	PaymentRequest *PaymentRequest `json:"payment_request"`
}

type PayPaymentRequestRequest struct {
	RequestID string `json:"request_id" validate:"required"`
}

type PayPaymentRequestResponse struct {
	PaymentRequest *PaymentRequest `json:"payment_request"`
}

// GetBalanceRequest asks for a user's balance on a trip; UserID defaults to the caller.
type GetBalanceRequest struct {
	TripID string `json:"trip_id" validate:"required"`
	UserID string `json:"user_id"`
}

type GetBalanceResponse struct {
	UserID  string          `json:"user_id"`
	Paid    decimal.Decimal `json:"paid"`
	Owed    decimal.Decimal `json:"owed"`
	Balance decimal.Decimal `json:"balance"`
}

type GetSettlementPlanRequest struct {
	TripID string `json:"trip_id" validate:"required"`
}

type MemberBalance struct {
	UserID     string          `json:"user_id"`
	Receivable decimal.Decimal `json:"receivable"`
	Payable    decimal.Decimal `json:"payable"`
	NetBalance decimal.Decimal `json:"net_balance"`
}

type DebtEdge struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type GetSettlementPlanResponse struct {
	Balances  []*MemberBalance `json:"balances"`
	Transfers []*DebtEdge      `json:"transfers"`
}

// ExpenseServiceHandler is implemented by the server side of ExpenseService.
type ExpenseServiceHandler interface {
	PreviewSplit(context.Context, *connect.Request[PreviewSplitRequest]) (*connect.Response[PreviewSplitResponse], error)
	CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error)
	ListPaymentRequests(context.Context, *connect.Request[ListPaymentRequestsRequest]) (*connect.Response[ListPaymentRequestsResponse], error)
	RespondToPaymentRequest(context.Context, *connect.Request[RespondToPaymentRequestRequest]) (*connect.Response[RespondToPaymentRequestResponse], error)
	PayPaymentRequest(context.Context, *connect.Request[PayPaymentRequestRequest]) (*connect.Response[PayPaymentRequestResponse], error)
	GetBalance(context.Context, *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error)
	GetSettlementPlan(context.Context, *connect.Request[GetSettlementPlanRequest]) (*connect.Response[GetSettlementPlanResponse], error)
}

// NewExpenseServiceHandler builds an HTTP handler for ExpenseService and
// returns the path to mount it on.
func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, ExpenseServicePreviewSplitProcedure, svc.PreviewSplit, opts)
	route(mux, ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts)
	route(mux, ExpenseServiceListExpensesProcedure, svc.ListExpenses, opts)
	route(mux, ExpenseServiceListPaymentRequestsProcedure, svc.ListPaymentRequests, opts)
	route(mux, ExpenseServiceRespondToPaymentRequestProcedure, svc.RespondToPaymentRequest, opts)
	route(mux, ExpenseServicePayPaymentRequestProcedure, svc.PayPaymentRequest, opts)
	route(mux, ExpenseServiceGetBalanceProcedure, svc.GetBalance, opts)
	route(mux, ExpenseServiceGetSettlementPlanProcedure, svc.GetSettlementPlan, opts)
	return "/" + ExpenseServiceName + "/", mux
}

// ExpenseServiceClient calls ExpenseService.
type ExpenseServiceClient struct {
	previewSplit            *connect.Client[PreviewSplitRequest, PreviewSplitResponse]
	createExpense           *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	listExpenses            *connect.Client[ListExpensesRequest, ListExpensesResponse]
	listPaymentRequests     *connect.Client[ListPaymentRequestsRequest, ListPaymentRequestsResponse]
	respondToPaymentRequest *connect.Client[RespondToPaymentRequestRequest, RespondToPaymentRequestResponse]
	payPaymentRequest       *connect.Client[PayPaymentRequestRequest, PayPaymentRequestResponse]
	getBalance              *connect.Client[GetBalanceRequest, GetBalanceResponse]
	getSettlementPlan       *connect.Client[GetSettlementPlanRequest, GetSettlementPlanResponse]
}

// NewExpenseServiceClient returns a client for the ExpenseService at baseURL.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ExpenseServiceClient {
	opts = clientOptions(opts)
	return &ExpenseServiceClient{
		previewSplit:            unary[PreviewSplitRequest, PreviewSplitResponse](httpClient, baseURL, ExpenseServicePreviewSplitProcedure, opts),
		createExpense:           unary[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL, ExpenseServiceCreateExpenseProcedure, opts),
		listExpenses:            unary[ListExpensesRequest, ListExpensesResponse](httpClient, baseURL, ExpenseServiceListExpensesProcedure, opts),
		listPaymentRequests:     unary[ListPaymentRequestsRequest, ListPaymentRequestsResponse](httpClient, baseURL, ExpenseServiceListPaymentRequestsProcedure, opts),
		respondToPaymentRequest: unary[RespondToPaymentRequestRequest, RespondToPaymentRequestResponse](httpClient, baseURL, ExpenseServiceRespondToPaymentRequestProcedure, opts),
		payPaymentRequest:       unary[PayPaymentRequestRequest, PayPaymentRequestResponse](httpClient, baseURL, ExpenseServicePayPaymentRequestProcedure, opts),
		getBalance:              unary[GetBalanceRequest, GetBalanceResponse](httpClient, baseURL, ExpenseServiceGetBalanceProcedure, opts),
		getSettlementPlan:       unary[GetSettlementPlanRequest, GetSettlementPlanResponse](httpClient, baseURL, ExpenseServiceGetSettlementPlanProcedure, opts),
	}
}

func (c *ExpenseServiceClient) PreviewSplit(ctx context.Context, req *connect.Request[PreviewSplitRequest]) (*connect.Response[PreviewSplitResponse], error) {
	return c.previewSplit.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[CreateExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ListExpenses(ctx context.Context, req *connect.Request[ListExpensesRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ListPaymentRequests(ctx context.Context, req *connect.Request[ListPaymentRequestsRequest]) (*connect.Response[ListPaymentRequestsResponse], error) {
	return c.listPaymentRequests.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) RespondToPaymentRequest(ctx context.Context, req *connect.Request[RespondToPaymentRequestRequest]) (*connect.Response[RespondToPaymentRequestResponse], error) {
	return c.respondToPaymentRequest.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) PayPaymentRequest(ctx context.Context, req *connect.Request[PayPaymentRequestRequest]) (*connect.Response[PayPaymentRequestResponse], error) {
	return c.payPaymentRequest.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetBalance(ctx context.Context, req *connect.Request[GetBalanceRequest]) (*connect.Response[GetBalanceResponse], error) {
	return c.getBalance.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetSettlementPlan(ctx context.Context, req *connect.Request[GetSettlementPlanRequest]) (*connect.Response[GetSettlementPlanResponse], error) {
	return c.getSettlementPlan.CallUnary(ctx, req)
}
