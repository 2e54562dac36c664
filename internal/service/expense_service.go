package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/tripfund/internal/calculator"
	"github.com/mmynk/tripfund/internal/metrics"
	"github.com/mmynk/tripfund/internal/models"
	"github.com/mmynk/tripfund/internal/storage"
	"github.com/mmynk/tripfund/pkg/api"
)

// ExpenseStore is the storage the expense service needs.
type ExpenseStore interface {
	storage.TripStore
	storage.ExpenseStore
}

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	store   ExpenseStore
	metrics *metrics.Metrics
}

// NewExpenseService creates a new ExpenseService. m may be nil.
func NewExpenseService(store ExpenseStore, m *metrics.Metrics) *ExpenseService {
	return &ExpenseService{store: store, metrics: m}
}

// PreviewSplit runs the equal split without recording anything.
func (s *ExpenseService) PreviewSplit(ctx context.Context, req *connect.Request[api.PreviewSplitRequest]) (*connect.Response[api.PreviewSplitResponse], error) {
	if _, err := requireUser(ctx); err != nil {
		return nil, err
	}

	result, err := calculator.SplitExpense(req.Msg.Amount, req.Msg.PayerID, req.Msg.ParticipantIDs)
	if err != nil {
		slog.Error("PreviewSplit failed", "error", err)
		return nil, toConnectError(err)
	}

	slog.Debug("Split preview",
		"amount", req.Msg.Amount,
		"participants", len(req.Msg.ParticipantIDs),
		"payer_share", result.PayerShare,
	)
	return connect.NewResponse(&api.PreviewSplitResponse{
		Obligations: toAPIObligations(result.Obligations),
		PayerShare:  result.PayerShare,
	}), nil
}

// CreateExpense records an expense paid by the caller and issues a payment
// request to every other accepted participant.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[api.CreateExpenseRequest]) (*connect.Response[api.CreateExpenseResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	trip, err := requireParticipant(ctx, s.store, req.Msg.TripID, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	result, err := calculator.SplitExpense(req.Msg.Amount, userID, trip.AcceptedParticipants())
	if err != nil {
		slog.Error("CreateExpense: split failed", "trip_id", trip.ID, "error", err)
		return nil, toConnectError(err)
	}

	expense := &models.Expense{
		TripID:      trip.ID,
		Description: strings.TrimSpace(req.Msg.Description),
		Amount:      result.Total().Add(result.PayerShare),
		PaidBy:      userID,
		SplitType:   models.SplitEqual,
	}
	requests := make([]*models.PaymentRequest, 0, len(result.Obligations))
	for _, o := range result.Obligations {
		requests = append(requests, &models.PaymentRequest{
			TripID:  trip.ID,
			UserID:  o.UserID,
			PayeeID: userID,
			Amount:  o.Amount,
			Status:  models.RequestPending,
		})
	}

	if err := s.store.CreateExpense(ctx, expense, requests); err != nil {
		slog.Error("CreateExpense failed", "trip_id", trip.ID, "error", err)
		return nil, toConnectError(err)
	}
	s.metrics.ExpenseCreated(len(requests))

	slog.Info("Expense created",
		"expense_id", expense.ID,
		"trip_id", trip.ID,
		"amount", expense.Amount,
		"payment_requests", len(requests),
	)

	apiRequests := make([]*api.PaymentRequest, 0, len(requests))
	for _, r := range requests {
		apiRequests = append(apiRequests, toAPIRequest(r))
	}
	return connect.NewResponse(&api.CreateExpenseResponse{
		Expense:         toAPIExpense(expense),
		PaymentRequests: apiRequests,
		PayerShare:      result.PayerShare,
	}), nil
}

// ListExpenses returns a trip's expenses, oldest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	if _, err := requireParticipant(ctx, s.store, req.Msg.TripID, userID); err != nil {
		return nil, toConnectError(err)
	}

	expenses, err := s.store.ListExpensesByTrip(ctx, req.Msg.TripID)
	if err != nil {
		slog.Error("ListExpenses failed", "trip_id", req.Msg.TripID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.Expense, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toAPIExpense(e))
	}
	return connect.NewResponse(&api.ListExpensesResponse{Expenses: out}), nil
}

// ListPaymentRequests returns every payment request of a trip.
func (s *ExpenseService) ListPaymentRequests(ctx context.Context, req *connect.Request[api.ListPaymentRequestsRequest]) (*connect.Response[api.ListPaymentRequestsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	if _, err := requireParticipant(ctx, s.store, req.Msg.TripID, userID); err != nil {
		return nil, toConnectError(err)
	}

	requests, err := s.store.ListPaymentRequestsByTrip(ctx, req.Msg.TripID)
	if err != nil {
		slog.Error("ListPaymentRequests failed", "trip_id", req.Msg.TripID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.PaymentRequest, 0, len(requests))
	for _, r := range requests {
		out = append(out, toAPIRequest(r))
	}
	return connect.NewResponse(&api.ListPaymentRequestsResponse{PaymentRequests: out}), nil
}

// RespondToPaymentRequest closes a pending request without moving wallet
// funds. The ower may decline it; the payee may mark it paid once settled
// outside the app.
func (s *ExpenseService) RespondToPaymentRequest(ctx context.Context, req *connect.Request[api.RespondToPaymentRequestRequest]) (*connect.Response[api.RespondToPaymentRequestResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	pr, err := s.store.GetPaymentRequest(ctx, req.Msg.RequestID)
	if err != nil {
		return nil, toConnectError(err)
	}

	var status string
	switch req.Msg.Response {
	case api.ResponseDecline:
		if pr.UserID != userID {
			return nil, toConnectError(fmt.Errorf("%w: only the ower can decline a request", errForbidden))
		}
		status = models.RequestDeclined
	case api.ResponseMarkPaid:
		if pr.PayeeID != userID {
			return nil, toConnectError(fmt.Errorf("%w: only the payee can mark a request paid", errForbidden))
		}
		status = models.RequestPaid
	}

	if err := s.store.UpdatePaymentRequestStatus(ctx, pr.ID, status); err != nil {
		slog.Warn("RespondToPaymentRequest failed", "request_id", pr.ID, "error", err)
		return nil, toConnectError(err)
	}

	updated, err := s.store.GetPaymentRequest(ctx, pr.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Payment request updated", "request_id", pr.ID, "status", status, "by", userID)
	return connect.NewResponse(&api.RespondToPaymentRequestResponse{PaymentRequest: toAPIRequest(updated)}), nil
}

// PayPaymentRequest pays the caller's pending request from their wallet.
func (s *ExpenseService) PayPaymentRequest(ctx context.Context, req *connect.Request[api.PayPaymentRequestRequest]) (*connect.Response[api.PayPaymentRequestResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}

	pr, err := s.store.GetPaymentRequest(ctx, req.Msg.RequestID)
	if err != nil {
		return nil, toConnectError(err)
	}
	if pr.UserID != userID {
		return nil, toConnectError(fmt.Errorf("%w: request %s is owed by another user", errForbidden, pr.ID))
	}

	if err := s.store.PayPaymentRequest(ctx, pr.ID); err != nil {
		slog.Warn("PayPaymentRequest failed", "request_id", pr.ID, "error", err)
		return nil, toConnectError(err)
	}

	updated, err := s.store.GetPaymentRequest(ctx, pr.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Payment request paid from wallet", "request_id", pr.ID, "amount", pr.Amount, "payee", pr.PayeeID)
	return connect.NewResponse(&api.PayPaymentRequestResponse{PaymentRequest: toAPIRequest(updated)}), nil
}

// GetBalance returns what a user paid versus still owes on a trip.
func (s *ExpenseService) GetBalance(ctx context.Context, req *connect.Request[api.GetBalanceRequest]) (*connect.Response[api.GetBalanceResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	if _, err := requireParticipant(ctx, s.store, req.Msg.TripID, userID); err != nil {
		return nil, toConnectError(err)
	}

	subject := req.Msg.UserID
	if subject == "" {
		subject = userID
	}

	expenses, requests, err := s.store.TripLedger(ctx, req.Msg.TripID)
	if err != nil {
		slog.Error("GetBalance failed", "trip_id", req.Msg.TripID, "error", err)
		return nil, toConnectError(err)
	}

	summary := calculator.ComputeBalance(subject, req.Msg.TripID, expenses, requests)
	return connect.NewResponse(&api.GetBalanceResponse{
		UserID:  subject,
		Paid:    summary.Paid,
		Owed:    summary.Owed,
		Balance: summary.Balance,
	}), nil
}

// GetSettlementPlan nets the trip's pending requests into member balances
// and a reduced set of transfers.
func (s *ExpenseService) GetSettlementPlan(ctx context.Context, req *connect.Request[api.GetSettlementPlanRequest]) (*connect.Response[api.GetSettlementPlanResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateRequest(req.Msg); err != nil {
		return nil, toConnectError(err)
	}
	if _, err := requireParticipant(ctx, s.store, req.Msg.TripID, userID); err != nil {
		return nil, toConnectError(err)
	}

	_, requests, err := s.store.TripLedger(ctx, req.Msg.TripID)
	if err != nil {
		slog.Error("GetSettlementPlan failed", "trip_id", req.Msg.TripID, "error", err)
		return nil, toConnectError(err)
	}

	balances, edges := calculator.SettleTrip(req.Msg.TripID, requests)

	resp := &api.GetSettlementPlanResponse{
		Balances:  make([]*api.MemberBalance, 0, len(balances)),
		Transfers: make([]*api.DebtEdge, 0, len(edges)),
	}
	for _, b := range balances {
		resp.Balances = append(resp.Balances, &api.MemberBalance{
			UserID:     b.UserID,
			Receivable: b.Receivable,
			Payable:    b.Payable,
			NetBalance: b.NetBalance,
		})
	}
	for _, e := range edges {
		resp.Transfers = append(resp.Transfers, &api.DebtEdge{From: e.From, To: e.To, Amount: e.Amount})
	}
	return connect.NewResponse(resp), nil
}

func toAPIObligations(obligations []calculator.Obligation) []*api.Obligation {
	out := make([]*api.Obligation, 0, len(obligations))
	for _, o := range obligations {
		out = append(out, &api.Obligation{UserID: o.UserID, Amount: o.Amount})
	}
	return out
}
