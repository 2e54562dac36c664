package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/tripfund/internal/calculator"
	"github.com/mmynk/tripfund/internal/metrics"
	"github.com/mmynk/tripfund/internal/models"
	"github.com/mmynk/tripfund/internal/payments"
	"github.com/mmynk/tripfund/internal/storage"
	"github.com/mmynk/tripfund/pkg/api"
)

// PaymentStore is the storage the payment service needs.
type PaymentStore interface {
	storage.TripStore
	storage.WalletStore
	storage.PaymentStore
}

// PaymentService implements the Connect PaymentService and settles
// processor intents reported by the webhook.
type PaymentService struct {
	store     PaymentStore
	processor payments.Processor
	currency  string
	metrics   *metrics.Metrics
}

var _ payments.Confirmer = (*PaymentService)(nil)

// NewPaymentService creates a new PaymentService. m may be nil.
func NewPaymentService(store PaymentStore, processor payments.Processor, currency string, m *metrics.Metrics) *PaymentService {
	return &PaymentService{store: store, processor: processor, currency: currency, metrics: m}
}

// CreatePaymentIntent starts a card payment towards a trip the caller takes part in.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, req *connect.Request[api.CreatePaymentIntentRequest]) (*connect.Response[api.CreatePaymentIntentResponse], error) {
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
	if _, err := requireParticipant(ctx, s.store, req.Msg.TripID, userID); err != nil {
		return nil, toConnectError(err)
	}

	intent, err := s.processor.CreateIntent(ctx, payments.IntentRequest{
		Amount:   amount,
		Currency: s.currency,
		Metadata: map[string]string{"trip_id": req.Msg.TripID, "user_id": userID, "kind": "trip_payment"},
	})
	if err != nil {
		slog.Error("CreatePaymentIntent: processor failed", "trip_id", req.Msg.TripID, "error", err)
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}

	payment := &models.Payment{
		TripID:        req.Msg.TripID,
		UserID:        userID,
		Amount:        amount,
		Status:        models.PaymentPending,
		PaymentMethod: "card",
		ProcessorID:   intent.ID,
	}
	if err := s.store.CreatePayment(ctx, payment); err != nil {
		slog.Error("CreatePaymentIntent: failed to record payment", "intent_id", intent.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Trip payment started", "payment_id", payment.ID, "trip_id", payment.TripID, "amount", amount)
	return connect.NewResponse(&api.CreatePaymentIntentResponse{
		PaymentID:    payment.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       amount,
		Status:       payment.Status,
	}), nil
}

// ConfirmIntent credits the wallet deposit behind intentID or, failing
// that, completes the trip payment.
func (s *PaymentService) ConfirmIntent(ctx context.Context, intentID string) error {
	wtx, err := s.store.ConfirmDeposit(ctx, intentID)
	if err == nil {
		s.metrics.DepositConfirmed()
		slog.Info("Deposit confirmed", "wallet_id", wtx.WalletID, "amount", wtx.Amount, "intent_id", intentID)
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return s.store.SetPaymentStatus(ctx, intentID, models.PaymentCompleted)
}

// FailIntent marks the deposit or trip payment behind intentID as failed.
func (s *PaymentService) FailIntent(ctx context.Context, intentID string) error {
	err := s.store.FailDeposit(ctx, intentID)
	if err == nil {
		slog.Info("Deposit failed", "intent_id", intentID)
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}
	return s.store.SetPaymentStatus(ctx, intentID, models.PaymentFailed)
}
