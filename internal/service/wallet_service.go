package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/tripfund/internal/calculator"
	"github.com/mmynk/tripfund/internal/models"
	"github.com/mmynk/tripfund/internal/payments"
	"github.com/mmynk/tripfund/internal/storage"
	"github.com/mmynk/tripfund/pkg/api"
)

// WalletService implements the Connect WalletService.
type WalletService struct {
	store     storage.WalletStore
	processor payments.Processor
	currency  string
}

// NewWalletService creates a new WalletService. Deposits are charged in currency.
func NewWalletService(store storage.WalletStore, processor payments.Processor, currency string) *WalletService {
	return &WalletService{store: store, processor: processor, currency: currency}
}

// CreateWallet opens the caller's virtual card.
func (s *WalletService) CreateWallet(ctx context.Context, req *connect.Request[api.CreateWalletRequest]) (*connect.Response[api.CreateWalletResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	wallet := &models.Wallet{UserID: userID, Status: models.WalletActive}
	if err := s.store.CreateWallet(ctx, wallet); err != nil {
		slog.Warn("CreateWallet failed", "user_id", userID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Wallet created", "wallet_id", wallet.ID, "user_id", userID)
	return connect.NewResponse(&api.CreateWalletResponse{Wallet: toAPIWallet(wallet)}), nil
}

// GetWallet returns the caller's wallet.
func (s *WalletService) GetWallet(ctx context.Context, req *connect.Request[api.GetWalletRequest]) (*connect.Response[api.GetWalletResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	wallet, err := s.store.GetWalletByUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetWalletResponse{Wallet: toAPIWallet(wallet)}), nil
}

// AddFunds opens a processor intent for a card deposit and records it as
// pending. The balance is credited when the processor confirms the intent.
func (s *WalletService) AddFunds(ctx context.Context, req *connect.Request[api.AddFundsRequest]) (*connect.Response[api.AddFundsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	amount, err := calculator.NormalizeAmount(req.Msg.Amount)
	if err != nil {
		return nil, toConnectError(err)
	}

	wallet, err := s.store.GetWalletByUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}

	intent, err := s.processor.CreateIntent(ctx, payments.IntentRequest{
		Amount:   amount,
		Currency: s.currency,
		Metadata: map[string]string{"wallet_id": wallet.ID, "user_id": userID, "kind": "deposit"},
	})
	if err != nil {
		slog.Error("AddFunds: payment intent failed", "wallet_id", wallet.ID, "error", err)
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}

	wtx, err := s.store.CreateDeposit(ctx, wallet.ID, amount, intent.ID)
	if err != nil {
		slog.Error("AddFunds: failed to record deposit", "wallet_id", wallet.ID, "intent_id", intent.ID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("Deposit started", "wallet_id", wallet.ID, "amount", amount, "intent_id", intent.ID)
	return connect.NewResponse(&api.AddFundsResponse{
		Transaction:  toAPIWalletTx(wtx),
		ClientSecret: intent.ClientSecret,
	}), nil
}

// Transfer moves money from the caller's wallet to another user's.
func (s *WalletService) Transfer(ctx context.Context, req *connect.Request[api.TransferRequest]) (*connect.Response[api.TransferResponse], error) {
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

	if err := s.store.Transfer(ctx, userID, req.Msg.ToUserID, amount); err != nil {
		slog.Warn("Transfer failed", "from", userID, "to", req.Msg.ToUserID, "error", err)
		return nil, toConnectError(err)
	}

	wallet, err := s.store.GetWalletByUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	slog.Info("Transfer completed", "from", userID, "to", req.Msg.ToUserID, "amount", amount)
	return connect.NewResponse(&api.TransferResponse{Wallet: toAPIWallet(wallet)}), nil
}

// ListTransactions returns the caller's wallet history, newest first.
func (s *WalletService) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	wallet, err := s.store.GetWalletByUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	txs, err := s.store.ListWalletTransactions(ctx, wallet.ID)
	if err != nil {
		slog.Error("ListTransactions failed", "wallet_id", wallet.ID, "error", err)
		return nil, toConnectError(err)
	}

	out := make([]*api.WalletTransaction, 0, len(txs))
	for _, t := range txs {
		out = append(out, toAPIWalletTx(t))
	}
	return connect.NewResponse(&api.ListTransactionsResponse{Transactions: out}), nil
}

// GetRewards returns the caller's loyalty points, level and their cash value.
func (s *WalletService) GetRewards(ctx context.Context, req *connect.Request[api.GetRewardsRequest]) (*connect.Response[api.GetRewardsResponse], error) {
	userID, err := requireUser(ctx)
	if err != nil {
		return nil, err
	}

	wallet, err := s.store.GetWalletByUser(ctx, userID)
	if err != nil {
		return nil, toConnectError(err)
	}
	rewards, err := s.store.GetRewards(ctx, wallet.ID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&api.GetRewardsResponse{
		Points:    rewards.Points,
		Level:     rewards.Level,
		CashValue: calculator.RewardCashValue(rewards.Points),
	}), nil
}
