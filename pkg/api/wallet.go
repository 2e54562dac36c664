package api

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
)

// WalletServiceName is the fully-qualified name of the WalletService.
const WalletServiceName = "tripfund.v1.WalletService"

const (
	WalletServiceCreateWalletProcedure     = "/tripfund.v1.WalletService/CreateWallet"
	WalletServiceGetWalletProcedure        = "/tripfund.v1.WalletService/GetWallet"
	WalletServiceAddFundsProcedure         = "/tripfund.v1.WalletService/AddFunds"
	WalletServiceTransferProcedure         = "/tripfund.v1.WalletService/Transfer"
	WalletServiceListTransactionsProcedure = "/tripfund.v1.WalletService/ListTransactions"
	WalletServiceGetRewardsProcedure       = "/tripfund.v1.WalletService/GetRewards"
)

type Wallet struct {
	ID         string          `json:"id"`
	Balance    decimal.Decimal `json:"balance"`
	CardNumber string          `json:"card_number"`
	Status     string          `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

type WalletTransaction struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

type CreateWalletRequest struct{}

type CreateWalletResponse struct {
	Wallet *Wallet `json:"wallet"`
}

type GetWalletRequest struct{}

type GetWalletResponse struct {
	Wallet *Wallet `json:"wallet"`
}

// AddFundsRequest starts a card deposit. The wallet is credited once the
// processor confirms the payment through the webhook.
type AddFundsRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type AddFundsResponse struct {
	Transaction  *WalletTransaction `json:"transaction"`
	ClientSecret string             `json:"client_secret"`
}

type TransferRequest struct {
	ToUserID string          `json:"to_user_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
}

type TransferResponse struct {
	Wallet *Wallet `json:"wallet"`
}

type ListTransactionsRequest struct{}

type ListTransactionsResponse struct {
	Transactions []*WalletTransaction `json:"transactions"`
}

type GetRewardsRequest struct{}

type GetRewardsResponse struct {
	Points    decimal.Decimal `json:"points"`
	Level     string          `json:"level"`
	CashValue decimal.Decimal `json:"cash_value"`
}

// WalletServiceHandler is implemented by the server side of WalletService.
type WalletServiceHandler interface {
	CreateWallet(context.Context, *connect.Request[CreateWalletRequest]) (*connect.Response[CreateWalletResponse], error)
	GetWallet(context.Context, *connect.Request[GetWalletRequest]) (*connect.Response[GetWalletResponse], error)
	AddFunds(context.Context, *connect.Request[AddFundsRequest]) (*connect.Response[AddFundsResponse], error)
	Transfer(context.Context, *connect.Request[TransferRequest]) (*connect.Response[TransferResponse], error)
	ListTransactions(context.Context, *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error)
	GetRewards(context.Context, *connect.Request[GetRewardsRequest]) (*connect.Response[GetRewardsResponse], error)
}

// NewWalletServiceHandler builds an HTTP handler for WalletService and
// returns the path to mount it on.
func NewWalletServiceHandler(svc WalletServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, WalletServiceCreateWalletProcedure, svc.CreateWallet, opts)
	route(mux, WalletServiceGetWalletProcedure, svc.GetWallet, opts)
	route(mux, WalletServiceAddFundsProcedure, svc.AddFunds, opts)
	route(mux, WalletServiceTransferProcedure, svc.Transfer, opts)
	route(mux, WalletServiceListTransactionsProcedure, svc.ListTransactions, opts)
	route(mux, WalletServiceGetRewardsProcedure, svc.GetRewards, opts)
	return "/" + WalletServiceName + "/", mux
}

// WalletServiceClient calls WalletService.
type WalletServiceClient struct {
	createWallet     *connect.Client[CreateWalletRequest, CreateWalletResponse]
	getWallet        *connect.Client[GetWalletRequest, GetWalletResponse]
	addFunds         *connect.Client[AddFundsRequest, AddFundsResponse]
	transfer         *connect.Client[TransferRequest, TransferResponse]
	listTransactions *connect.Client[ListTransactionsRequest, ListTransactionsResponse]
	getRewards       *connect.Client[GetRewardsRequest, GetRewardsResponse]
}

// NewWalletServiceClient returns a client for the WalletService at baseURL.
func NewWalletServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *WalletServiceClient {
	opts = clientOptions(opts)
	return &WalletServiceClient{
		createWallet:     unary[CreateWalletRequest, CreateWalletResponse](httpClient, baseURL, WalletServiceCreateWalletProcedure, opts),
		getWallet:        unary[GetWalletRequest, GetWalletResponse](httpClient, baseURL, WalletServiceGetWalletProcedure, opts),
		addFunds:         unary[AddFundsRequest, AddFundsResponse](httpClient, baseURL, WalletServiceAddFundsProcedure, opts),
		transfer:         unary[TransferRequest, TransferResponse](httpClient, baseURL, WalletServiceTransferProcedure, opts),
		listTransactions: unary[ListTransactionsRequest, ListTransactionsResponse](httpClient, baseURL, WalletServiceListTransactionsProcedure, opts),
		getRewards:       unary[GetRewardsRequest, GetRewardsResponse](httpClient, baseURL, WalletServiceGetRewardsProcedure, opts),
	}
}

func (c *WalletServiceClient) CreateWallet(ctx context.Context, req *connect.Request[CreateWalletRequest]) (*connect.Response[CreateWalletResponse], error) {
	return c.createWallet.CallUnary(ctx, req)
}

func (c *WalletServiceClient) GetWallet(ctx context.Context, req *connect.Request[GetWalletRequest]) (*connect.Response[GetWalletResponse], error) {
	return c.getWallet.CallUnary(ctx, req)
}

func (c *WalletServiceClient) AddFunds(ctx context.Context, req *connect.Request[AddFundsRequest]) (*connect.Response[AddFundsResponse], error) {
	return c.addFunds.CallUnary(ctx, req)
}

func (c *WalletServiceClient) Transfer(ctx context.Context, req *connect.Request[TransferRequest]) (*connect.Response[TransferResponse], error) {
	return c.transfer.CallUnary(ctx, req)
}

func (c *WalletServiceClient) ListTransactions(ctx context.Context, req *connect.Request[ListTransactionsRequest]) (*connect.Response[ListTransactionsResponse], error) {
	return c.listTransactions.CallUnary(ctx, req)
}

func (c *WalletServiceClient) GetRewards(ctx context.Context, req *connect.Request[GetRewardsRequest]) (*connect.Response[GetRewardsResponse], error) {
	return c.getRewards.CallUnary(ctx, req)
}
