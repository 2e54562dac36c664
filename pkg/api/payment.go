package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
)

// PaymentServiceName is the fully-qualified name of the PaymentService.
const PaymentServiceName = "tripfund.v1.PaymentService"

const PaymentServiceCreatePaymentIntentProcedure = "/tripfund.v1.PaymentService/CreatePaymentIntent"

// CreatePaymentIntentRequest starts a card payment towards a trip.
type CreatePaymentIntentRequest struct {
	TripID string          `json:"trip_id" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

type CreatePaymentIntentResponse struct {
	PaymentID    string          `json:"payment_id"`
	ClientSecret string          `json:"client_secret"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
}

// PaymentServiceHandler is implemented by the server side of PaymentService.
type PaymentServiceHandler interface {
	CreatePaymentIntent(context.Context, *connect.Request[CreatePaymentIntentRequest]) (*connect.Response[CreatePaymentIntentResponse], error)
}

// NewPaymentServiceHandler builds an HTTP handler for PaymentService and
// returns the path to mount it on.
func NewPaymentServiceHandler(svc PaymentServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, PaymentServiceCreatePaymentIntentProcedure, svc.CreatePaymentIntent, opts)
	return "/" + PaymentServiceName + "/", mux
}

// PaymentServiceClient calls PaymentService.
type PaymentServiceClient struct {
	createPaymentIntent *connect.Client[CreatePaymentIntentRequest, CreatePaymentIntentResponse]
}

// NewPaymentServiceClient returns a client for the PaymentService at baseURL.
func NewPaymentServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *PaymentServiceClient {
	opts = clientOptions(opts)
	return &PaymentServiceClient{
		createPaymentIntent: unary[CreatePaymentIntentRequest, CreatePaymentIntentResponse](httpClient, baseURL, PaymentServiceCreatePaymentIntentProcedure, opts),
	}
}

func (c *PaymentServiceClient) CreatePaymentIntent(ctx context.Context, req *connect.Request[CreatePaymentIntentRequest]) (*connect.Response[CreatePaymentIntentResponse], error) {
	return c.createPaymentIntent.CallUnary(ctx, req)
}
