package api

import (
	"context"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
)

// TripServiceName is the fully-qualified name of the TripService.
const TripServiceName = "tripfund.v1.TripService"

const (
	TripServiceCreateTripProcedure        = "/tripfund.v1.TripService/CreateTrip"
	TripServiceGetTripProcedure           = "/tripfund.v1.TripService/GetTrip"
	TripServiceJoinTripProcedure          = "/tripfund.v1.TripService/JoinTrip"
	TripServiceReviewParticipantProcedure = "/tripfund.v1.TripService/ReviewParticipant"
)

type Participant struct {
	UserID   string    `json:"user_id"`
	Status   string    `json:"status"`
	JoinedAt time.Time `json:"joined_at"`
}

type Trip struct {
	ID              string          `json:"id"`
	CreatorID       string          `json:"creator_id"`
	StartPoint      string          `json:"start_point"`
	Destination     string          `json:"destination"`
	StartDate       time.Time       `json:"start_date"`
	DurationDays    int             `json:"duration_days"`
	MaxParticipants int             `json:"max_participants"`
	EstimatedCost   decimal.Decimal `json:"estimated_cost"`
	Requirements    string          `json:"requirements,omitempty"`
	Participants    []*Participant  `json:"participants"`
	CreatedAt       time.Time       `json:"created_at"`
}

type CreateTripRequest struct {
	StartPoint      string          `json:"start_point" validate:"required"`
	Destination     string          `json:"destination" validate:"required"`
	StartDate       time.Time       `json:"start_date" validate:"required"`
	DurationDays    int             `json:"duration_days" validate:"gt=0"`
	MaxParticipants int             `json:"max_participants" validate:"gt=0"`
	EstimatedCost   decimal.Decimal `json:"estimated_cost" validate:"gte=0"`
	Requirements    string          `json:"requirements"`
}

type CreateTripResponse struct {
	Trip *Trip `json:"trip"`
}

type GetTripRequest struct {
	TripID string `json:"trip_id" validate:"required"`
}

type GetTripResponse struct {
	Trip *Trip `json:"trip"`
}

type JoinTripRequest struct {
	TripID string `json:"trip_id" validate:"required"`
}

type JoinTripResponse struct {
	Trip *Trip `json:"trip"`
}

// ReviewParticipantRequest lets the trip creator accept or reject a pending participant.
type ReviewParticipantRequest struct {
	TripID string `json:"trip_id" validate:"required"`
	UserID string `json:"user_id" validate:"required"`
	Accept bool   `json:"accept"`
}

type ReviewParticipantResponse struct {
	Trip *Trip `json:"trip"`
}

// TripServiceHandler is implemented by the server side of TripService.
type TripServiceHandler interface {
	CreateTrip(context.Context, *connect.Request[CreateTripRequest]) (*connect.Response[CreateTripResponse], error)
	GetTrip(context.Context, *connect.Request[GetTripRequest]) (*connect.Response[GetTripResponse], error)
	JoinTrip(context.Context, *connect.Request[JoinTripRequest]) (*connect.Response[JoinTripResponse], error)
	ReviewParticipant(context.Context, *connect.Request[ReviewParticipantRequest]) (*connect.Response[ReviewParticipantResponse], error)
}

// NewTripServiceHandler builds an HTTP handler for TripService and returns
// the path to mount it on.
func NewTripServiceHandler(svc TripServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	route(mux, TripServiceCreateTripProcedure, svc.CreateTrip, opts)
	route(mux, TripServiceGetTripProcedure, svc.GetTrip, opts)
	route(mux, TripServiceJoinTripProcedure, svc.JoinTrip, opts)
	route(mux, TripServiceReviewParticipantProcedure, svc.ReviewParticipant, opts)
	return "/" + TripServiceName + "/", mux
}

// TripServiceClient calls TripService.
type TripServiceClient struct {
	createTrip        *connect.Client[CreateTripRequest, CreateTripResponse]
	getTrip           *connect.Client[GetTripRequest, GetTripResponse]
	joinTrip          *connect.Client[JoinTripRequest, JoinTripResponse]
	reviewParticipant *connect.Client[ReviewParticipantRequest, ReviewParticipantResponse]
}

// NewTripServiceClient returns a client for the TripService at baseURL.
func NewTripServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *TripServiceClient {
	opts = clientOptions(opts)
	return &TripServiceClient{
		createTrip:        unary[CreateTripRequest, CreateTripResponse](httpClient, baseURL, TripServiceCreateTripProcedure, opts),
		getTrip:           unary[GetTripRequest, GetTripResponse](httpClient, baseURL, TripServiceGetTripProcedure, opts),
		joinTrip:          unary[JoinTripRequest, JoinTripResponse](httpClient, baseURL, TripServiceJoinTripProcedure, opts),
		reviewParticipant: unary[ReviewParticipantRequest, ReviewParticipantResponse](httpClient, baseURL, TripServiceReviewParticipantProcedure, opts),
	}
}

func (c *TripServiceClient) CreateTrip(ctx context.Context, req *connect.Request[CreateTripRequest]) (*connect.Response[CreateTripResponse], error) {
	return c.createTrip.CallUnary(ctx, req)
}

func (c *TripServiceClient) GetTrip(ctx context.Context, req *connect.Request[GetTripRequest]) (*connect.Response[GetTripResponse], error) {
	return c.getTrip.CallUnary(ctx, req)
}

func (c *TripServiceClient) JoinTrip(ctx context.Context, req *connect.Request[JoinTripRequest]) (*connect.Response[JoinTripResponse], error) {
	return c.joinTrip.CallUnary(ctx, req)
}

func (c *TripServiceClient) ReviewParticipant(ctx context.Context, req *connect.Request[ReviewParticipantRequest]) (*connect.Response[ReviewParticipantResponse], error) {
	return c.reviewParticipant.CallUnary(ctx, req)
}
