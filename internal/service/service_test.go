package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/mmynk/tripfund/internal/metrics"
	"github.com/mmynk/tripfund/internal/middleware"
	"github.com/mmynk/tripfund/internal/payments"
	"github.com/mmynk/tripfund/internal/storage/sqlite"
	"github.com/mmynk/tripfund/pkg/api"
)

// testUserHeader names the caller in tests; requests without it act as alice.
const testUserHeader = "X-Test-User"

var fixedNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

// testAuthInterceptor returns a Connect interceptor that sets the test user in the context.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			user := req.Header().Get(testUserHeader)
			if user == "" {
				user = "alice"
			}
			return next(middleware.WithUser(ctx, user, user+"@example.com"), req)
		}
	}
}

// as builds a request sent by user.
func as[T any](user string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set(testUserHeader, user)
	return req
}

// stubProcessor opens fake intents and accepts webhook payloads of the form
// "<event type> <intent id>" signed with "valid".
type stubProcessor struct {
	mu      sync.Mutex
	n       int
	intents []payments.IntentRequest
	err     error
}

func (p *stubProcessor) CreateIntent(_ context.Context, req payments.IntentRequest) (*payments.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.n++
	p.intents = append(p.intents, req)
	id := fmt.Sprintf("pi_test_%d", p.n)
	return &payments.Intent{ID: id, ClientSecret: id + "_secret", Status: "requires_payment_method"}, nil
}

func (p *stubProcessor) VerifyEvent(payload []byte, signature string) (payments.Event, error) {
	if signature != "valid" {
		return payments.Event{}, payments.ErrInvalidSignature
	}
	typ, id, ok := strings.Cut(string(payload), " ")
	if !ok {
		return payments.Event{}, payments.ErrInvalidSignature
	}
	return payments.Event{Type: typ, IntentID: id}, nil
}

func (p *stubProcessor) lastIntentID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("pi_test_%d", p.n)
}

type testEnv struct {
	url       string
	store     *sqlite.SQLiteStore
	processor *stubProcessor
	registry  *prometheus.Registry

	trips    *api.TripServiceClient
	expenses *api.ExpenseServiceClient
	savings  *api.SavingsServiceClient
	budgets  *api.BudgetServiceClient
	wallets  *api.WalletServiceClient
	payments *api.PaymentServiceClient
}

// setupTestServer serves every domain service over a temp-file SQLite database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	tmpFile, err := os.CreateTemp("", "test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpFile.Close()

	store, err := sqlite.New(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		t.Fatalf("failed to create store: %v", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	processor := &stubProcessor{}

	savingsSvc := NewSavingsService(store)
	savingsSvc.now = func() time.Time { return fixedNow }
	budgetSvc := NewBudgetService(store)
	budgetSvc.now = func() time.Time { return fixedNow }
	paymentSvc := NewPaymentService(store, processor, "usd", m)

	authInterceptor := connect.WithInterceptors(testAuthInterceptor())
	mux := http.NewServeMux()
	mux.Handle(api.NewTripServiceHandler(NewTripService(store), authInterceptor))
	mux.Handle(api.NewExpenseServiceHandler(NewExpenseService(store, m), authInterceptor))
	mux.Handle(api.NewSavingsServiceHandler(savingsSvc, authInterceptor))
	mux.Handle(api.NewBudgetServiceHandler(budgetSvc, authInterceptor))
	mux.Handle(api.NewWalletServiceHandler(NewWalletService(store, processor, "usd"), authInterceptor))
	mux.Handle(api.NewPaymentServiceHandler(paymentSvc, authInterceptor))
	mux.Handle("/webhooks/payments", payments.NewWebhookHandler(processor, paymentSvc))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
		os.Remove(tmpFile.Name())
	})

	return &testEnv{
		url:       server.URL,
		store:     store,
		processor: processor,
		registry:  registry,
		trips:     api.NewTripServiceClient(http.DefaultClient, server.URL),
		expenses:  api.NewExpenseServiceClient(http.DefaultClient, server.URL),
		savings:   api.NewSavingsServiceClient(http.DefaultClient, server.URL),
		budgets:   api.NewBudgetServiceClient(http.DefaultClient, server.URL),
		wallets:   api.NewWalletServiceClient(http.DefaultClient, server.URL),
		payments:  api.NewPaymentServiceClient(http.DefaultClient, server.URL),
	}
}

// postWebhook delivers a processor event to the webhook endpoint.
func (e *testEnv) postWebhook(t *testing.T, eventType, intentID, signature string) int {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, e.url+"/webhooks/payments", strings.NewReader(eventType+" "+intentID))
	if err != nil {
		t.Fatalf("failed to build webhook request: %v", err)
	}
	req.Header.Set("Stripe-Signature", signature)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("webhook request failed: %v", err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

// createTrip creates a trip as creator and accepts every member.
func (e *testEnv) createTrip(t *testing.T, creator string, members ...string) *api.Trip {
	t.Helper()
	ctx := context.Background()

	resp, err := e.trips.CreateTrip(ctx, as(creator, &api.CreateTripRequest{
		StartPoint:      "Lisbon",
		Destination:     "Porto",
		StartDate:       fixedNow.AddDate(0, 1, 0),
		DurationDays:    4,
		MaxParticipants: 6,
		EstimatedCost:   d("1200"),
	}))
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	tripID := resp.Msg.Trip.ID

	for _, m := range members {
		if _, err := e.trips.JoinTrip(ctx, as(m, &api.JoinTripRequest{TripID: tripID})); err != nil {
			t.Fatalf("JoinTrip(%s) failed: %v", m, err)
		}
		if _, err := e.trips.ReviewParticipant(ctx, as(creator, &api.ReviewParticipantRequest{
			TripID: tripID, UserID: m, Accept: true,
		})); err != nil {
			t.Fatalf("ReviewParticipant(%s) failed: %v", m, err)
		}
	}

	got, err := e.trips.GetTrip(ctx, as(creator, &api.GetTripRequest{TripID: tripID}))
	if err != nil {
		t.Fatalf("GetTrip failed: %v", err)
	}
	return got.Msg.Trip
}

// fundWallet opens a wallet for user and, unless amount is empty, confirms a deposit of amount.
func (e *testEnv) fundWallet(t *testing.T, user, amount string) {
	t.Helper()
	if _, err := e.wallets.CreateWallet(context.Background(), as(user, &api.CreateWalletRequest{})); err != nil {
		t.Fatalf("CreateWallet(%s) failed: %v", user, err)
	}
	if amount != "" {
		e.topUp(t, user, amount)
	}
}

// topUp deposits amount into user's existing wallet and confirms it.
func (e *testEnv) topUp(t *testing.T, user, amount string) {
	t.Helper()
	if _, err := e.wallets.AddFunds(context.Background(), as(user, &api.AddFundsRequest{Amount: d(amount)})); err != nil {
		t.Fatalf("AddFunds(%s) failed: %v", user, err)
	}
	if code := e.postWebhook(t, payments.EventSucceeded, e.processor.lastIntentID(), "valid"); code != http.StatusOK {
		t.Fatalf("deposit confirmation: got status %d", code)
	}
}

func (e *testEnv) balance(t *testing.T, user string) decimal.Decimal {
	t.Helper()
	resp, err := e.wallets.GetWallet(context.Background(), as(user, &api.GetWalletRequest{}))
	if err != nil {
		t.Fatalf("GetWallet(%s) failed: %v", user, err)
	}
	return resp.Msg.Wallet.Balance
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect error, got %T: %v", err, err)
	}
	if connectErr.Code() != want {
		t.Errorf("expected code %v, got %v (%v)", want, connectErr.Code(), err)
	}
}

func assertAmount(t *testing.T, what string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s: got %s, want %s", what, got, want)
	}
}
