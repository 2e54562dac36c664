package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeProcessor implements Processor with Stripe PaymentIntents.
type StripeProcessor struct {
	api           *client.API
	webhookSecret string
}

var _ Processor = (*StripeProcessor)(nil)

// NewStripeProcessor creates a processor using the given secret API key and
// webhook signing secret.
func NewStripeProcessor(secretKey, webhookSecret string) *StripeProcessor {
	return &StripeProcessor{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

// CreateIntent opens a PaymentIntent for the amount.
func (p *StripeProcessor) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(MinorUnits(req.Amount)),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

// VerifyEvent checks the Stripe-Signature header and extracts the intent the
// event refers to.
func (p *StripeProcessor) VerifyEvent(payload []byte, signature string) (Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := Event{Type: string(event.Type)}
	if out.Type != EventSucceeded && out.Type != EventFailed {
		return out, nil
	}

	var pi stripe.PaymentIntent
	if event.Data == nil {
		return Event{}, fmt.Errorf("event %s has no data", event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return Event{}, fmt.Errorf("failed to decode payment intent: %w", err)
	}
	out.IntentID = pi.ID
	return out, nil
}
