// Package payments talks to the card payment processor: it opens payment
// intents for deposits and trip payments and turns processor webhooks into
// confirmations.
package payments

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Webhook event types acted upon. Anything else is acknowledged and ignored.
const (
	EventSucceeded = "payment_intent.succeeded"
	EventFailed    = "payment_intent.payment_failed"
)

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// IntentRequest describes a payment the user is about to make.
type IntentRequest struct {
	Amount   decimal.Decimal
	Currency string
	Metadata map[string]string
}

// Intent is the processor's handle on a pending payment.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Event is a verified processor notification about an intent.
type Event struct {
	Type     string
	IntentID string
}

// Processor opens payment intents and verifies the events sent back about them.
type Processor interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	VerifyEvent(payload []byte, signature string) (Event, error)
}

// MinorUnits converts a major-unit amount to the integer minor units
// processors bill in (12.34 -> 1234).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}
