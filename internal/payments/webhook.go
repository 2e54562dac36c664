package payments

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mmynk/tripfund/internal/storage"
)

const maxWebhookBody = 64 << 10

// Confirmer settles whatever was waiting on an intent.
type Confirmer interface {
	ConfirmIntent(ctx context.Context, intentID string) error
	FailIntent(ctx context.Context, intentID string) error
}

// WebhookHandler receives processor events and forwards them to a Confirmer.
type WebhookHandler struct {
	processor Processor
	confirmer Confirmer
}

// NewWebhookHandler creates the webhook endpoint.
func NewWebhookHandler(processor Processor, confirmer Confirmer) *WebhookHandler {
	return &WebhookHandler{processor: processor, confirmer: confirmer}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	event, err := h.processor.VerifyEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		slog.Warn("Webhook rejected", "error", err)
		http.Error(w, "invalid event", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case EventSucceeded:
		err = h.confirmer.ConfirmIntent(r.Context(), event.IntentID)
	case EventFailed:
		err = h.confirmer.FailIntent(r.Context(), event.IntentID)
	default:
		slog.Debug("Webhook event ignored", "type", event.Type)
		w.WriteHeader(http.StatusOK)
		return
	}

	// Unknown or already settled intents are acknowledged so the processor stops retrying
	if errors.Is(err, storage.ErrNotFound) {
		slog.Warn("Webhook for unknown intent", "type", event.Type, "intent_id", event.IntentID)
		err = nil
	}
	if err != nil {
		slog.Error("Webhook handling failed", "type", event.Type, "intent_id", event.IntentID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	slog.Info("Webhook handled", "type", event.Type, "intent_id", event.IntentID)
	w.WriteHeader(http.StatusOK)
}
