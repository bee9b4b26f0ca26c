// This file implements the Stripe webhook handler. The endpoint is NOT
// behind auth middleware -- it is called directly by Stripe. Security is
// provided by verifying the Stripe-Signature header using HMAC-SHA256.
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursehub/internal/core"
	"coursehub/internal/external"
	"coursehub/internal/settlement"
	"coursehub/internal/types"
)

// Settler is the subset of the settlement engine the webhook handler depends
// on.
type Settler interface {
	Settle(ctx context.Context, purchaseID string, outcome types.PurchaseOutcome) (settlement.Result, error)
}

// StripeWebhookHandler handles asynchronous payment events from Stripe and
// feeds them into the settlement engine.
type StripeWebhookHandler struct {
	verifier external.WebhookVerifier
	payments external.PaymentService
	settler  Settler
	secret   string
	metrics  WebhookMetrics
	logger   *slog.Logger
}

// NewStripeWebhookHandler creates a StripeWebhookHandler with the provided
// dependencies. metrics may be nil.
func NewStripeWebhookHandler(
	verifier external.WebhookVerifier,
	payments external.PaymentService,
	settler Settler,
	secret string,
	metrics WebhookMetrics,
	logger *slog.Logger,
) *StripeWebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StripeWebhookHandler{
		verifier: verifier,
		payments: payments,
		settler:  settler,
		secret:   secret,
		metrics:  metrics,
		logger:   logger,
	}
}

// RegisterRoutes mounts the Stripe webhook endpoint. Webhook routes are
// public (no auth middleware) and live outside the /v1 group.
func (h *StripeWebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/stripe", h.Handle)
}

// Handle processes incoming Stripe webhook events.
//
//  1. Reads the raw body with a size limit.
//  2. Verifies the Stripe-Signature header.
//  3. Parses the event envelope and maps the event type to a payment outcome.
//  4. Resolves the checkout session for the event's payment intent and reads
//     the purchase ID from its metadata.
//  5. Runs settlement, then acknowledges with {"received": true}.
//
// Unlike the identity path, processing failures past signature verification
// are logged and acknowledged with 200: Stripe redelivers on non-2xx, and a
// redelivered payment event hitting the same wedged settlement would loop
// forever. The terminal-state guard makes the eventual manual replay safe.
func (h *StripeWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodySize)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.logger.WarnContext(r.Context(), "failed to read webhook body",
			"error", err,
		)
		core.Error(w, r, types.NewAppError(
			types.ErrCodeWebhookPayloadInvalid,
			"failed to read request body",
			err,
		))
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")
	if sigHeader == "" {
		h.logger.WarnContext(r.Context(), "missing Stripe-Signature header")
		h.record("", "rejected")
		core.Error(w, r, types.NewAppError(
			types.ErrCodeWebhookSignatureMissing,
			"missing Stripe-Signature header",
			nil,
		))
		return
	}

	if err := h.verifier.Verify(payload, sigHeader, h.secret); err != nil {
		h.logger.WarnContext(r.Context(), "webhook signature verification failed",
			"error", err,
		)
		h.record("", "rejected")
		core.Error(w, r, types.NewAppError(
			types.ErrCodeWebhookSignatureInvalid,
			"webhook signature verification failed",
			err,
		))
		return
	}

	var event paymentEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.WarnContext(r.Context(), "failed to parse webhook event JSON",
			"error", err,
		)
		h.record("", "rejected")
		core.Error(w, r, types.NewAppError(
			types.ErrCodeWebhookPayloadInvalid,
			"invalid webhook event JSON",
			err,
		))
		return
	}

	h.logger.InfoContext(r.Context(), "processing payment webhook event",
		"event_id", event.ID,
		"event_type", event.Type,
	)

	outcome, handled := outcomeForEventType(event.Type)
	if !handled {
		h.logger.InfoContext(r.Context(), "ignoring unhandled payment event type",
			"event_type", event.Type,
		)
		h.record(event.Type, "ignored")
		core.JSON(w, r, http.StatusOK, webhookAck{Received: true})
		return
	}

	intentID := event.paymentIntentID()
	if intentID == "" {
		h.logger.WarnContext(r.Context(), "payment event has no payment intent ID",
			"event_id", event.ID,
			"event_type", event.Type,
		)
		h.record(event.Type, "rejected")
		core.Error(w, r, types.NewAppError(
			types.ErrCodeWebhookPayloadInvalid,
			"payment event has no payment intent ID",
			nil,
		))
		return
	}

	if err := h.settleIntent(r.Context(), &event, intentID, outcome); err != nil {
		h.logger.ErrorContext(r.Context(), "payment event processing failed",
			"event_id", event.ID,
			"event_type", event.Type,
			"payment_intent_id", intentID,
			"error", err,
		)
		h.record(event.Type, "failed")
		// Acknowledge anyway; see the Handle doc comment.
	} else {
		h.record(event.Type, "processed")
	}

	core.JSON(w, r, http.StatusOK, webhookAck{Received: true})
}

// settleIntent resolves the payment intent to a purchase and settles it.
// Resolution gaps (no session, no purchase ID in metadata) are logged no-ops:
// the intent may belong to another product sharing the Stripe account.
func (h *StripeWebhookHandler) settleIntent(ctx context.Context, event *paymentEvent, intentID string, outcome types.PurchaseOutcome) error {
	session, err := h.payments.FindSessionByPaymentIntent(ctx, intentID)
	if err != nil {
		return err
	}
	if session == nil || session.PurchaseID == "" {
		h.logger.WarnContext(ctx, "no purchase resolvable for payment intent",
			"event_id", event.ID,
			"payment_intent_id", intentID,
		)
		return nil
	}

	_, err = h.settler.Settle(ctx, session.PurchaseID, outcome)
	return err
}

// outcomeForEventType maps the Stripe event type to the payment outcome it
// reports. The second return is false for event types the pipeline ignores.
func outcomeForEventType(eventType string) (types.PurchaseOutcome, bool) {
	switch eventType {
	case external.EventStripePaymentSucceeded:
		return types.OutcomeSucceeded, true
	case external.EventStripePaymentFailed:
		return types.OutcomeFailed, true
	default:
		return "", false
	}
}

func (h *StripeWebhookHandler) record(eventType, disposition string) {
	if h.metrics != nil {
		h.metrics.RecordWebhookEvent("stripe", eventType, disposition)
	}
}
