// This file implements the Clerk webhook handler. The endpoint is NOT behind
// auth middleware -- it is called directly by the identity provider. Security
// is provided by verifying the svix signature headers against the endpoint
// signing secret.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursehub/internal/core"
	"coursehub/internal/external"
	"coursehub/internal/identity"
	"coursehub/internal/types"
)

// maxWebhookBodySize is the maximum allowed size of a webhook payload (64 KB).
// Provider webhook payloads are small; this limit protects against abuse.
const maxWebhookBodySize = 64 * 1024

// webhookAck is the body returned for every acknowledged webhook delivery.
type webhookAck struct {
	Received bool `json:"received"`
}

// WebhookMetrics records webhook processing telemetry. May be nil.
type WebhookMetrics interface {
	RecordWebhookEvent(provider, eventType, disposition string)
}

// IdentityService is the subset of the identity sync service the webhook
// handler depends on.
type IdentityService interface {
	SyncUser(ctx context.Context, profile identity.Profile) error
	DeleteUser(ctx context.Context, userID string) error
}

// ClerkWebhookHandler handles asynchronous identity events from Clerk.
type ClerkWebhookHandler struct {
	verifier external.IdentityVerifier
	service  IdentityService
	secret   string
	metrics  WebhookMetrics
	logger   *slog.Logger
}

// NewClerkWebhookHandler creates a ClerkWebhookHandler with the provided
// dependencies. metrics may be nil.
func NewClerkWebhookHandler(
	verifier external.IdentityVerifier,
	service IdentityService,
	secret string,
	metrics WebhookMetrics,
	logger *slog.Logger,
) *ClerkWebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClerkWebhookHandler{
		verifier: verifier,
		service:  service,
		secret:   secret,
		metrics:  metrics,
		logger:   logger,
	}
}

// RegisterRoutes mounts the Clerk webhook endpoint. Webhook routes are
// public (no auth middleware) and live outside the /v1 group.
func (h *ClerkWebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/clerk", h.Handle)
}

// Handle processes incoming Clerk webhook events.
//
//  1. Reads the raw body with a size limit. Verification needs the exact
//     byte sequence, so the body is never run through the JSON decoder first.
//  2. Verifies the svix signature headers.
//  3. Parses the event envelope and routes by event type.
//  4. Acknowledges with {"received": true}.
//
// Status codes steer the provider's redelivery: 400 for deliveries that can
// never succeed (bad signature, malformed payload), 500 for transient
// datastore failures worth redelivering, 200 otherwise.
func (h *ClerkWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
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

	msgID := r.Header.Get("svix-id")
	timestamp := r.Header.Get("svix-timestamp")
	signature := r.Header.Get("svix-signature")
	if msgID == "" || timestamp == "" || signature == "" {
		h.logger.WarnContext(r.Context(), "missing svix signature headers")
		h.record("", "rejected")
		core.Error(w, r, types.NewAppError(
			types.ErrCodeWebhookSignatureMissing,
			"missing svix signature headers",
			nil,
		))
		return
	}

	if err := h.verifier.Verify(payload, msgID, timestamp, signature, h.secret); err != nil {
		h.logger.WarnContext(r.Context(), "webhook signature verification failed",
			"svix_id", msgID,
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

	var event clerkEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		h.logger.WarnContext(r.Context(), "failed to parse webhook event JSON",
			"svix_id", msgID,
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

	h.logger.InfoContext(r.Context(), "processing identity webhook event",
		"svix_id", msgID,
		"event_type", event.Type,
	)

	if err := h.routeEvent(r.Context(), &event); err != nil {
		var appErr *types.AppError
		if errors.As(err, &appErr) && appErr.HTTPStatus() < 500 {
			// Payload defect: redelivery cannot fix it, reject outright.
			h.logger.WarnContext(r.Context(), "identity event rejected",
				"svix_id", msgID,
				"event_type", event.Type,
				"error", err,
			)
			h.record(event.Type, "rejected")
			core.Error(w, r, err)
			return
		}

		// Datastore failure: surface a 5xx so the provider redelivers and
		// the user store converges.
		h.logger.ErrorContext(r.Context(), "identity event processing failed",
			"svix_id", msgID,
			"event_type", event.Type,
			"error", err,
		)
		h.record(event.Type, "failed")
		core.Error(w, r, err)
		return
	}

	h.record(event.Type, "processed")
	core.JSON(w, r, http.StatusOK, webhookAck{Received: true})
}

// routeEvent dispatches the event by type. Unknown event types are
// acknowledged without action so new provider events never bounce.
func (h *ClerkWebhookHandler) routeEvent(ctx context.Context, event *clerkEvent) error {
	switch event.Type {
	case external.EventClerkUserCreated, external.EventClerkUserUpdated:
		data, err := h.decodeUserData(event)
		if err != nil {
			return err
		}
		return h.service.SyncUser(ctx, data.profile())

	case external.EventClerkUserDeleted:
		data, err := h.decodeUserData(event)
		if err != nil {
			return err
		}
		return h.service.DeleteUser(ctx, data.ID)

	default:
		h.logger.InfoContext(ctx, "ignoring unhandled identity event type",
			"event_type", event.Type,
		)
		return nil
	}
}

func (h *ClerkWebhookHandler) decodeUserData(event *clerkEvent) (*clerkUserData, error) {
	var data clerkUserData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return nil, types.NewAppError(
			types.ErrCodeWebhookPayloadInvalid,
			"invalid user object in identity event",
			err,
		)
	}
	return &data, nil
}

func (h *ClerkWebhookHandler) record(eventType, disposition string) {
	if h.metrics != nil {
		h.metrics.RecordWebhookEvent("clerk", eventType, disposition)
	}
}
