package external

import (
	"context"
	"fmt"
	"log/slog"
)

// ---------------------------------------------------------------------------
// Stub Implementations
//
// Stub implementations allow the application to boot in local/test mode
// without requiring real external service credentials. They log all actions
// and return predictable, safe default values.
// ---------------------------------------------------------------------------

// StubPaymentService implements PaymentService by logging calls and returning
// test-safe defaults. Used when config.IsTestMode is true or APP_ENV=local.
type StubPaymentService struct {
	logger *slog.Logger
}

// NewStubPaymentService creates a new StubPaymentService.
func NewStubPaymentService(logger *slog.Logger) *StubPaymentService {
	return &StubPaymentService{logger: logger}
}

func (s *StubPaymentService) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	s.logger.InfoContext(ctx, "stub: CreateCheckoutSession called",
		"purchase_id", params.PurchaseID,
		"amount_cents", params.AmountCents,
	)
	return &CheckoutSession{
		ID:         fmt.Sprintf("cs_stub_%s", params.PurchaseID),
		URL:        "https://checkout.stub.local/session",
		PurchaseID: params.PurchaseID,
	}, nil
}

func (s *StubPaymentService) FindSessionByPaymentIntent(ctx context.Context, paymentIntentID string) (*CheckoutSession, error) {
	s.logger.InfoContext(ctx, "stub: FindSessionByPaymentIntent called",
		"payment_intent_id", paymentIntentID,
	)
	return &CheckoutSession{
		ID:              fmt.Sprintf("cs_stub_%s", paymentIntentID),
		PaymentIntentID: paymentIntentID,
		PurchaseID:      fmt.Sprintf("purchase_stub_%s", paymentIntentID),
	}, nil
}

// StubWebhookVerifier implements WebhookVerifier by always succeeding.
// Used when config.IsTestMode is true or APP_ENV=local.
type StubWebhookVerifier struct {
	logger *slog.Logger
}

// NewStubWebhookVerifier creates a new StubWebhookVerifier.
func NewStubWebhookVerifier(logger *slog.Logger) *StubWebhookVerifier {
	return &StubWebhookVerifier{logger: logger}
}

func (s *StubWebhookVerifier) Verify(payload []byte, header string, secret string) error {
	s.logger.Info("stub: Stripe webhook Verify called",
		"payload_len", len(payload),
	)
	return nil
}

// StubIdentityVerifier implements IdentityVerifier by always succeeding.
// Used when config.IsTestMode is true or APP_ENV=local.
type StubIdentityVerifier struct {
	logger *slog.Logger
}

// NewStubIdentityVerifier creates a new StubIdentityVerifier.
func NewStubIdentityVerifier(logger *slog.Logger) *StubIdentityVerifier {
	return &StubIdentityVerifier{logger: logger}
}

func (s *StubIdentityVerifier) Verify(payload []byte, msgID, timestamp, signature string, secret string) error {
	s.logger.Info("stub: Clerk webhook Verify called",
		"payload_len", len(payload),
		"msg_id", msgID,
	)
	return nil
}

// ---------------------------------------------------------------------------
// Interface Compliance
// ---------------------------------------------------------------------------

var _ PaymentService = (*StubPaymentService)(nil)
var _ WebhookVerifier = (*StubWebhookVerifier)(nil)
var _ IdentityVerifier = (*StubIdentityVerifier)(nil)
