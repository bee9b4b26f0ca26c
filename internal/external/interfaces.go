package external

import (
	"context"
)

// ---------------------------------------------------------------------------
// Payments Integration (Stripe)
// ---------------------------------------------------------------------------

// CheckoutSession is the provider-neutral view of a hosted checkout session.
// PurchaseID carries the correlation identifier stamped into the session
// metadata at creation time; it is how a payment event is traced back to the
// purchase it settles.
type CheckoutSession struct {
	ID              string
	URL             string
	PaymentIntentID string
	PurchaseID      string
}

// CheckoutParams describes the session to create for a course purchase.
type CheckoutParams struct {
	PurchaseID  string
	CourseTitle string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
}

// PaymentService abstracts interactions with the payment provider (Stripe).
// Implementations translate between domain types and vendor-specific APIs.
type PaymentService interface {
	// CreateCheckoutSession creates a hosted checkout session for a pending
	// purchase. The purchase ID is stamped into the session metadata so
	// payment webhook events can be correlated back to the purchase.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)

	// FindSessionByPaymentIntent looks up the checkout session associated
	// with a payment intent. Returns (nil, nil) when the provider knows no
	// session for the intent; the caller decides how to treat that gap.
	FindSessionByPaymentIntent(ctx context.Context, paymentIntentID string) (*CheckoutSession, error)
}

// WebhookVerifier abstracts Stripe webhook signature checking.
type WebhookVerifier interface {
	// Verify validates a webhook payload against the provided signature
	// header and signing secret. Returns nil on success, an error on failure.
	Verify(payload []byte, header string, secret string) error
}

// IdentityVerifier abstracts identity-provider (svix-style) webhook signature
// checking. The scheme signs three values, not just the body, so its shape
// differs from WebhookVerifier.
type IdentityVerifier interface {
	// Verify validates a webhook payload against the svix message ID,
	// timestamp, and signature headers using the endpoint signing secret.
	// Returns nil on success, an error on failure.
	Verify(payload []byte, msgID, timestamp, signature string, secret string) error
}

// Payment event type constants prevent magic strings in webhook handlers.
const (
	EventStripePaymentSucceeded = "payment_intent.succeeded"
	EventStripePaymentFailed    = "payment_intent.payment_failed"
)

// Identity event type constants for the Clerk webhook handler.
const (
	EventClerkUserCreated = "user.created"
	EventClerkUserUpdated = "user.updated"
	EventClerkUserDeleted = "user.deleted"
)
