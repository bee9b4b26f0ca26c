package external

import (
	"log/slog"
	"net/http"
	"time"

	"coursehub/internal/config"
)

// ---------------------------------------------------------------------------
// Client Registry
//
// Central factory that instantiates all external service clients based on
// configuration. In test/local mode, returns stub implementations that log
// actions without requiring real credentials. In production mode, returns
// real client implementations with strict timeouts.
// ---------------------------------------------------------------------------

// ClientRegistry holds all external service client interfaces. It is the
// single point of access for the rest of the application to interact with
// third-party services (Stripe, Clerk).
type ClientRegistry struct {
	Payments PaymentService

	// Verifiers
	PaymentVerifier  WebhookVerifier
	IdentityVerifier IdentityVerifier
}

// NewClientRegistry initializes all external service clients. If
// cfg.IsTestMode is true or cfg.Environment is "local", the registry is
// populated with stub implementations that log actions without requiring
// real credentials. Otherwise, real client implementations are initialized
// with strict timeouts per provider.
func NewClientRegistry(cfg *config.Config, logger *slog.Logger) *ClientRegistry {
	if logger == nil {
		logger = slog.Default()
	}

	useStubs := cfg.IsTestMode || cfg.Environment == "local"

	if useStubs {
		logger.Info("initializing external clients in STUB mode",
			"is_test_mode", cfg.IsTestMode,
			"environment", cfg.Environment,
		)
		return newStubRegistry(logger)
	}

	logger.Info("initializing external clients in PRODUCTION mode",
		"environment", cfg.Environment,
	)
	return newProductionRegistry(cfg, logger)
}

// newStubRegistry creates a ClientRegistry populated entirely with stub
// implementations. This allows the application to boot locally without any
// external service credentials.
func newStubRegistry(logger *slog.Logger) *ClientRegistry {
	stubLogger := logger.With("mode", "stub")

	return &ClientRegistry{
		Payments:         NewStubPaymentService(stubLogger),
		PaymentVerifier:  NewStubWebhookVerifier(stubLogger),
		IdentityVerifier: NewStubIdentityVerifier(stubLogger),
	}
}

// newProductionRegistry creates a ClientRegistry with real client
// implementations configured with strict timeouts and resilience patterns.
func newProductionRegistry(cfg *config.Config, logger *slog.Logger) *ClientRegistry {
	// Checkout session creation sits on the request path, so the Stripe
	// client keeps a strict timeout.
	stripeHTTPClient := &http.Client{Timeout: 20 * time.Second}

	return &ClientRegistry{
		Payments: NewStripeClient(stripeHTTPClient, StripeClientConfig{
			SecretKey: cfg.Billing.StripeSecretKey.Unmask(),
			Logger:    logger.With("client", "stripe"),
		}),
		PaymentVerifier:  &StripeVerifier{},
		IdentityVerifier: NewClerkVerifier(),
	}
}
