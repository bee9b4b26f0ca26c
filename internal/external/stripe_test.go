package external

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub/internal/types"
)

// newTestStripeClient points a StripeClient at a local test server with
// retry sleeps disabled.
func newTestStripeClient(t *testing.T, handler http.HandlerFunc) (*StripeClient, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	base := NewBaseClient(
		server.Client(),
		"stripe-test",
		RetryPolicy{MaxRetries: 2, MinWait: time.Millisecond, MaxWait: time.Millisecond},
		"CourseHub/1.0",
		WithSleepFunc(func(time.Duration) {}),
	)

	client := NewStripeClientWithBase(base, StripeClientConfig{
		SecretKey: "sk_test_123",
		BaseURL:   server.URL,
	})
	return client, server
}

func TestStripeClient_CreateCheckoutSession(t *testing.T) {
	var gotForm map[string]string
	var gotAuth string

	client, _ := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"mode":                 r.PostFormValue("mode"),
			"success_url":          r.PostFormValue("success_url"),
			"unit_amount":          r.PostFormValue("line_items[0][price_data][unit_amount]"),
			"product_name":         r.PostFormValue("line_items[0][price_data][product_data][name]"),
			"metadata[purchaseId]": r.PostFormValue("metadata[purchaseId]"),
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "cs_test_abc",
			"url": "https://checkout.stripe.test/pay/cs_test_abc",
			"payment_intent": "pi_test_1",
			"metadata": {"purchaseId": "pur_1"}
		}`))
	})

	sess, err := client.CreateCheckoutSession(context.Background(), CheckoutParams{
		PurchaseID:  "pur_1",
		CourseTitle: "Intro to Distributed Systems",
		AmountCents: 4999,
		SuccessURL:  "https://app.test/success",
		CancelURL:   "https://app.test/cancel",
	})
	require.NoError(t, err)

	assert.Equal(t, "cs_test_abc", sess.ID)
	assert.Equal(t, "https://checkout.stripe.test/pay/cs_test_abc", sess.URL)
	assert.Equal(t, "pi_test_1", sess.PaymentIntentID)
	assert.Equal(t, "pur_1", sess.PurchaseID)

	assert.Equal(t, "Bearer sk_test_123", gotAuth)
	assert.Equal(t, "payment", gotForm["mode"])
	assert.Equal(t, "https://app.test/success", gotForm["success_url"])
	assert.Equal(t, "4999", gotForm["unit_amount"])
	assert.Equal(t, "Intro to Distributed Systems", gotForm["product_name"])
	assert.Equal(t, "pur_1", gotForm["metadata[purchaseId]"])
}

func TestStripeClient_FindSessionByPaymentIntent(t *testing.T) {
	client, _ := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.Equal(t, "pi_test_1", r.URL.Query().Get("payment_intent"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [{
				"id": "cs_test_abc",
				"payment_intent": "pi_test_1",
				"metadata": {"purchaseId": "pur_1"}
			}],
			"has_more": false
		}`))
	})

	sess, err := client.FindSessionByPaymentIntent(context.Background(), "pi_test_1")
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "cs_test_abc", sess.ID)
	assert.Equal(t, "pur_1", sess.PurchaseID)
}

func TestStripeClient_FindSessionByPaymentIntent_NoMatch(t *testing.T) {
	client, _ := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [], "has_more": false}`))
	})

	sess, err := client.FindSessionByPaymentIntent(context.Background(), "pi_unknown")
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestStripeClient_CardDeclined(t *testing.T) {
	client, _ := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{
			"error": {
				"type": "card_error",
				"code": "card_declined",
				"decline_code": "insufficient_funds",
				"message": "Your card has insufficient funds."
			}
		}`))
	})

	_, err := client.CreateCheckoutSession(context.Background(), CheckoutParams{
		PurchaseID: "pur_1", CourseTitle: "t", AmountCents: 100,
	})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodePaymentDeclined, appErr.Code)
	assert.Equal(t, "insufficient_funds", appErr.Details["decline_code"])
}

func TestStripeClient_InvalidRequest(t *testing.T) {
	client, _ := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{
			"error": {
				"type": "invalid_request_error",
				"message": "Missing required param: success_url."
			}
		}`))
	})

	_, err := client.CreateCheckoutSession(context.Background(), CheckoutParams{PurchaseID: "pur_1"})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamStripe, appErr.Code)
}

func TestStripeClient_RetriesServerErrors(t *testing.T) {
	attempts := 0
	client, _ := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data": [], "has_more": false}`))
	})

	sess, err := client.FindSessionByPaymentIntent(context.Background(), "pi_test_1")
	require.NoError(t, err)
	assert.Nil(t, sess)
	assert.Equal(t, 2, attempts)
}

func TestStripeClient_ExhaustedRetries(t *testing.T) {
	attempts := 0
	client, _ := newTestStripeClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FindSessionByPaymentIntent(context.Background(), "pi_test_1")
	require.Error(t, err)
	assert.Equal(t, 3, attempts)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeUpstreamUnavailable, appErr.Code)
}
