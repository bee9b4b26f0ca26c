package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub/internal/config"
	"coursehub/internal/core"
	"coursehub/internal/external"
	"coursehub/internal/types"
)

type fakePurchaseRepo struct {
	created   []*types.Purchase
	purchases map[string]*types.Purchase
	createErr error
}

func (f *fakePurchaseRepo) Create(ctx context.Context, purchase *types.Purchase) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, purchase)
	return nil
}

func (f *fakePurchaseRepo) GetByID(ctx context.Context, id string) (*types.Purchase, error) {
	purchase, ok := f.purchases[id]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeNotFoundPurchase, "purchase not found", nil)
	}
	return purchase, nil
}

func checkoutTestConfig() config.CheckoutConfig {
	return config.CheckoutConfig{
		SuccessURL: "https://app.test/success",
		CancelURL:  "https://app.test/cancel",
	}
}

func newPurchaseHandler(purchases *fakePurchaseRepo, users *fakeUserReader, courses *fakeCourseReader, payments *fakePaymentService) *PurchaseHandler {
	return NewPurchaseHandler(
		purchases,
		users,
		courses,
		payments,
		checkoutTestConfig(),
		core.NewValidator(nil),
		nil,
	)
}

func servePurchase(h *PurchaseHandler, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func checkoutRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/purchases/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPurchaseHandler_CreateCheckout(t *testing.T) {
	purchases := &fakePurchaseRepo{}
	users := &fakeUserReader{users: map[string]*types.User{
		"user_1": {ID: "user_1", Email: "ada@example.com"},
	}}
	courses := &fakeCourseReader{courses: map[string]*types.Course{
		"course_1": {
			ID:              "course_1",
			Title:           "Go Fundamentals",
			PriceCents:      10000,
			DiscountPercent: 20,
			Published:       true,
		},
	}}
	payments := &fakePaymentService{createdSession: &external.CheckoutSession{
		ID:  "cs_test_abc",
		URL: "https://checkout.stripe.test/pay/cs_test_abc",
	}}
	h := newPurchaseHandler(purchases, users, courses, payments)

	rec := servePurchase(h, checkoutRequest(`{"user_id": "user_1", "course_id": "course_1"}`))
	require.Equal(t, http.StatusCreated, rec.Code)

	require.Len(t, purchases.created, 1)
	created := purchases.created[0]
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "user_1", created.UserID)
	assert.Equal(t, "course_1", created.CourseID)
	assert.Equal(t, int64(8000), created.AmountCents)
	assert.Equal(t, types.PurchaseStatusPending, created.Status)

	var resp struct {
		Data CheckoutResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, created.ID, resp.Data.PurchaseID)
	assert.Equal(t, "https://checkout.stripe.test/pay/cs_test_abc", resp.Data.CheckoutURL)
	assert.Equal(t, int64(8000), resp.Data.AmountCents)
}

func TestPurchaseHandler_CreateCheckout_MissingFields(t *testing.T) {
	h := newPurchaseHandler(&fakePurchaseRepo{}, &fakeUserReader{}, &fakeCourseReader{}, &fakePaymentService{})

	rec := servePurchase(h, checkoutRequest(`{"user_id": "user_1"}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decodeErrorResponse(t, rec)
	assert.Equal(t, string(types.ErrCodeValidationMissingField), resp.Error.Code)
}

func TestPurchaseHandler_CreateCheckout_UnknownFieldRejected(t *testing.T) {
	h := newPurchaseHandler(&fakePurchaseRepo{}, &fakeUserReader{}, &fakeCourseReader{}, &fakePaymentService{})

	rec := servePurchase(h, checkoutRequest(`{"user_id": "user_1", "course_id": "course_1", "amount": 1}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPurchaseHandler_CreateCheckout_UnknownUser(t *testing.T) {
	courses := &fakeCourseReader{courses: map[string]*types.Course{
		"course_1": {ID: "course_1", Published: true},
	}}
	h := newPurchaseHandler(&fakePurchaseRepo{}, &fakeUserReader{users: map[string]*types.User{}}, courses, &fakePaymentService{})

	rec := servePurchase(h, checkoutRequest(`{"user_id": "user_ghost", "course_id": "course_1"}`))
	require.Equal(t, http.StatusNotFound, rec.Code)

	resp := decodeErrorResponse(t, rec)
	assert.Equal(t, string(types.ErrCodeNotFoundUser), resp.Error.Code)
}

func TestPurchaseHandler_CreateCheckout_UnpublishedCourse(t *testing.T) {
	purchases := &fakePurchaseRepo{}
	users := &fakeUserReader{users: map[string]*types.User{
		"user_1": {ID: "user_1", Email: "ada@example.com"},
	}}
	courses := &fakeCourseReader{courses: map[string]*types.Course{
		"course_1": {ID: "course_1", Published: false},
	}}
	h := newPurchaseHandler(purchases, users, courses, &fakePaymentService{})

	// Drafts are not purchasable and should be indistinguishable from absent.
	rec := servePurchase(h, checkoutRequest(`{"user_id": "user_1", "course_id": "course_1"}`))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, purchases.created)
}

func TestPurchaseHandler_CreateCheckout_PaymentSessionFailure(t *testing.T) {
	purchases := &fakePurchaseRepo{}
	users := &fakeUserReader{users: map[string]*types.User{
		"user_1": {ID: "user_1", Email: "ada@example.com"},
	}}
	courses := &fakeCourseReader{courses: map[string]*types.Course{
		"course_1": {ID: "course_1", Title: "t", PriceCents: 100, Published: true},
	}}
	payments := &fakePaymentService{
		createErr: types.NewAppError(types.ErrCodeUpstreamUnavailable, "stripe down", nil),
	}
	h := newPurchaseHandler(purchases, users, courses, payments)

	rec := servePurchase(h, checkoutRequest(`{"user_id": "user_1", "course_id": "course_1"}`))
	require.Equal(t, http.StatusBadGateway, rec.Code)

	// The pending purchase stays behind; it can never settle and the client
	// retries with a fresh one.
	assert.Len(t, purchases.created, 1)
}

func TestPurchaseHandler_Get(t *testing.T) {
	purchases := &fakePurchaseRepo{purchases: map[string]*types.Purchase{
		"pur_1": {
			ID:       "pur_1",
			UserID:   "user_1",
			CourseID: "course_1",
			Status:   types.PurchaseStatusCompleted,
		},
	}}
	h := newPurchaseHandler(purchases, &fakeUserReader{}, &fakeCourseReader{}, &fakePaymentService{})

	rec := servePurchase(h, httptest.NewRequest(http.MethodGet, "/purchases/pur_1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data types.Purchase `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.PurchaseStatusCompleted, resp.Data.Status)
}

func TestPurchaseHandler_Get_NotFound(t *testing.T) {
	h := newPurchaseHandler(&fakePurchaseRepo{}, &fakeUserReader{}, &fakeCourseReader{}, &fakePaymentService{})

	rec := servePurchase(h, httptest.NewRequest(http.MethodGet, "/purchases/pur_ghost", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
