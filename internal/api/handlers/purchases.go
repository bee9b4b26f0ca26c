// This file implements the checkout flow: creating a pending purchase and
// the hosted payment session that will eventually settle it, plus the
// purchase status read endpoint the frontend polls after redirect.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"coursehub/internal/config"
	"coursehub/internal/core"
	"coursehub/internal/external"
	"coursehub/internal/types"
)

// PurchaseRepo is the data access contract for purchase creation and lookup.
type PurchaseRepo interface {
	Create(ctx context.Context, purchase *types.Purchase) error
	GetByID(ctx context.Context, id string) (*types.Purchase, error)
}

// CheckoutUserReader resolves the purchasing user.
type CheckoutUserReader interface {
	GetByID(ctx context.Context, id string) (*types.User, error)
}

// CheckoutCourseReader resolves the course being bought.
type CheckoutCourseReader interface {
	GetByID(ctx context.Context, id string) (*types.Course, error)
}

// CreateCheckoutRequest is the request body for POST /v1/purchases/checkout.
type CreateCheckoutRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	CourseID string `json:"course_id" validate:"required"`
}

// CheckoutResponse returns the pending purchase and the hosted payment URL
// the client redirects to.
type CheckoutResponse struct {
	PurchaseID  string `json:"purchase_id"`
	CheckoutURL string `json:"checkout_url"`
	AmountCents int64  `json:"amount_cents"`
}

// PurchaseHandler serves the checkout and purchase status endpoints.
type PurchaseHandler struct {
	purchases PurchaseRepo
	users     CheckoutUserReader
	courses   CheckoutCourseReader
	payments  external.PaymentService
	checkout  config.CheckoutConfig
	validator *core.Validator
	logger    *slog.Logger
}

// NewPurchaseHandler creates a PurchaseHandler with the provided dependencies.
func NewPurchaseHandler(
	purchases PurchaseRepo,
	users CheckoutUserReader,
	courses CheckoutCourseReader,
	payments external.PaymentService,
	checkout config.CheckoutConfig,
	validator *core.Validator,
	logger *slog.Logger,
) *PurchaseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PurchaseHandler{
		purchases: purchases,
		users:     users,
		courses:   courses,
		payments:  payments,
		checkout:  checkout,
		validator: validator,
		logger:    logger,
	}
}

// RegisterRoutes mounts the purchase routes under /v1.
func (h *PurchaseHandler) RegisterRoutes(r chi.Router) {
	r.Post("/purchases/checkout", h.CreateCheckout)
	r.Get("/purchases/{id}", h.Get)
}

// CreateCheckout handles POST /v1/purchases/checkout.
//
// The purchase row is created in pending state before the payment session,
// and the purchase ID is stamped into the session metadata. The payment
// webhook path later reads that metadata back to find the purchase to
// settle; a session without the stamp would leave an unsettleable purchase.
func (h *PurchaseHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	var req CreateCheckoutRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	user, err := h.users.GetByID(r.Context(), req.UserID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	course, err := h.courses.GetByID(r.Context(), req.CourseID)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if !course.Published {
		core.Error(w, r, types.NewAppError(
			types.ErrCodeNotFoundCourse,
			"course is not available for purchase",
			nil,
		))
		return
	}

	purchase := &types.Purchase{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		CourseID:    course.ID,
		AmountCents: course.DiscountedPriceCents(),
		Status:      types.PurchaseStatusPending,
	}
	if err := h.purchases.Create(r.Context(), purchase); err != nil {
		core.Error(w, r, err)
		return
	}

	session, err := h.payments.CreateCheckoutSession(r.Context(), external.CheckoutParams{
		PurchaseID:  purchase.ID,
		CourseTitle: course.Title,
		AmountCents: purchase.AmountCents,
		SuccessURL:  h.checkout.SuccessURL,
		CancelURL:   h.checkout.CancelURL,
	})
	if err != nil {
		// The pending purchase stays behind; it never settles and is
		// harmless, and the client can retry checkout with a fresh one.
		h.logger.ErrorContext(r.Context(), "failed to create checkout session",
			"purchase_id", purchase.ID,
			"error", err,
		)
		core.Error(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "checkout created",
		"purchase_id", purchase.ID,
		"session_id", session.ID,
		"amount_cents", purchase.AmountCents,
	)

	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: CheckoutResponse{
		PurchaseID:  purchase.ID,
		CheckoutURL: session.URL,
		AmountCents: purchase.AmountCents,
	}})
}

// Get handles GET /v1/purchases/{id}. The frontend polls this after the
// payment redirect to learn whether settlement has landed.
func (h *PurchaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	purchase, err := h.purchases.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: purchase})
}
