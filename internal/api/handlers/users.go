// This file implements the user read surface: profile lookup with the
// enrolled-courses projection.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursehub/internal/core"
	"coursehub/internal/types"
)

// UserReader is the data access contract for user reads, mirroring the
// concrete db.UserRepository methods this handler uses.
type UserReader interface {
	GetByID(ctx context.Context, id string) (*types.User, error)
	GetEnrolledCourseIDs(ctx context.Context, userID string) ([]string, error)
}

// UserHandler serves the user read endpoints.
type UserHandler struct {
	users  UserReader
	logger *slog.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users UserReader, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{users: users, logger: logger}
}

// RegisterRoutes mounts the user routes under /v1.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users/{id}", h.Get)
	r.Get("/users/{id}/enrollments", h.ListEnrollments)
}

// Get handles GET /v1/users/{id}. The response includes the enrolled course
// IDs projected from the enrollments table.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	courseIDs, err := h.users.GetEnrolledCourseIDs(r.Context(), userID)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	user.EnrolledCourses = courseIDs

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: user})
}

// EnrollmentsResponse wraps the enrolled course IDs for a user.
type EnrollmentsResponse struct {
	UserID    string   `json:"user_id"`
	CourseIDs []string `json:"course_ids"`
}

// ListEnrollments handles GET /v1/users/{id}/enrollments. The user must
// exist; an empty enrollment set is a valid response.
func (h *UserHandler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	if _, err := h.users.GetByID(r.Context(), userID); err != nil {
		core.Error(w, r, err)
		return
	}

	courseIDs, err := h.users.GetEnrolledCourseIDs(r.Context(), userID)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if courseIDs == nil {
		courseIDs = []string{}
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: EnrollmentsResponse{
		UserID:    userID,
		CourseIDs: courseIDs,
	}})
}
