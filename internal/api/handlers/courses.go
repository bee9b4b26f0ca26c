// This file implements the public course catalog read surface: the published
// course list and the single-course detail view with its enrollment roster.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"coursehub/internal/core"
	"coursehub/internal/types"
)

// CourseReader is the data access contract for the course catalog, mirroring
// the concrete db.CourseRepository methods this handler uses.
type CourseReader interface {
	GetByID(ctx context.Context, id string) (*types.Course, error)
	ListPublished(ctx context.Context) ([]*types.Course, error)
	GetEnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error)
}

// CourseHandler serves the course catalog endpoints.
type CourseHandler struct {
	courses CourseReader
	logger  *slog.Logger
}

// NewCourseHandler creates a CourseHandler.
func NewCourseHandler(courses CourseReader, logger *slog.Logger) *CourseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CourseHandler{courses: courses, logger: logger}
}

// RegisterRoutes mounts the course catalog routes under /v1.
func (h *CourseHandler) RegisterRoutes(r chi.Router) {
	r.Get("/courses", h.List)
	r.Get("/courses/{id}", h.Get)
}

// List handles GET /v1/courses. Only published courses are listed; drafts
// are invisible to the public surface.
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.ListPublished(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}
	if courses == nil {
		courses = []*types.Course{}
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: courses})
}

// Get handles GET /v1/courses/{id}. The response includes the enrollment
// roster projected from the enrollments table.
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "id")

	course, err := h.courses.GetByID(r.Context(), courseID)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	students, err := h.courses.GetEnrolledStudentIDs(r.Context(), courseID)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	course.EnrolledStudents = students

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: course})
}
