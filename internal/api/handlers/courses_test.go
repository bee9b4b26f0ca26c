package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursehub/internal/types"
)

type fakeCourseReader struct {
	courses  map[string]*types.Course
	students map[string][]string
	listErr  error
}

func (f *fakeCourseReader) GetByID(ctx context.Context, id string) (*types.Course, error) {
	course, ok := f.courses[id]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeNotFoundCourse, "course not found", nil)
	}
	return course, nil
}

func (f *fakeCourseReader) ListPublished(ctx context.Context) ([]*types.Course, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*types.Course
	for _, c := range f.courses {
		if c.Published {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCourseReader) GetEnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error) {
	return f.students[courseID], nil
}

func serveCourse(h *CourseHandler, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCourseHandler_List(t *testing.T) {
	reader := &fakeCourseReader{courses: map[string]*types.Course{
		"course_1": {ID: "course_1", Title: "Go Fundamentals", Published: true},
		"course_2": {ID: "course_2", Title: "Draft Course", Published: false},
	}}
	h := NewCourseHandler(reader, nil)

	rec := serveCourse(h, httptest.NewRequest(http.MethodGet, "/courses", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []types.Course `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "course_1", resp.Data[0].ID)
}

func TestCourseHandler_List_Empty(t *testing.T) {
	h := NewCourseHandler(&fakeCourseReader{courses: map[string]*types.Course{}}, nil)

	rec := serveCourse(h, httptest.NewRequest(http.MethodGet, "/courses", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	// Empty catalog serializes as [], not null.
	assert.JSONEq(t, `{"data": []}`, rec.Body.String())
}

func TestCourseHandler_Get(t *testing.T) {
	reader := &fakeCourseReader{
		courses: map[string]*types.Course{
			"course_1": {ID: "course_1", Title: "Go Fundamentals", Published: true},
		},
		students: map[string][]string{
			"course_1": {"user_1", "user_2"},
		},
	}
	h := NewCourseHandler(reader, nil)

	rec := serveCourse(h, httptest.NewRequest(http.MethodGet, "/courses/course_1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data types.Course `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "course_1", resp.Data.ID)
	assert.Equal(t, []string{"user_1", "user_2"}, resp.Data.EnrolledStudents)
}

func TestCourseHandler_Get_NotFound(t *testing.T) {
	h := NewCourseHandler(&fakeCourseReader{courses: map[string]*types.Course{}}, nil)

	rec := serveCourse(h, httptest.NewRequest(http.MethodGet, "/courses/course_ghost", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	resp := decodeErrorResponse(t, rec)
	assert.Equal(t, string(types.ErrCodeNotFoundCourse), resp.Error.Code)
}
