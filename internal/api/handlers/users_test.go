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

type fakeUserReader struct {
	users       map[string]*types.User
	enrollments map[string][]string
}

func (f *fakeUserReader) GetByID(ctx context.Context, id string) (*types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
	}
	return user, nil
}

func (f *fakeUserReader) GetEnrolledCourseIDs(ctx context.Context, userID string) ([]string, error) {
	return f.enrollments[userID], nil
}

func serveUser(h *UserHandler, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUserHandler_Get(t *testing.T) {
	reader := &fakeUserReader{
		users: map[string]*types.User{
			"user_1": {ID: "user_1", Email: "ada@example.com", Name: "Ada Lovelace"},
		},
		enrollments: map[string][]string{
			"user_1": {"course_1", "course_2"},
		},
	}
	h := NewUserHandler(reader, nil)

	rec := serveUser(h, httptest.NewRequest(http.MethodGet, "/users/user_1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data types.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ada@example.com", resp.Data.Email)
	assert.Equal(t, []string{"course_1", "course_2"}, resp.Data.EnrolledCourses)
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	h := NewUserHandler(&fakeUserReader{users: map[string]*types.User{}}, nil)

	rec := serveUser(h, httptest.NewRequest(http.MethodGet, "/users/user_ghost", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	resp := decodeErrorResponse(t, rec)
	assert.Equal(t, string(types.ErrCodeNotFoundUser), resp.Error.Code)
}

func TestUserHandler_ListEnrollments(t *testing.T) {
	reader := &fakeUserReader{
		users: map[string]*types.User{
			"user_1": {ID: "user_1", Email: "ada@example.com"},
		},
		enrollments: map[string][]string{
			"user_1": {"course_1"},
		},
	}
	h := NewUserHandler(reader, nil)

	rec := serveUser(h, httptest.NewRequest(http.MethodGet, "/users/user_1/enrollments", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data": {"user_id": "user_1", "course_ids": ["course_1"]}}`, rec.Body.String())
}

func TestUserHandler_ListEnrollments_EmptySet(t *testing.T) {
	reader := &fakeUserReader{
		users: map[string]*types.User{
			"user_1": {ID: "user_1", Email: "ada@example.com"},
		},
	}
	h := NewUserHandler(reader, nil)

	rec := serveUser(h, httptest.NewRequest(http.MethodGet, "/users/user_1/enrollments", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data": {"user_id": "user_1", "course_ids": []}}`, rec.Body.String())
}

func TestUserHandler_ListEnrollments_UnknownUser(t *testing.T) {
	h := NewUserHandler(&fakeUserReader{users: map[string]*types.User{}}, nil)

	rec := serveUser(h, httptest.NewRequest(http.MethodGet, "/users/user_ghost/enrollments", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
