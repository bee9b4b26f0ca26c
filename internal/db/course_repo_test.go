package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"coursehub/internal/types"
)

func TestCourseRepository_GetByID_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewCourseRepository(db)

	now := time.Now().UTC()
	sections := []byte(`[{"title":"Intro","position":1},{"title":"Deep Dive","position":2}]`)
	row := &mockRow{
		scanFn: func(dest ...any) error {
			*dest[0].(*string) = "course_1"
			*dest[1].(*string) = "Go Fundamentals"
			desc := "From zero to production"
			*dest[2].(**string) = &desc
			*dest[3].(*int64) = 9900
			*dest[4].(*int) = 10
			*dest[5].(*bool) = true
			*dest[6].(*[]byte) = sections
			*dest[7].(*time.Time) = now
			*dest[8].(*time.Time) = now
			return nil
		},
	}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row)

	course, err := repo.GetByID(context.Background(), "course_1")
	require.NoError(t, err)
	assert.Equal(t, "course_1", course.ID)
	assert.Equal(t, "Go Fundamentals", course.Title)
	assert.Equal(t, int64(9900), course.PriceCents)
	require.Len(t, course.Sections, 2)
	assert.Equal(t, "Intro", course.Sections[0].Title)
	assert.Equal(t, 2, course.Sections[1].Position)
}

func TestCourseRepository_GetByID_NullSections(t *testing.T) {
	db := new(mockDBTX)
	repo := NewCourseRepository(db)

	now := time.Now().UTC()
	row := &mockRow{
		scanFn: func(dest ...any) error {
			*dest[0].(*string) = "course_1"
			*dest[1].(*string) = "Go Fundamentals"
			*dest[2].(**string) = nil
			*dest[3].(*int64) = 9900
			*dest[4].(*int) = 0
			*dest[5].(*bool) = true
			*dest[6].(*[]byte) = nil
			*dest[7].(*time.Time) = now
			*dest[8].(*time.Time) = now
			return nil
		},
	}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row)

	course, err := repo.GetByID(context.Background(), "course_1")
	require.NoError(t, err)
	assert.Empty(t, course.Sections)
	assert.Empty(t, course.Description)
}

func TestCourseRepository_GetByID_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewCourseRepository(db)

	row := &mockRow{scanErr: pgx.ErrNoRows}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := repo.GetByID(context.Background(), "course_missing")
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeNotFoundCourse, appErr.Code)
}

func TestCourseRepository_ListPublished(t *testing.T) {
	db := new(mockDBTX)
	repo := NewCourseRepository(db)

	now := time.Now().UTC()
	rows := newMockRows([][]any{
		{"course_1", "Go Fundamentals", "desc", int64(9900), 0, true, []byte(`[]`), now, now},
		{"course_2", "Advanced Go", nil, int64(14900), 25, true, nil, now, now},
	})
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	courses, err := repo.ListPublished(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "course_1", courses[0].ID)
	assert.Equal(t, "Advanced Go", courses[1].Title)
	assert.Equal(t, 25, courses[1].DiscountPercent)
}

func TestCourseRepository_GetEnrolledStudentIDs(t *testing.T) {
	db := new(mockDBTX)
	repo := NewCourseRepository(db)

	rows := newMockRows([][]any{
		{"user_1"},
		{"user_2"},
	})
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	userIDs, err := repo.GetEnrolledStudentIDs(context.Background(), "course_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user_1", "user_2"}, userIDs)
}
