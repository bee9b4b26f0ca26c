package db

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	"coursehub/internal/types"
)

// CourseRepository provides read access for the courses table. Course content
// is authored by the out-of-scope educator surface; the settlement pipeline
// only ever reads courses and links enrollments to them.
type CourseRepository struct {
	db DBTX
}

// NewCourseRepository creates a new CourseRepository backed by the given
// database connection (pool or transaction).
func NewCourseRepository(db DBTX) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `c.id, c.title, c.description, c.price_cents, c.discount_percent,
	c.published, c.sections, c.created_at, c.updated_at`

// scanCourse scans a single course row into a types.Course struct. The
// sections JSONB document is decoded from raw bytes; a NULL document yields
// an empty outline.
func scanCourse(row pgx.Row) (*types.Course, error) {
	var c types.Course
	var (
		description *string
		sections    []byte
	)
	err := row.Scan(
		&c.ID,
		&c.Title,
		&description,
		&c.PriceCents,
		&c.DiscountPercent,
		&c.Published,
		&sections,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if description != nil {
		c.Description = *description
	}
	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &c.Sections); err != nil {
			return nil, err
		}
	}
	return &c, nil
}

// GetByID retrieves a course by ID. Returns ErrCodeNotFoundCourse if no
// course exists.
func (r *CourseRepository) GetByID(ctx context.Context, id string) (*types.Course, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+courseColumns+`
		 FROM courses c
		 WHERE c.id = $1`,
		id,
	)

	c, err := scanCourse(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundCourse, "course not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve course", err)
	}
	return c, nil
}

// ListPublished returns all published courses ordered by creation time,
// newest first.
func (r *CourseRepository) ListPublished(ctx context.Context) ([]*types.Course, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+courseColumns+`
		 FROM courses c
		 WHERE c.published = true
		 ORDER BY c.created_at DESC`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list courses", err)
	}
	defer rows.Close()

	var courses []*types.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan course row", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate course rows", err)
	}
	return courses, nil
}

// GetEnrolledStudentIDs returns the user IDs enrolled in the course, ordered
// by enrollment time. An absent course yields an empty slice.
func (r *CourseRepository) GetEnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT e.user_id
		 FROM enrollments e
		 WHERE e.course_id = $1
		 ORDER BY e.enrolled_at`,
		courseID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list enrolled students", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan enrollment row", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate enrollment rows", err)
	}
	return userIDs, nil
}
