package db

import (
	"context"

	"coursehub/internal/types"
)

// EnrollmentRepository provides data access for the enrollments table.
// The composite (course_id, user_id) primary key gives enrollment set
// semantics: adding an existing membership is a no-op, and the user and
// course sides of the link can never disagree because there is exactly one
// row to read from.
type EnrollmentRepository struct {
	db DBTX
}

// NewEnrollmentRepository creates a new EnrollmentRepository backed by the
// given database connection (pool or transaction).
func NewEnrollmentRepository(db DBTX) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Add records the enrollment. ON CONFLICT DO NOTHING makes replayed
// settlements idempotent.
func (r *EnrollmentRepository) Add(ctx context.Context, courseID, userID string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO enrollments (course_id, user_id, enrolled_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (course_id, user_id) DO NOTHING`,
		courseID,
		userID,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to add enrollment", err)
	}
	return nil
}

// Exists reports whether the membership is present.
func (r *EnrollmentRepository) Exists(ctx context.Context, courseID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM enrollments WHERE course_id = $1 AND user_id = $2
		 )`,
		courseID,
		userID,
	).Scan(&exists)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to check enrollment", err)
	}
	return exists, nil
}
