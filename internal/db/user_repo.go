package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"coursehub/internal/types"
)

// UserRepository provides data access for the users table. Users are created
// and mutated exclusively by identity webhook events; the ID is the identity
// provider's identifier used verbatim as the primary key.
type UserRepository struct {
	db DBTX
}

// NewUserRepository creates a new UserRepository backed by the given database
// connection (pool or transaction).
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// userColumns defines the standard set of columns selected for user queries.
// Used consistently across all query methods to avoid column drift.
const userColumns = `u.id, u.email, u.name, u.image_url, u.created_at, u.updated_at`

// scanUser scans a single user row into a types.User struct. The columns must
// match the order defined in userColumns. Uses nullable scan targets for
// columns that may be NULL in the database (name, image_url).
func scanUser(row pgx.Row) (*types.User, error) {
	var u types.User
	var (
		name     *string
		imageURL *string
	)
	err := row.Scan(
		&u.ID,
		&u.Email,
		&name,
		&imageURL,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if name != nil {
		u.Name = *name
	}
	if imageURL != nil {
		u.ImageURL = *imageURL
	}
	return &u, nil
}

// GetByID retrieves a user by their externally issued identifier.
// Returns ErrCodeNotFoundUser if no user exists.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*types.User, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+`
		 FROM users u
		 WHERE u.id = $1`,
		id,
	)

	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve user", err)
	}
	return u, nil
}

// Upsert inserts the user or overwrites all profile fields wholesale when a
// row with the same ID already exists. Redelivered created/updated identity
// events therefore converge on the same row state.
func (r *UserRepository) Upsert(ctx context.Context, user *types.User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, email, name, image_url, created_at, updated_at)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), now(), now())
		 ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			image_url = EXCLUDED.image_url,
			updated_at = now()`,
		user.ID,
		user.Email,
		user.Name,
		user.ImageURL,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to upsert user", err)
	}
	return nil
}

// Delete removes the user row. Deleting an absent user is not an error, so
// redelivered deletion events are idempotent.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to delete user", err)
	}
	return nil
}

// GetEnrolledCourseIDs returns the course IDs the user is enrolled in,
// ordered by enrollment time. An absent user yields an empty slice.
func (r *UserRepository) GetEnrolledCourseIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT e.course_id
		 FROM enrollments e
		 WHERE e.user_id = $1
		 ORDER BY e.enrolled_at`,
		userID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to list enrolled courses", err)
	}
	defer rows.Close()

	var courseIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan enrollment row", err)
		}
		courseIDs = append(courseIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to iterate enrollment rows", err)
	}
	return courseIDs, nil
}
