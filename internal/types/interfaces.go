package types

import (
	"context"
)

// RepositoryRegistry provides access to all repository instances. Handlers and
// services depend on this interface rather than concrete pgx-backed types so
// the same code runs against a pool, a transaction, or a test double.
type RepositoryRegistry interface {
	Users() UserRepository
	Courses() CourseRepository
	Purchases() PurchaseRepository
	Enrollments() EnrollmentRepository
}

// TransactionManager provides transactional execution across repositories.
// The registry passed to fn is bound to a single transaction; returning an
// error rolls everything back.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, repos RepositoryRegistry) error) error
}

// UserRepository defines data access for identity-synced users.
type UserRepository interface {
	// GetByID retrieves a user by their externally issued identifier.
	// Returns an AppError with code not_found_user when absent.
	GetByID(ctx context.Context, id string) (*User, error)

	// Upsert inserts the user or overwrites all profile fields wholesale
	// when a row with the same ID already exists. Redelivered identity
	// events are therefore idempotent in effect.
	Upsert(ctx context.Context, user *User) error

	// Delete removes the user. Deleting an absent user is not an error.
	Delete(ctx context.Context, id string) error

	// GetEnrolledCourseIDs returns the set of course IDs the user is
	// enrolled in, as a projection of the enrollments table.
	GetEnrolledCourseIDs(ctx context.Context, userID string) ([]string, error)
}

// CourseRepository defines read access for courses. The settlement core never
// mutates course fields directly; enrollment goes through EnrollmentRepository.
type CourseRepository interface {
	// GetByID retrieves a course. Returns an AppError with code
	// not_found_course when absent.
	GetByID(ctx context.Context, id string) (*Course, error)

	// ListPublished returns all published courses.
	ListPublished(ctx context.Context) ([]*Course, error)

	// GetEnrolledStudentIDs returns the set of user IDs enrolled in the
	// course, as a projection of the enrollments table.
	GetEnrolledStudentIDs(ctx context.Context, courseID string) ([]string, error)
}

// PurchaseRepository defines data access for purchases.
type PurchaseRepository interface {
	// Create inserts a purchase in pending state.
	Create(ctx context.Context, purchase *Purchase) error

	// GetByID retrieves a purchase. Returns an AppError with code
	// not_found_purchase when absent.
	GetByID(ctx context.Context, id string) (*Purchase, error)

	// MarkSettled transitions the purchase from pending to the given
	// terminal status. Returns false when no transition happened because
	// the purchase is missing or already terminal. The guarded update is
	// the concurrency point of the settlement engine: the row lock it
	// takes serializes concurrent redeliveries of the same event.
	MarkSettled(ctx context.Context, id string, status PurchaseStatus) (bool, error)
}

// EnrollmentRepository defines the set-semantics enrollment link between
// users and courses.
type EnrollmentRepository interface {
	// Add records the enrollment. Adding an existing membership is a no-op.
	Add(ctx context.Context, courseID, userID string) error

	// Exists reports whether the membership is present.
	Exists(ctx context.Context, courseID, userID string) (bool, error)
}
