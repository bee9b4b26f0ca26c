// Package types defines the domain model, error taxonomy, and shared
// interfaces for the CourseHub marketplace backend.
package types

import (
	"time"
)

// ---------------------------------------------------------------------------
// User
// ---------------------------------------------------------------------------

// User is a marketplace account synchronized from the identity provider.
// The ID is externally issued and used verbatim as the primary key; users are
// never created by application-originated CRUD, only by identity webhook
// events. Profile fields are overwritten wholesale on every update event.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// EnrolledCourses is a projection of the enrollments table; populated
	// only by read paths that request it.
	EnrolledCourses []string `json:"enrolled_courses,omitempty"`
}

// ---------------------------------------------------------------------------
// Course
// ---------------------------------------------------------------------------

// CourseSection is one ordered entry in a course's content outline.
// Sections are stored as a JSONB document on the course row; the settlement
// pipeline never mutates them.
type CourseSection struct {
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// Course is a published course listing. The only mutation the settlement
// core performs on a Course is enrollment; all other fields belong to the
// out-of-scope educator CRUD surface.
type Course struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	PriceCents      int64           `json:"price_cents"`
	DiscountPercent int             `json:"discount_percent"`
	Published       bool            `json:"published"`
	Sections        []CourseSection `json:"sections,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// EnrolledStudents is a projection of the enrollments table; populated
	// only by read paths that request it.
	EnrolledStudents []string `json:"enrolled_students,omitempty"`
}

// DiscountedPriceCents returns the effective checkout amount after the
// course discount is applied.
func (c *Course) DiscountedPriceCents() int64 {
	if c.DiscountPercent <= 0 {
		return c.PriceCents
	}
	return c.PriceCents - (c.PriceCents*int64(c.DiscountPercent))/100
}

// ---------------------------------------------------------------------------
// Purchase
// ---------------------------------------------------------------------------

// PurchaseStatus is the settlement state of a purchase.
type PurchaseStatus string

const (
	// PurchaseStatusPending is the initial state set by the checkout flow.
	PurchaseStatusPending PurchaseStatus = "pending"
	// PurchaseStatusCompleted is the terminal success state. A completed
	// purchase implies an enrollment row linking its user and course.
	PurchaseStatusCompleted PurchaseStatus = "completed"
	// PurchaseStatusFailed is the terminal failure state.
	PurchaseStatusFailed PurchaseStatus = "failed"
)

// IsTerminal reports whether the status is one of the two terminal states.
// A purchase never transitions out of a terminal state.
func (s PurchaseStatus) IsTerminal() bool {
	return s == PurchaseStatusCompleted || s == PurchaseStatusFailed
}

// Purchase links a user to a course they are buying. Created in pending
// state by the checkout flow; its status is flipped exactly once by the
// settlement engine.
type Purchase struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"`
	CourseID    string         `json:"course_id"`
	AmountCents int64          `json:"amount_cents"`
	Status      PurchaseStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// PurchaseOutcome is the payment result reported by the payment provider,
// fed into the settlement engine.
type PurchaseOutcome string

const (
	OutcomeSucceeded PurchaseOutcome = "succeeded"
	OutcomeFailed    PurchaseOutcome = "failed"
)

// TerminalStatus maps a payment outcome to the purchase status it settles to.
func (o PurchaseOutcome) TerminalStatus() PurchaseStatus {
	if o == OutcomeSucceeded {
		return PurchaseStatusCompleted
	}
	return PurchaseStatusFailed
}

// ---------------------------------------------------------------------------
// Enrollment
// ---------------------------------------------------------------------------

// Enrollment is the relational set membership linking a user and a course.
// The composite (CourseID, UserID) key makes replayed settlement a no-op and
// makes the bidirectional user/course link atomic by construction.
type Enrollment struct {
	CourseID   string    `json:"course_id"`
	UserID     string    `json:"user_id"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// ---------------------------------------------------------------------------
// Response metadata
// ---------------------------------------------------------------------------

// ResponseMeta conveys non-blocking warnings alongside successful responses.
type ResponseMeta struct {
	Warnings []string `json:"warnings,omitempty"`
}
