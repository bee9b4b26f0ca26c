package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"coursehub/internal/types"
)

// PurchaseRepository provides data access for the purchases table. Purchases
// are created in pending state by the checkout flow and transitioned exactly
// once to a terminal state by the settlement engine.
type PurchaseRepository struct {
	db DBTX
}

// NewPurchaseRepository creates a new PurchaseRepository backed by the given
// database connection (pool or transaction).
func NewPurchaseRepository(db DBTX) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

const purchaseColumns = `p.id, p.user_id, p.course_id, p.amount_cents, p.status, p.created_at, p.updated_at`

func scanPurchase(row pgx.Row) (*types.Purchase, error) {
	var p types.Purchase
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.CourseID,
		&p.AmountCents,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a purchase in pending state.
func (r *PurchaseRepository) Create(ctx context.Context, purchase *types.Purchase) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO purchases (id, user_id, course_id, amount_cents, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, now(), now())`,
		purchase.ID,
		purchase.UserID,
		purchase.CourseID,
		purchase.AmountCents,
		types.PurchaseStatusPending,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create purchase", err)
	}
	return nil
}

// GetByID retrieves a purchase by ID. Returns ErrCodeNotFoundPurchase if no
// purchase exists.
func (r *PurchaseRepository) GetByID(ctx context.Context, id string) (*types.Purchase, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+purchaseColumns+`
		 FROM purchases p
		 WHERE p.id = $1`,
		id,
	)

	p, err := scanPurchase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundPurchase, "purchase not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve purchase", err)
	}
	return p, nil
}

// MarkSettled transitions the purchase from pending to the given terminal
// status. The WHERE clause guards the transition: an update matching zero
// rows means the purchase is missing or already terminal, reported as
// (false, nil) so the caller can treat the redelivery as a no-op. Under
// concurrent settlement of the same purchase, the row lock taken by the
// first update serializes the second, which then matches zero rows.
func (r *PurchaseRepository) MarkSettled(ctx context.Context, id string, status types.PurchaseStatus) (bool, error) {
	if !status.IsTerminal() {
		return false, types.NewAppError(types.ErrCodeInternalUnexpected, "settlement status must be terminal", nil)
	}

	tag, err := r.db.Exec(ctx,
		`UPDATE purchases
		 SET status = $2, updated_at = now()
		 WHERE id = $1 AND status = $3`,
		id,
		status,
		types.PurchaseStatusPending,
	)
	if err != nil {
		return false, types.NewAppError(types.ErrCodeInternalDB, "failed to settle purchase", err)
	}
	return tag.RowsAffected() == 1, nil
}
