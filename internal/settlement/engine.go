// Package settlement implements the purchase settlement state machine.
//
// A purchase is created in pending state by the checkout flow and settled
// exactly once when the payment provider reports the payment outcome. On
// success the settlement also records the enrollment linking the purchaser to
// the course; the status flip and the enrollment commit or roll back together,
// so no observable state ever shows a completed purchase without its
// enrollment.
package settlement

import (
	"context"
	"errors"
	"log/slog"

	"coursehub/internal/types"
)

// Result describes what a settlement attempt did. Redeliveries and races
// surface as no-op results rather than errors so the webhook path can
// acknowledge them.
type Result string

const (
	// ResultSettled means this attempt performed the pending-to-terminal
	// transition.
	ResultSettled Result = "settled"
	// ResultAlreadySettled means the purchase was already terminal, either
	// before this attempt started or because a concurrent attempt won the
	// guarded update.
	ResultAlreadySettled Result = "already_settled"
	// ResultPurchaseMissing means no purchase exists for the ID carried in
	// the event metadata.
	ResultPurchaseMissing Result = "purchase_missing"
	// ResultReferenceMissing means the purchase references a user or course
	// that no longer exists; the whole attempt was rolled back.
	ResultReferenceMissing Result = "reference_missing"
)

// errAborted forces a transaction rollback for no-op outcomes discovered
// after the status flip.
var errAborted = errors.New("settlement aborted")

// OutcomeRecorder receives settlement telemetry. Implemented by the metrics
// collector; a nil recorder disables recording.
type OutcomeRecorder interface {
	RecordSettlement(result string, status string)
}

// Engine applies payment outcomes to purchases. All datastore work for one
// settlement happens inside a single transaction obtained from the
// TransactionManager.
type Engine struct {
	txm     types.TransactionManager
	metrics OutcomeRecorder
	logger  *slog.Logger
}

// NewEngine creates a settlement Engine. metrics may be nil.
func NewEngine(txm types.TransactionManager, metrics OutcomeRecorder, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{txm: txm, metrics: metrics, logger: logger}
}

// Settle transitions the purchase to the terminal status implied by the
// payment outcome. On a successful payment it also records the enrollment in
// the same transaction.
//
// The sequence inside the transaction:
//  1. Load the purchase. Absent purchase: no-op.
//  2. Already terminal: no-op, regardless of whether the redelivered outcome
//     agrees with the recorded status.
//  3. Guarded update pending -> terminal. Zero rows means a concurrent
//     attempt settled first; no-op. The row lock the winning update holds
//     serializes the race: the loser's update waits, re-evaluates the status
//     predicate after commit, and matches nothing.
//  4. For a successful payment, verify the purchase's user and course still
//     exist and insert the enrollment. A missing reference rolls the whole
//     attempt back, leaving the purchase pending.
//
// Settlement errors are returned as-is; callers on the webhook path log and
// acknowledge rather than propagate them.
func (e *Engine) Settle(ctx context.Context, purchaseID string, outcome types.PurchaseOutcome) (Result, error) {
	result := ResultSettled
	status := outcome.TerminalStatus()

	err := e.txm.RunInTx(ctx, func(ctx context.Context, repos types.RepositoryRegistry) error {
		purchase, err := repos.Purchases().GetByID(ctx, purchaseID)
		if err != nil {
			if hasErrorCode(err, types.ErrCodeNotFoundPurchase) {
				result = ResultPurchaseMissing
				return nil
			}
			return err
		}

		if purchase.Status.IsTerminal() {
			result = ResultAlreadySettled
			return nil
		}

		applied, err := repos.Purchases().MarkSettled(ctx, purchaseID, status)
		if err != nil {
			return err
		}
		if !applied {
			// Pending at read time but terminal by update time: a
			// concurrent settlement won.
			result = ResultAlreadySettled
			return nil
		}

		if outcome != types.OutcomeSucceeded {
			return nil
		}

		// Completion requires both ends of the enrollment link to exist.
		if _, err := repos.Users().GetByID(ctx, purchase.UserID); err != nil {
			if hasErrorCode(err, types.ErrCodeNotFoundUser) {
				result = ResultReferenceMissing
				return errAborted
			}
			return err
		}
		if _, err := repos.Courses().GetByID(ctx, purchase.CourseID); err != nil {
			if hasErrorCode(err, types.ErrCodeNotFoundCourse) {
				result = ResultReferenceMissing
				return errAborted
			}
			return err
		}

		return repos.Enrollments().Add(ctx, purchase.CourseID, purchase.UserID)
	})

	if err != nil && !errors.Is(err, errAborted) {
		return "", err
	}

	e.logOutcome(ctx, purchaseID, outcome, result)
	if e.metrics != nil {
		e.metrics.RecordSettlement(string(result), string(status))
	}
	return result, nil
}

func (e *Engine) logOutcome(ctx context.Context, purchaseID string, outcome types.PurchaseOutcome, result Result) {
	switch result {
	case ResultSettled:
		e.logger.InfoContext(ctx, "purchase settled",
			"purchase_id", purchaseID,
			"outcome", outcome,
		)
	case ResultAlreadySettled:
		e.logger.InfoContext(ctx, "purchase already settled; ignoring redelivery",
			"purchase_id", purchaseID,
			"outcome", outcome,
		)
	case ResultPurchaseMissing:
		e.logger.WarnContext(ctx, "settlement event references unknown purchase",
			"purchase_id", purchaseID,
			"outcome", outcome,
		)
	case ResultReferenceMissing:
		e.logger.ErrorContext(ctx, "settlement rolled back; purchase references missing user or course",
			"purchase_id", purchaseID,
			"outcome", outcome,
		)
	}
}

// hasErrorCode reports whether err is an AppError carrying the given code.
func hasErrorCode(err error, code types.ErrorCode) bool {
	var appErr *types.AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
