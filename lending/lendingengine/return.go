package lendingengine

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/AarushGaikwad/LibraryManagementSystem/lending"
)

// Return closes the borrower's active transaction for the item, assessing the
// late-return fine, and releases the item again.
//
// Closing the record and releasing the item commit as one indivisible store
// update. Two concurrent returns for the same active transaction cannot both
// succeed: the loser's close affects no rows, is retried, and then observes
// lending.ErrNoActiveBorrow - the second call changes no state.
func (e Engine) Return(ctx context.Context, identity lending.Identity, itemID uuid.UUID) (lending.Transaction, error) {
	var transaction lending.Transaction

	retryMetrics, err := lending.RetryWithExponentialBackoff(
		ctx,
		func(retryCtx context.Context) error {
			var attemptErr error
			transaction, attemptErr = e.attemptReturn(retryCtx, identity, itemID)

			return attemptErr
		},
		e.retryOptionsFor(operationTypeReturn)...,
	)

	if err != nil {
		if errors.Is(err, lending.ErrIntegrityViolation) {
			e.logError(logMsgIntegrityViolation,
				lending.LogAttrItemID, itemID.String(),
				lending.LogAttrBorrowerID, identity.BorrowerID.String(),
			)
		}

		return lending.Transaction{}, err
	}

	e.logInfo(logMsgReturnCommitted,
		lending.LogAttrTransactionID, transaction.ID.String(),
		lending.LogAttrItemID, itemID.String(),
		lending.LogAttrBorrowerID, identity.BorrowerID.String(),
		logAttrFine, *transaction.Fine,
		logAttrRetryAttempts, retryMetrics.Attempts,
	)

	e.appendAuditEvent(ctx, lending.BuildItemReturned(transaction, identity))

	return transaction, nil
}

// attemptReturn is one find-then-close attempt. When the close loses a race it
// reports lending.ErrConcurrentModification and the next attempt re-reads the
// ledger, which then yields lending.ErrNoActiveBorrow.
func (e Engine) attemptReturn(ctx context.Context, identity lending.Identity, itemID uuid.UUID) (lending.Transaction, error) {
	active, findErr := e.ledger.FindActive(ctx, identity.BorrowerID, itemID)
	if findErr != nil {
		return lending.Transaction{}, findErr
	}

	returnDate := lending.ToLendingDate(e.clock())
	fine := lending.FineForReturn(active.DueDate, returnDate, e.finePerDay)

	if closeErr := e.ledger.CloseActiveAndRelease(ctx, active.ID, returnDate, fine); closeErr != nil {
		return lending.Transaction{}, closeErr
	}

	return active.Closed(returnDate, fine), nil
}

// FindByID retrieves a single transaction by its identifier, for reporting
// collaborators. Returns lending.ErrTransactionNotFound when no such record exists.
func (e Engine) FindByID(ctx context.Context, transactionID uuid.UUID) (lending.Transaction, error) {
	return e.ledger.FindByID(ctx, transactionID)
}

// ListAll retrieves all transactions, for reporting collaborators.
func (e Engine) ListAll(ctx context.Context) (lending.Transactions, error) {
	return e.ledger.ListAll(ctx)
}
