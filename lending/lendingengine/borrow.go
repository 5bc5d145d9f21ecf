package lendingengine

import (
	"context"

	"github.com/google/uuid"

	"github.com/AarushGaikwad/LibraryManagementSystem/lending"
)

// Borrow reserves the item for the identified borrower and records the active
// transaction.
//
// The reservation is the mutual-exclusion gate: of any number of concurrent
// borrow attempts for the same item, exactly one passes TryReserve, the rest
// observe lending.ErrItemUnavailable. Reservation and record must commit as a
// single unit - if recording fails after a successful reservation, the
// reservation is rolled back so the item is never stuck unavailable without a
// transaction.
//
// The identity is trusted as already authenticated by the authorization gate.
func (e Engine) Borrow(ctx context.Context, identity lending.Identity, itemID uuid.UUID) (lending.Transaction, error) {
	known, err := e.borrowers.HasBorrower(ctx, identity.BorrowerID)
	if err != nil {
		return lending.Transaction{}, err
	}

	if !known {
		return lending.Transaction{}, lending.ErrBorrowerNotFound
	}

	var transaction lending.Transaction

	retryMetrics, err := lending.RetryWithExponentialBackoff(
		ctx,
		func(retryCtx context.Context) error {
			var attemptErr error
			transaction, attemptErr = e.attemptBorrow(retryCtx, identity, itemID)

			return attemptErr
		},
		e.retryOptionsFor(operationTypeBorrow)...,
	)

	if err != nil {
		return lending.Transaction{}, err
	}

	e.logInfo(logMsgBorrowCommitted,
		lending.LogAttrTransactionID, transaction.ID.String(),
		lending.LogAttrItemID, itemID.String(),
		lending.LogAttrBorrowerID, identity.BorrowerID.String(),
		logAttrDueDate, transaction.DueDate,
		logAttrRetryAttempts, retryMetrics.Attempts,
	)

	e.appendAuditEvent(ctx, lending.BuildItemBorrowed(transaction, identity))

	return transaction, nil
}

// attemptBorrow is one reserve-then-record attempt. It can be retried when the
// ledger reports a concurrent modification.
func (e Engine) attemptBorrow(ctx context.Context, identity lending.Identity, itemID uuid.UUID) (lending.Transaction, error) {
	if reserveErr := e.inventory.TryReserve(ctx, itemID); reserveErr != nil {
		return lending.Transaction{}, reserveErr
	}

	transaction := lending.BuildActiveTransaction(
		uuid.New(),
		identity.BorrowerID,
		itemID,
		e.clock(),
		e.borrowDays,
	)

	if createErr := e.ledger.CreateActive(ctx, transaction); createErr != nil {
		e.rollbackReservation(ctx, itemID, createErr)
		return lending.Transaction{}, createErr
	}

	return transaction, nil
}

// rollbackReservation compensates a reservation whose transaction record could
// not be written. A failed rollback leaves the item unavailable with no active
// transaction, which is exactly the inventory leak the protocol exists to
// prevent - it is logged at error level for operational follow-up.
func (e Engine) rollbackReservation(ctx context.Context, itemID uuid.UUID, cause error) {
	if releaseErr := e.inventory.Release(ctx, itemID); releaseErr != nil {
		e.logError(logMsgRollbackFailed,
			lending.LogAttrItemID, itemID.String(),
			lending.LogAttrError, releaseErr.Error(),
		)

		return
	}

	e.logWarn(logMsgReservationRolledBack,
		lending.LogAttrItemID, itemID.String(),
		lending.LogAttrError, cause.Error(),
	)
}
