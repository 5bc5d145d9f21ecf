package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/AarushGaikwad/LibraryManagementSystem/lending"
)

// TryReserve atomically flips the item's availability from true to false.
//
// The whole test-and-flip is one conditional UPDATE; success is verified
// through the rows-affected count, so two concurrent reservations of the same
// item can never both succeed. No rows affected means the item either does
// not exist or is already reserved; a follow-up existence check distinguishes
// lending.ErrItemNotFound from lending.ErrItemUnavailable.
func (s LendingStore) TryReserve(ctx context.Context, itemID uuid.UUID) error {
	updateStmt := goqu.Dialect(dialectPostgres).
		Update(s.itemsTable).
		Set(goqu.Record{colAvailable: false}).
		Where(
			goqu.C(colItemID).Eq(itemID.String()),
			goqu.C(colAvailable).IsTrue(),
		)

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return errors.Join(lending.ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, sqlQuery, logActionTryReserve)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 1 {
		s.logOperation(logActionTryReserve, lending.LogAttrItemID, itemID.String())
		return nil
	}

	exists, existsErr := s.itemExists(ctx, itemID)
	if existsErr != nil {
		return existsErr
	}

	if !exists {
		return lending.ErrItemNotFound
	}

	s.logOperation(logActionTryReserve+": "+logMsgConcurrencyConflict, lending.LogAttrItemID, itemID.String())

	return lending.ErrItemUnavailable
}

// Release atomically sets the item available again.
func (s LendingStore) Release(ctx context.Context, itemID uuid.UUID) error {
	updateStmt := goqu.Dialect(dialectPostgres).
		Update(s.itemsTable).
		Set(goqu.Record{colAvailable: true}).
		Where(goqu.C(colItemID).Eq(itemID.String()))

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return errors.Join(lending.ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, sqlQuery, logActionRelease)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return lending.ErrItemNotFound
	}

	s.logOperation(logActionRelease, lending.LogAttrItemID, itemID.String())

	return nil
}

// itemExists reports whether the item row exists at all, regardless of availability.
func (s LendingStore) itemExists(ctx context.Context, itemID uuid.UUID) (bool, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(s.itemsTable).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C(colItemID).Eq(itemID.String()))

	return s.countGreaterThanZero(ctx, selectStmt, logActionTryReserve)
}

// HasBorrower reports whether the borrower is registered. The borrower
// registry is written by the user management collaborator; the lending core
// only reads existence.
func (s LendingStore) HasBorrower(ctx context.Context, borrowerID uuid.UUID) (bool, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(s.borrowersTable).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C(colBorrowerID).Eq(borrowerID.String()))

	return s.countGreaterThanZero(ctx, selectStmt, logActionHasBorrower)
}

// countGreaterThanZero executes a COUNT(*) query and reports whether it is positive.
func (s LendingStore) countGreaterThanZero(ctx context.Context, selectStmt *goqu.SelectDataset, action string) (bool, error) {
	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return false, errors.Join(lending.ErrBuildingQueryFailed, toSQLErr)
	}

	rows, queryErr := s.executeQuery(ctx, sqlQuery, action)
	if queryErr != nil {
		return false, queryErr
	}
	defer s.closeRows(rows)

	var count int64

	for rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			s.logError(logMsgScanRowFailed, logAttrError, scanErr.Error())
			return false, errors.Join(lending.ErrScanningDBRowFailed, scanErr)
		}
	}

	return count > 0, nil
}
