package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/AarushGaikwad/LibraryManagementSystem/lending"
)

// CreateActive inserts a new active transaction record.
//
// The ledger carries a partial unique index on (item_id) WHERE return_date IS
// NULL, so a second active record for the same item cannot be inserted even if
// the reservation gate were ever bypassed. The insert uses ON CONFLICT DO
// NOTHING and verifies the rows-affected count: zero rows means another
// writer holds the active slot, reported as lending.ErrConcurrentModification.
func (s LendingStore) CreateActive(ctx context.Context, transaction lending.Transaction) error {
	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(s.transactionsTable).
		Cols(colTransactionID, colBorrowerID, colItemID, colBorrowDate, colDueDate).
		Vals(goqu.Vals{
			transaction.ID.String(),
			transaction.BorrowerID.String(),
			transaction.ItemID.String(),
			transaction.BorrowDate,
			transaction.DueDate,
		}).
		OnConflict(goqu.DoNothing())

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return errors.Join(lending.ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, sqlQuery, logActionCreateActive)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		s.logOperation(logActionCreateActive+": "+logMsgConcurrencyConflict,
			lending.LogAttrTransactionID, transaction.ID.String(),
			logAttrRowsAffected, rowsAffected,
		)

		return lending.ErrConcurrentModification
	}

	s.logOperation(logActionCreateActive, lending.LogAttrTransactionID, transaction.ID.String())

	return nil
}

// FindActive returns the single active (unreturned) transaction for the
// given borrower and item.
//
// The lookup is keyed by (borrower_id, item_id, return_date IS NULL) and is
// served by a partial index, so its cost does not grow with total transaction
// volume. Finding more than one active record is an integrity violation from
// a prior atomicity failure - it is logged and surfaced, never repaired here.
func (s LendingStore) FindActive(ctx context.Context, borrowerID uuid.UUID, itemID uuid.UUID) (lending.Transaction, error) {
	selectStmt := s.selectTransactionColumns().
		Where(
			goqu.C(colBorrowerID).Eq(borrowerID.String()),
			goqu.C(colItemID).Eq(itemID.String()),
			goqu.C(colReturnDate).IsNull(),
		)

	transactions, queryErr := s.queryTransactions(ctx, selectStmt, logActionFindActive)
	if queryErr != nil {
		return lending.Transaction{}, queryErr
	}

	switch len(transactions) {
	case 0:
		return lending.Transaction{}, lending.ErrNoActiveBorrow

	case 1:
		return transactions[0], nil

	default:
		s.logError(logMsgIntegrityViolation,
			lending.LogAttrBorrowerID, borrowerID.String(),
			lending.LogAttrItemID, itemID.String(),
			logAttrActiveCount, len(transactions),
		)

		return lending.Transaction{}, lending.ErrIntegrityViolation
	}
}

// CloseActiveAndRelease closes the active transaction and releases its item
// as one indivisible statement.
//
// The close is guarded by return_date IS NULL; the release runs in the same
// statement through a data-modifying CTE, so no observer can ever see the
// record closed while the item is still reserved, or the reverse. Zero rows
// affected means the record was no longer active - a concurrent return won -
// reported as lending.ErrConcurrentModification.
func (s LendingStore) CloseActiveAndRelease(
	ctx context.Context,
	transactionID uuid.UUID,
	returnDate time.Time,
	fine float64,
) error {

	builder := goqu.Dialect(dialectPostgres)

	closeStmt := builder.
		Update(s.transactionsTable).
		Set(goqu.Record{colReturnDate: returnDate, colFine: fine}).
		Where(
			goqu.C(colTransactionID).Eq(transactionID.String()),
			goqu.C(colReturnDate).IsNull(),
		).
		Returning(colItemID)

	releaseStmt := builder.
		Update(s.itemsTable).
		Set(goqu.Record{colAvailable: true}).
		With(cteClosed, closeStmt).
		Where(goqu.C(colItemID).In(builder.From(cteClosed).Select(colItemID)))

	sqlQuery, _, toSQLErr := releaseStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return errors.Join(lending.ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, sqlQuery, logActionCloseAndRelease)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		s.logOperation(logActionCloseAndRelease+": "+logMsgConcurrencyConflict,
			lending.LogAttrTransactionID, transactionID.String(),
			logAttrRowsAffected, rowsAffected,
		)

		return lending.ErrConcurrentModification
	}

	s.logOperation(logActionCloseAndRelease, lending.LogAttrTransactionID, transactionID.String())

	return nil
}

// FindByID retrieves a single transaction by its identifier.
func (s LendingStore) FindByID(ctx context.Context, transactionID uuid.UUID) (lending.Transaction, error) {
	selectStmt := s.selectTransactionColumns().
		Where(goqu.C(colTransactionID).Eq(transactionID.String()))

	transactions, queryErr := s.queryTransactions(ctx, selectStmt, logActionFindByID)
	if queryErr != nil {
		return lending.Transaction{}, queryErr
	}

	if len(transactions) == 0 {
		return lending.Transaction{}, lending.ErrTransactionNotFound
	}

	return transactions[0], nil
}

// ListAll retrieves all transactions ordered by borrow date.
func (s LendingStore) ListAll(ctx context.Context) (lending.Transactions, error) {
	selectStmt := s.selectTransactionColumns().
		Order(goqu.I(colBorrowDate).Asc(), goqu.I(colTransactionID).Asc())

	return s.queryTransactions(ctx, selectStmt, logActionListAll)
}

func (s LendingStore) selectTransactionColumns() *goqu.SelectDataset {
	return goqu.Dialect(dialectPostgres).
		From(s.transactionsTable).
		Select(colTransactionID, colBorrowerID, colItemID, colBorrowDate, colDueDate, colReturnDate, colFine)
}

func (s LendingStore) queryTransactions(ctx context.Context, selectStmt *goqu.SelectDataset, action string) (lending.Transactions, error) {
	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return nil, errors.Join(lending.ErrBuildingQueryFailed, toSQLErr)
	}

	rows, queryErr := s.executeQuery(ctx, sqlQuery, action)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	return s.scanTransactionRows(rows)
}

// buildTransactionFromRow converts a scanned ledger row to the domain type.
func buildTransactionFromRow(row transactionRow) (lending.Transaction, error) {
	transactionID, err := uuid.Parse(row.transactionID)
	if err != nil {
		return lending.Transaction{}, err
	}

	borrowerID, err := uuid.Parse(row.borrowerID)
	if err != nil {
		return lending.Transaction{}, err
	}

	itemID, err := uuid.Parse(row.itemID)
	if err != nil {
		return lending.Transaction{}, err
	}

	transaction := lending.Transaction{
		ID:         transactionID,
		BorrowerID: borrowerID,
		ItemID:     itemID,
		BorrowDate: lending.ToLendingDate(row.borrowDate),
		DueDate:    lending.ToLendingDate(row.dueDate),
	}

	if row.returnDate.Valid {
		returnedOn := lending.ToLendingDate(row.returnDate.Time)
		transaction.ReturnDate = &returnedOn
	}

	if row.fine.Valid {
		fine := row.fine.Float64
		transaction.Fine = &fine
	}

	return transaction, nil
}
