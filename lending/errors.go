package lending

import (
	"errors"
)

// Business rejections: stable, user-facing outcomes of borrow/return requests.
var ErrItemNotFound = errors.New("item not found")
var ErrBorrowerNotFound = errors.New("borrower not found")
var ErrTransactionNotFound = errors.New("transaction not found")
var ErrItemUnavailable = errors.New("item is not available for borrowing")
var ErrNoActiveBorrow = errors.New("no active borrow transaction found")

// ErrIntegrityViolation signals more than one active transaction for the same
// (borrower, item) pair - a prior atomicity failure. It is fatal-class: logged
// and surfaced, never silently repaired.
var ErrIntegrityViolation = errors.New("integrity violation: multiple active transactions found")

// ErrConcurrentModification signals a detected write-write conflict on an
// atomic update, no rows were affected. It is the only retryable error.
var ErrConcurrentModification = errors.New("concurrent modification, no rows were affected")

// Configuration and infrastructure errors.
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrEmptyTableNameSupplied = errors.New("empty table name supplied")
var ErrBuildingQueryFailed = errors.New("building sql query failed")
var ErrQueryingStoreFailed = errors.New("querying the store failed")
var ErrExecutingStatementFailed = errors.New("executing sql statement failed")
var ErrScanningDBRowFailed = errors.New("scanning database row failed")
var ErrGettingRowsAffectedFailed = errors.New("getting rows affected count failed")
