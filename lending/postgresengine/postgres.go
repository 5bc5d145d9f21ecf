package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AarushGaikwad/LibraryManagementSystem/lending"
	"github.com/AarushGaikwad/LibraryManagementSystem/lending/postgresengine/internal/adapters"
)

const (
	defaultItemsTableName        = "items"
	defaultBorrowersTableName    = "borrowers"
	defaultTransactionsTableName = "transactions"
	defaultAuditTableName        = "lending_audit"

	logMsgBuildQueryFailed      = "failed to build sql query"
	logMsgDBQueryFailed         = "database query execution failed"
	logMsgDBExecFailed          = "database execution failed"
	logMsgCloseRowsFailed       = "failed to close database rows"
	logMsgScanRowFailed         = "failed to scan database row"
	logMsgRowsAffectedFailed    = "failed to get rows affected count"
	logMsgConcurrencyConflict   = "concurrency conflict detected"
	logMsgIntegrityViolation    = "more than one active transaction found"
	logMsgSQLExecuted           = "executed sql for: "
	logMsgOperation             = "lending store operation: "
	logAttrError                = "error"
	logAttrQuery                = "query"
	logAttrDurationMS           = "duration_ms"
	logAttrRowsAffected         = "rows_affected"
	logAttrActiveCount          = "active_count"
	logActionTryReserve         = "try-reserve"
	logActionRelease            = "release"
	logActionCreateActive       = "create-active"
	logActionFindActive         = "find-active"
	logActionCloseAndRelease    = "close-and-release"
	logActionFindByID           = "find-by-id"
	logActionListAll            = "list-all"
	logActionHasBorrower        = "has-borrower"
	logActionAppendAudit        = "append-audit"

	colItemID        = "item_id"
	colAvailable     = "available"
	colBorrowerID    = "borrower_id"
	colTransactionID = "transaction_id"
	colBorrowDate    = "borrow_date"
	colDueDate       = "due_date"
	colReturnDate    = "return_date"
	colFine          = "fine"
	colEventType     = "event_type"
	colOccurredAt    = "occurred_at"
	colPayload       = "payload"

	cteClosed       = "closed"
	dialectPostgres = "postgres"
	castJsonb       = "?::jsonb"
)

type (
	sqlQueryString    = string
	rowsAffectedInt64 = int64
)

// LendingStore is the Postgres-backed storage for the lending kernel. It
// implements the engine's Inventory, Ledger, BorrowerDirectory and AuditLog
// contracts on one set of tables, using a database adapter and customizable
// logging and table configuration.
type LendingStore struct {
	db                adapters.DBAdapter
	itemsTable        string
	borrowersTable    string
	transactionsTable string
	auditTable        string
	logger            lending.Logger
	metrics           lending.MetricsCollector
}

// NewLendingStoreFromPGXPool creates a LendingStore using a pgx pool with optional configuration.
func NewLendingStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (LendingStore, error) {
	if db == nil {
		return LendingStore{}, lending.ErrNilDatabaseConnection
	}

	return buildLendingStore(adapters.NewPGXAdapter(db), options...)
}

// NewLendingStoreFromSQLDB creates a LendingStore using a sql.DB with optional configuration.
func NewLendingStoreFromSQLDB(db *sql.DB, options ...Option) (LendingStore, error) {
	if db == nil {
		return LendingStore{}, lending.ErrNilDatabaseConnection
	}

	return buildLendingStore(adapters.NewSQLAdapter(db), options...)
}

// NewLendingStoreFromSQLX creates a LendingStore using a sqlx.DB with optional configuration.
func NewLendingStoreFromSQLX(db *sqlx.DB, options ...Option) (LendingStore, error) {
	if db == nil {
		return LendingStore{}, lending.ErrNilDatabaseConnection
	}

	return buildLendingStore(adapters.NewSQLXAdapter(db), options...)
}

func buildLendingStore(db adapters.DBAdapter, options ...Option) (LendingStore, error) {
	store := LendingStore{
		db:                db,
		itemsTable:        defaultItemsTableName,
		borrowersTable:    defaultBorrowersTableName,
		transactionsTable: defaultTransactionsTableName,
		auditTable:        defaultAuditTableName,
	}

	for _, option := range options {
		if err := option(&store); err != nil {
			return LendingStore{}, err
		}
	}

	return store, nil
}

// transactionRow carries one scanned ledger row before conversion to the domain type.
type transactionRow struct {
	transactionID string
	borrowerID    string
	itemID        string
	borrowDate    time.Time
	dueDate       time.Time
	returnDate    sql.NullTime
	fine          sql.NullFloat64
}

// executeStatement runs a mutating statement and returns the rows-affected count.
func (s LendingStore) executeStatement(
	ctx context.Context,
	sqlQuery sqlQueryString,
	action string,
) (rowsAffectedInt64, error) {

	start := time.Now()
	result, execErr := s.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(sqlQuery, action, duration)
	s.recordDuration(action, duration)

	if execErr != nil {
		s.logError(logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		return 0, errors.Join(lending.ErrExecutingStatementFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		s.logError(logMsgRowsAffectedFailed, logAttrError, rowsAffectedErr.Error())
		return 0, errors.Join(lending.ErrGettingRowsAffectedFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// executeQuery runs a select statement and returns the rows.
func (s LendingStore) executeQuery(
	ctx context.Context,
	sqlQuery sqlQueryString,
	action string,
) (adapters.DBRows, error) {

	start := time.Now()
	rows, queryErr := s.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(sqlQuery, action, duration)
	s.recordDuration(action, duration)

	if queryErr != nil {
		s.logError(logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		return nil, errors.Join(lending.ErrQueryingStoreFailed, queryErr)
	}

	return rows, nil
}

// closeRows safely closes database rows and logs any errors.
func (s LendingStore) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// scanTransactionRows drains the rows into domain transactions.
func (s LendingStore) scanTransactionRows(rows adapters.DBRows) (lending.Transactions, error) {
	transactions := make(lending.Transactions, 0)

	for rows.Next() {
		row := transactionRow{}

		scanErr := rows.Scan(
			&row.transactionID,
			&row.borrowerID,
			&row.itemID,
			&row.borrowDate,
			&row.dueDate,
			&row.returnDate,
			&row.fine,
		)
		if scanErr != nil {
			s.logError(logMsgScanRowFailed, logAttrError, scanErr.Error())
			return nil, errors.Join(lending.ErrScanningDBRowFailed, scanErr)
		}

		transaction, buildErr := buildTransactionFromRow(row)
		if buildErr != nil {
			s.logError(logMsgScanRowFailed, logAttrError, buildErr.Error())
			return nil, errors.Join(lending.ErrScanningDBRowFailed, buildErr)
		}

		transactions = append(transactions, transaction)
	}

	return transactions, nil
}

// logQueryWithDuration logs SQL queries with execution time at debug level if the logger is configured.
func (s LendingStore) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if the logger is configured.
func (s LendingStore) logOperation(action string, args ...any) {
	if s.logger != nil {
		s.logger.Info(logMsgOperation+action, args...)
	}
}

func (s LendingStore) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s LendingStore) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}

// recordDuration records the statement duration if a metrics collector is configured.
func (s LendingStore) recordDuration(action string, duration time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordDuration(
			"lending_store_statement_duration_seconds",
			duration,
			map[string]string{"action": action},
		)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
