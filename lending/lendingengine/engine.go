package lendingengine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AarushGaikwad/LibraryManagementSystem/lending"
)

const (
	operationTypeBorrow = "Borrow"
	operationTypeReturn = "Return"

	logMsgReservationRolledBack    = "reservation rolled back after recording failure"
	logMsgRollbackFailed           = "rolling back reservation failed, item may be stuck unavailable"
	logMsgIntegrityViolation       = "integrity violation detected on return"
	logMsgAuditAppendFailed        = "appending audit event failed"
	logMsgBorrowCommitted          = "borrow committed"
	logMsgReturnCommitted          = "return committed"
	logAttrDueDate                 = "due_date"
	logAttrFine                    = "fine"
	logAttrRetryAttempts           = "retry_attempts"
)

// ErrNilInventory is returned when no inventory store is supplied.
var ErrNilInventory = errors.New("inventory store must not be nil")

// ErrNilLedger is returned when no transaction ledger is supplied.
var ErrNilLedger = errors.New("transaction ledger must not be nil")

// ErrNilBorrowerDirectory is returned when no borrower directory is supplied.
var ErrNilBorrowerDirectory = errors.New("borrower directory must not be nil")

// Inventory is the per-item availability store used by the engine.
// TryReserve must atomically test-and-flip availability in one indivisible
// step relative to all other reservation attempts on the same item: it
// returns nil on success, lending.ErrItemUnavailable when the item is already
// reserved, and lending.ErrItemNotFound when no such item exists.
type Inventory interface {
	TryReserve(ctx context.Context, itemID uuid.UUID) error
	Release(ctx context.Context, itemID uuid.UUID) error
}

// Ledger is the append/update-once store of borrow records used by the engine.
//
// FindActive returns the single active record for a (borrower, item) pair,
// lending.ErrNoActiveBorrow when there is none, and
// lending.ErrIntegrityViolation when more than one exists.
//
// CloseActiveAndRelease closes exactly one active record and releases the item
// as a single atomic unit; it returns lending.ErrConcurrentModification when
// the record was no longer active.
type Ledger interface {
	CreateActive(ctx context.Context, transaction lending.Transaction) error
	FindActive(ctx context.Context, borrowerID uuid.UUID, itemID uuid.UUID) (lending.Transaction, error)
	CloseActiveAndRelease(ctx context.Context, transactionID uuid.UUID, returnDate time.Time, fine float64) error
	FindByID(ctx context.Context, transactionID uuid.UUID) (lending.Transaction, error)
	ListAll(ctx context.Context) (lending.Transactions, error)
}

// BorrowerDirectory answers whether a borrower is registered. The borrower
// registry itself is owned by the user management collaborator; the engine
// only reads existence.
type BorrowerDirectory interface {
	HasBorrower(ctx context.Context, borrowerID uuid.UUID) (bool, error)
}

// AuditLog records completed lending activity. Appending is best-effort and
// happens after the commit; failures are logged, never surfaced.
type AuditLog interface {
	AppendAuditEvent(ctx context.Context, event lending.AuditEvent) error
}

// Engine orchestrates the inventory store, the transaction ledger and the
// fine calculation into atomic borrow and return operations.
type Engine struct {
	inventory    Inventory
	ledger       Ledger
	borrowers    BorrowerDirectory
	auditLog     AuditLog
	clock        func() time.Time
	borrowDays   int
	finePerDay   float64
	logger       lending.Logger
	metrics      lending.MetricsCollector
	retryOptions []lending.RetryOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine) error

// ErrInvalidBorrowDays is returned when the borrow window is not positive.
var ErrInvalidBorrowDays = errors.New("borrow days must be positive")

// ErrNegativeFinePerDay is returned when the fine rate is negative.
var ErrNegativeFinePerDay = errors.New("fine per day must not be negative")

// WithClock sets the time source, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) error {
		e.clock = clock
		return nil
	}
}

// WithBorrowDays sets the borrow window in days.
func WithBorrowDays(days int) Option {
	return func(e *Engine) error {
		if days <= 0 {
			return ErrInvalidBorrowDays
		}

		e.borrowDays = days

		return nil
	}
}

// WithFinePerDay sets the daily late-return penalty rate.
func WithFinePerDay(rate float64) Option {
	return func(e *Engine) error {
		if rate < 0 {
			return ErrNegativeFinePerDay
		}

		e.finePerDay = rate

		return nil
	}
}

// WithLogger sets the logger for the Engine.
func WithLogger(logger lending.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Engine.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(e *Engine) error {
		e.metrics = collector
		return nil
	}
}

// WithAuditLog sets the audit log for the Engine.
func WithAuditLog(auditLog AuditLog) Option {
	return func(e *Engine) error {
		e.auditLog = auditLog
		return nil
	}
}

// WithRetryOptions sets a custom retry configuration for concurrency conflicts.
func WithRetryOptions(opts ...lending.RetryOption) Option {
	return func(e *Engine) error {
		e.retryOptions = opts
		return nil
	}
}

// NewEngine creates an Engine with the given stores and optional configuration.
func NewEngine(
	inventory Inventory,
	ledger Ledger,
	borrowers BorrowerDirectory,
	options ...Option,
) (Engine, error) {

	if inventory == nil {
		return Engine{}, ErrNilInventory
	}

	if ledger == nil {
		return Engine{}, ErrNilLedger
	}

	if borrowers == nil {
		return Engine{}, ErrNilBorrowerDirectory
	}

	engine := Engine{
		inventory:  inventory,
		ledger:     ledger,
		borrowers:  borrowers,
		clock:      time.Now,
		borrowDays: lending.DefaultBorrowDays,
		finePerDay: lending.DefaultFinePerDay,
	}

	for _, option := range options {
		if err := option(&engine); err != nil {
			return Engine{}, err
		}
	}

	return engine, nil
}

// retryOptionsFor combines the configured retry options with metrics labeling
// for the given operation type.
func (e Engine) retryOptionsFor(operationType string) []lending.RetryOption {
	options := e.retryOptions

	if e.metrics != nil {
		options = append(options, lending.WithRetryMetrics(e.metrics, operationType))
	}

	return options
}

// appendAuditEvent appends an audit event if an audit log is configured.
// Failures are logged and swallowed: the lending outcome is already committed.
func (e Engine) appendAuditEvent(ctx context.Context, event lending.AuditEvent) {
	if e.auditLog == nil {
		return
	}

	if err := e.auditLog.AppendAuditEvent(ctx, event); err != nil {
		e.logWarn(logMsgAuditAppendFailed, lending.LogAttrError, err.Error())
	}
}

func (e Engine) logWarn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}

func (e Engine) logError(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Error(msg, args...)
	}
}

func (e Engine) logInfo(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Info(msg, args...)
	}
}
