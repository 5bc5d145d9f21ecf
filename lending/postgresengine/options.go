package postgresengine

import (
	"github.com/AarushGaikwad/LibraryManagementSystem/lending"
)

// Option defines a functional option for configuring a LendingStore.
type Option func(*LendingStore) error

// WithItemsTableName sets the items table name.
func WithItemsTableName(tableName string) Option {
	return func(s *LendingStore) error {
		if tableName == "" {
			return lending.ErrEmptyTableNameSupplied
		}

		s.itemsTable = tableName

		return nil
	}
}

// WithBorrowersTableName sets the borrowers table name.
func WithBorrowersTableName(tableName string) Option {
	return func(s *LendingStore) error {
		if tableName == "" {
			return lending.ErrEmptyTableNameSupplied
		}

		s.borrowersTable = tableName

		return nil
	}
}

// WithTransactionsTableName sets the transactions table name.
func WithTransactionsTableName(tableName string) Option {
	return func(s *LendingStore) error {
		if tableName == "" {
			return lending.ErrEmptyTableNameSupplied
		}

		s.transactionsTable = tableName

		return nil
	}
}

// WithAuditTableName sets the audit table name.
func WithAuditTableName(tableName string) Option {
	return func(s *LendingStore) error {
		if tableName == "" {
			return lending.ErrEmptyTableNameSupplied
		}

		s.auditTable = tableName

		return nil
	}
}

// WithLogger sets the logger for the LendingStore.
//
// Debug level: SQL statements with execution timing (development use)
// Info level: operation outcomes and concurrency conflicts (production-safe)
// Warn level: non-critical issues like cleanup failures
// Error level: critical failures that cause operation failures.
func WithLogger(logger lending.Logger) Option {
	return func(s *LendingStore) error {
		s.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the LendingStore.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(s *LendingStore) error {
		s.metrics = collector
		return nil
	}
}
