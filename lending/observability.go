package lending

import (
	"time"
)

// Logger interface for SQL query logging, operational messages, warnings, and
// error reporting. Implementations are supplied by the composition root (for
// example a zerolog or slog adapter); the core stays dependency-free.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MetricsCollector interface for collecting performance and operational
// metrics from the lending engine and store. Implementations can forward to
// any metrics backend; a nil collector disables collection.
type MetricsCollector interface {
	RecordDuration(metric string, duration time.Duration, labels map[string]string)
	IncrementCounter(metric string, labels map[string]string)
	RecordValue(metric string, value float64, labels map[string]string)
}

// Metric names emitted by the engine and the retry helper.
const (
	EngineRetriesMetric           = "lending_engine_retries_total"
	EngineRetryDelayMetric        = "lending_engine_retry_delay_seconds"
	EngineMaxRetriesReachedMetric = "lending_engine_max_retries_reached_total"
)

// Label keys used on metrics and structured log lines.
const (
	LogAttrOperationType = "operation_type"
	LogAttrError         = "error"
	LogAttrItemID        = "item_id"
	LogAttrBorrowerID    = "borrower_id"
	LogAttrTransactionID = "transaction_id"
)
