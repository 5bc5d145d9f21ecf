package lending

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

const (
	defaultMaxAttempts  = 4
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3
)

var (
	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")

	// ErrNilMetricsCollector is returned when a nil metrics collector is provided to WithRetryMetrics.
	ErrNilMetricsCollector = errors.New("metrics collector must not be nil")

	// ErrEmptyOperationType is returned when an empty operation type is provided to WithRetryMetrics.
	ErrEmptyOperationType = errors.New("operation type must not be empty")
)

// RetryableFunc represents a function that can be retried.
type RetryableFunc func(ctx context.Context) error

// RetryMetrics captures execution metadata of a retried operation.
type RetryMetrics struct {
	// Attempts is the total number of attempts made (1 for no retries).
	Attempts int

	// TotalDelay is the cumulative time spent in backoff sleeps.
	TotalDelay time.Duration

	// LastErrorType describes the final error: "none", "concurrent_modification",
	// "context_canceled", "context_deadline_exceeded" or "other".
	LastErrorType string

	// RetriesExhausted is true when all attempts were used up on a retryable error.
	RetriesExhausted bool
}

// retryConfig holds configuration for exponential backoff retry logic.
type retryConfig struct {
	maxAttempts      int
	baseDelay        time.Duration
	jitterFactor     float64
	metricsCollector MetricsCollector
	operationType    string
}

// RetryOption configures retry behavior using the functional options pattern.
type RetryOption func(*retryConfig) error

// WithMaxAttempts sets the maximum number of retry attempts.
func WithMaxAttempts(attempts int) RetryOption {
	return func(config *retryConfig) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		config.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
// Actual delays: baseDelay, baseDelay*2, baseDelay*4, etc.
func WithBaseDelay(delay time.Duration) RetryOption {
	return func(config *retryConfig) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}

		config.baseDelay = delay

		return nil
	}
}

// WithJitterFactor sets the jitter factor to prevent thundering herd problems.
// Jitter is added as a percentage of the calculated backoff delay.
// Valid range: 0.0 (no jitter) to 1.0 (100% jitter).
func WithJitterFactor(factor float64) RetryOption {
	return func(config *retryConfig) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}

		config.jitterFactor = factor

		return nil
	}
}

// WithRetryMetrics sets the metrics collector for retry instrumentation.
// Requires operationType to properly label metrics.
func WithRetryMetrics(collector MetricsCollector, operationType string) RetryOption {
	return func(config *retryConfig) error {
		if collector == nil {
			return ErrNilMetricsCollector
		}

		if operationType == "" {
			return ErrEmptyOperationType
		}

		config.metricsCollector = collector
		config.operationType = operationType

		return nil
	}
}

// RetryWithExponentialBackoff executes the provided function with exponential
// backoff retry logic, retrying only on ErrConcurrentModification up to
// maxAttempts times. All other errors fail fast.
//
// Retry schedule (default): 0 ms, 10 ms, 20 ms, 40 ms (with 30% jitter).
//
// Business rejections are never retried: a conflicting concurrent attempt that
// fails for a detected concurrent modification is safe to retry, a rejected
// borrow or return is not.
func RetryWithExponentialBackoff(
	ctx context.Context,
	fn RetryableFunc,
	options ...RetryOption,
) (RetryMetrics, error) {

	config := &retryConfig{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}

	for _, option := range options {
		if err := option(config); err != nil {
			return RetryMetrics{}, err
		}
	}

	metrics := RetryMetrics{LastErrorType: errorTypeNone}

	var lastErr error

	for attempt := 0; attempt < config.maxAttempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff: baseDelay * 2^(attempt-1)
			delay := config.baseDelay * time.Duration(1<<(attempt-1))

			// Add jitter to prevent thundering herd
			jitter := rand.Float64() * float64(delay) * config.jitterFactor //nolint:gosec //math/rand is sufficient for jitter
			backoffDelay := delay + time.Duration(jitter)

			recordRetryDelayMetric(config, attempt, backoffDelay)

			select {
			case <-time.After(backoffDelay):
				metrics.TotalDelay += backoffDelay
			case <-ctx.Done():
				metrics.Attempts = attempt
				metrics.LastErrorType = retryErrorType(ctx.Err())

				return metrics, ctx.Err()
			}
		}

		metrics.Attempts = attempt + 1
		lastErr = fn(ctx)

		if lastErr == nil {
			metrics.LastErrorType = errorTypeNone
			return metrics, nil
		}

		metrics.LastErrorType = retryErrorType(lastErr)

		if !isRetryableError(lastErr) {
			return metrics, lastErr // Permanent failure
		}

		recordRetryAttemptMetric(config, attempt, lastErr)
	}

	metrics.RetriesExhausted = true
	recordMaxRetriesReachedMetric(config, lastErr)

	return metrics, lastErr // Max attempts reached
}

// isRetryableError determines if an error should be retried.
// Only concurrent modification conflicts are retryable.
//
// A context.DeadlineExceeded is NOT retryable - retrying timeouts during
// overload creates cascade failures; they should fail fast instead.
func isRetryableError(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

const errorTypeNone = "none"

// retryErrorType extracts a string representation of the error type for metrics labeling.
func retryErrorType(err error) string {
	switch {
	case err == nil:
		return errorTypeNone
	case errors.Is(err, ErrConcurrentModification):
		return "concurrent_modification"
	case errors.Is(err, context.Canceled):
		return "context_canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "context_deadline_exceeded"
	default:
		return "other"
	}
}

// recordRetryDelayMetric records the actual backoff delay before each retry attempt.
func recordRetryDelayMetric(config *retryConfig, attempt int, backoffDelay time.Duration) {
	if config.metricsCollector == nil {
		return
	}

	config.metricsCollector.RecordDuration(EngineRetryDelayMetric, backoffDelay, map[string]string{
		LogAttrOperationType: config.operationType,
		"attempt_number":     fmt.Sprintf("%d", attempt),
	})
}

// recordRetryAttemptMetric tracks retry attempts by operation type, attempt number, and error type.
func recordRetryAttemptMetric(config *retryConfig, attempt int, lastErr error) {
	if config.metricsCollector == nil || attempt >= config.maxAttempts-1 {
		return
	}

	config.metricsCollector.IncrementCounter(EngineRetriesMetric, map[string]string{
		LogAttrOperationType: config.operationType,
		"attempt_number":     fmt.Sprintf("%d", attempt+1),
		"error_type":         retryErrorType(lastErr),
	})
}

// recordMaxRetriesReachedMetric tracks when retry exhaustion occurs with the final error type.
func recordMaxRetriesReachedMetric(config *retryConfig, lastErr error) {
	if config.metricsCollector == nil {
		return
	}

	config.metricsCollector.IncrementCounter(EngineMaxRetriesReachedMetric, map[string]string{
		LogAttrOperationType: config.operationType,
		"final_error_type":   retryErrorType(lastErr),
	})
}
