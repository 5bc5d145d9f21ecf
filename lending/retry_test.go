package lending_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AarushGaikwad/LibraryManagementSystem/lending"
)

func Test_RetryWithExponentialBackoff_Success_NoRetries(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return nil // Success on the first attempt
	}

	metrics, err := lending.RetryWithExponentialBackoff(ctx, fn)

	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, metrics.Attempts)
	assert.Equal(t, time.Duration(0), metrics.TotalDelay)
	assert.Equal(t, "none", metrics.LastErrorType)
	assert.False(t, metrics.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_RetryOnConcurrentModification(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return lending.ErrConcurrentModification // Fail twice
		}
		return nil // Success on the third attempt
	}

	metrics, err := lending.RetryWithExponentialBackoff(ctx, fn)

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, metrics.Attempts)
	assert.Greater(t, metrics.TotalDelay, time.Duration(0))
	assert.Equal(t, "none", metrics.LastErrorType)
}

func Test_RetryWithExponentialBackoff_NoRetryOnBusinessRejection(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return lending.ErrItemUnavailable
	}

	metrics, err := lending.RetryWithExponentialBackoff(ctx, fn)

	assert.ErrorIs(t, err, lending.ErrItemUnavailable)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, metrics.Attempts)
	assert.Equal(t, "other", metrics.LastErrorType)
	assert.False(t, metrics.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_MaxAttemptsReached(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return lending.ErrConcurrentModification
	}

	metrics, err := lending.RetryWithExponentialBackoff(ctx, fn,
		lending.WithMaxAttempts(3),
		lending.WithBaseDelay(time.Millisecond),
	)

	assert.ErrorIs(t, err, lending.ErrConcurrentModification)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, metrics.Attempts)
	assert.Equal(t, "concurrent_modification", metrics.LastErrorType)
	assert.True(t, metrics.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_WrappedConflictIsRetried(t *testing.T) {
	ctx := context.Background()
	callCount := 0
	wrapped := errors.Join(lending.ErrConcurrentModification, errors.New("active borrow already recorded"))

	fn := func(_ context.Context) error {
		callCount++
		if callCount < 2 {
			return wrapped
		}
		return nil
	}

	metrics, err := lending.RetryWithExponentialBackoff(ctx, fn,
		lending.WithBaseDelay(time.Millisecond))

	assert.NoError(t, err)
	assert.Equal(t, 2, callCount)
	assert.Equal(t, 2, metrics.Attempts)
}

func Test_RetryWithExponentialBackoff_ContextCanceledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		cancel() // Cancel while the retry loop is sleeping
		return lending.ErrConcurrentModification
	}

	metrics, err := lending.RetryWithExponentialBackoff(ctx, fn,
		lending.WithBaseDelay(time.Second))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "context_canceled", metrics.LastErrorType)
}

func Test_RetryWithExponentialBackoff_InvalidOptions(t *testing.T) {
	ctx := context.Background()
	fn := func(_ context.Context) error { return nil }

	_, err := lending.RetryWithExponentialBackoff(ctx, fn, lending.WithMaxAttempts(0))
	assert.ErrorIs(t, err, lending.ErrInvalidMaxAttempts)

	_, err = lending.RetryWithExponentialBackoff(ctx, fn, lending.WithBaseDelay(-1*time.Second))
	assert.ErrorIs(t, err, lending.ErrNegativeBaseDelay)

	_, err = lending.RetryWithExponentialBackoff(ctx, fn, lending.WithJitterFactor(1.5))
	assert.ErrorIs(t, err, lending.ErrInvalidJitterFactor)

	_, err = lending.RetryWithExponentialBackoff(ctx, fn, lending.WithRetryMetrics(nil, "borrow"))
	assert.ErrorIs(t, err, lending.ErrNilMetricsCollector)
}

type capturingMetricsCollector struct {
	counters  []string
	durations []string
}

func (c *capturingMetricsCollector) RecordDuration(metric string, _ time.Duration, _ map[string]string) {
	c.durations = append(c.durations, metric)
}

func (c *capturingMetricsCollector) IncrementCounter(metric string, _ map[string]string) {
	c.counters = append(c.counters, metric)
}

func (c *capturingMetricsCollector) RecordValue(string, float64, map[string]string) {}

func Test_RetryWithExponentialBackoff_RecordsRetryMetrics(t *testing.T) {
	ctx := context.Background()
	collector := &capturingMetricsCollector{}
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return lending.ErrConcurrentModification
	}

	_, err := lending.RetryWithExponentialBackoff(ctx, fn,
		lending.WithMaxAttempts(2),
		lending.WithBaseDelay(time.Millisecond),
		lending.WithRetryMetrics(collector, "borrow"),
	)

	assert.ErrorIs(t, err, lending.ErrConcurrentModification)
	assert.Contains(t, collector.counters, lending.EngineRetriesMetric)
	assert.Contains(t, collector.counters, lending.EngineMaxRetriesReachedMetric)
	assert.Contains(t, collector.durations, lending.EngineRetryDelayMetric)
}
