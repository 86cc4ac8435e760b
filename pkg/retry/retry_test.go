package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() *Config {
	return &Config{
		MaxRetries:    3,
		BackoffFactor: 2.0,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
	}
}

func TestRetry_SuccessOnFirstTry(t *testing.T) {
	counter := 0
	err := NewDefaultRetrier().Do(context.Background(), func() error {
		counter++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, counter)
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	counter := 0
	err := NewRetrier(fastConfig()).Do(context.Background(), func() error {
		counter++
		if counter < 3 {
			return errors.New("temporary error")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, counter)
}

func TestRetry_MaxRetriesExceeded(t *testing.T) {
	config := fastConfig()
	config.MaxRetries = 2

	expectedErr := errors.New("permanent error")
	counter := 0
	err := NewRetrier(config).Do(context.Background(), func() error {
		counter++
		return expectedErr
	})

	assert.ErrorIs(t, err, expectedErr)
	assert.Equal(t, 3, counter) // initial try + 2 retries
}

func TestRetry_NonRetryableStopsImmediately(t *testing.T) {
	fatal := errors.New("fatal")
	config := fastConfig()
	config.Retryable = func(err error) bool { return !errors.Is(err, fatal) }

	counter := 0
	err := NewRetrier(config).Do(context.Background(), func() error {
		counter++
		return fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, counter)
}

func TestRetry_OnRetryHook(t *testing.T) {
	config := fastConfig()
	var attempts []int
	config.OnRetry = func(attempt int, err error, delay time.Duration) {
		attempts = append(attempts, attempt)
		assert.LessOrEqual(t, delay, config.MaxDelay)
	}

	_ = NewRetrier(config).Do(context.Background(), func() error {
		return errors.New("boom")
	})

	assert.Equal(t, []int{1, 2, 3}, attempts)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	err := NewDefaultRetrier().Do(ctx, func() error {
		cancel()
		return errors.New("operation error after cancel")
	})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetry_BackoffAndJitter(t *testing.T) {
	config := &Config{
		MaxRetries:    2,
		BackoffFactor: 2.0,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      1 * time.Second,
		Jitter:        50 * time.Millisecond,
	}

	start := time.Now()
	counter := 0
	_ = NewRetrier(config).Do(context.Background(), func() error {
		counter++
		return errors.New("error")
	})
	elapsed := time.Since(start)

	// Two sleeps: 100ms+j1 and 200ms+j2.
	minExpected := 300 * time.Millisecond
	maxExpected := 400*time.Millisecond + 100*time.Millisecond
	assert.GreaterOrEqual(t, elapsed, minExpected)
	assert.Less(t, elapsed, maxExpected)
	assert.Equal(t, 3, counter)
}
