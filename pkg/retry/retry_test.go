package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastConfig(maxRetries int) *Config {
	return &Config{
		MaxRetries:    maxRetries,
		BackoffFactor: 2.0,
		InitialDelay:  time.Millisecond,
		MaxDelay:      10 * time.Millisecond,
		Jitter:        time.Millisecond,
	}
}

func TestRetry_SuccessOnFirstTry(t *testing.T) {
	ctx := context.Background()
	retrier := NewDefaultRetrier()

	counter := 0
	err := retrier.Do(ctx, func(ctx context.Context) error {
		counter++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counter != 1 {
		t.Errorf("expected 1 attempt, got %d", counter)
	}
}

func TestRetry_SuccessAfterRetries(t *testing.T) {
	ctx := context.Background()
	retrier := NewRetrier(fastConfig(3))

	counter := 0
	err := retrier.Do(ctx, func(ctx context.Context) error {
		counter++
		if counter < 2 {
			return errors.New("temporary error")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counter != 2 {
		t.Errorf("expected 2 attempts, got %d", counter)
	}
}

func TestRetry_MaxRetriesExceeded(t *testing.T) {
	ctx := context.Background()
	retrier := NewRetrier(fastConfig(2))

	expectedErr := errors.New("permanent error")
	counter := 0
	err := retrier.Do(ctx, func(ctx context.Context) error {
		counter++
		return expectedErr
	})
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected %v, got %v", expectedErr, err)
	}
	if counter != 3 { // Initial try + 2 retries
		t.Errorf("expected 3 attempts, got %d", counter)
	}
}

func TestRetry_NoRetryConfig(t *testing.T) {
	retrier := NewRetrier(NoRetryConfig())
	if retrier.Attempts() != 1 {
		t.Fatalf("expected 1 attempt, got %d", retrier.Attempts())
	}

	counter := 0
	_ = retrier.Do(context.Background(), func(ctx context.Context) error {
		counter++
		return errors.New("boom")
	})
	if counter != 1 {
		t.Errorf("expected 1 attempt, got %d", counter)
	}
}

func TestRetry_PermanentStopsLoop(t *testing.T) {
	retrier := NewRetrier(fastConfig(5))
	cause := errors.New("bad request")

	counter := 0
	err := retrier.Do(context.Background(), func(ctx context.Context) error {
		counter++
		return Permanent(cause)
	})
	if err != cause {
		t.Errorf("expected unwrapped cause, got %v", err)
	}
	if counter != 1 {
		t.Errorf("expected 1 attempt, got %d", counter)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	retrier := NewRetrier(fastConfig(3))

	err := retrier.Do(ctx, func(ctx context.Context) error {
		cancel()
		return errors.New("operation error after cancel")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
