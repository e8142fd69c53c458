package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var nopLogger = zerolog.Nop()

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		InitialBackoff:    10 * time.Millisecond,
		MaxBackoff:        50 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	config := DefaultRetryConfig()

	if config.MaxAttempts != 3 {
		t.Errorf("MaxAttempts = %d, want 3", config.MaxAttempts)
	}
	if config.InitialBackoff <= 0 || config.InitialBackoff > config.MaxBackoff {
		t.Errorf("InitialBackoff = %v, MaxBackoff = %v", config.InitialBackoff, config.MaxBackoff)
	}
	if config.BackoffMultiplier != 2.0 {
		t.Errorf("BackoffMultiplier = %v, want 2.0", config.BackoffMultiplier)
	}
}

func TestRetryConfig_ForClass(t *testing.T) {
	base := RetryConfig{MaxAttempts: 3, InitialBackoff: time.Second, MaxBackoff: 3 * time.Second, BackoffMultiplier: 2}

	tests := []struct {
		errorClass ErrorClass
		want       time.Duration
	}{
		{ErrorClassServer, time.Second},
		{ErrorClassNetwork, 2 * time.Second},
		{ErrorClassRateLimit, 3 * time.Second}, // capped
	}

	for _, tt := range tests {
		t.Run(string(tt.errorClass), func(t *testing.T) {
			if got := base.forClass(tt.errorClass).InitialBackoff; got != tt.want {
				t.Errorf("InitialBackoff = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryWithBackoff_Success(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), nopLogger, fastRetry(), func(int) (ErrorClass, error) {
		calls++
		return "", nil
	})

	if err != nil {
		t.Errorf("retryWithBackoff() error = %v, want nil", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithBackoff_SuccessAfterRetry(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), nopLogger, fastRetry(), func(attempt int) (ErrorClass, error) {
		calls++
		if attempt < 3 {
			return ErrorClassServer, newStatusError(503, nil)
		}
		return "", nil
	})

	if err != nil {
		t.Errorf("retryWithBackoff() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoff_MaxAttemptsExhausted(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), nopLogger, fastRetry(), func(int) (ErrorClass, error) {
		calls++
		return ErrorClassServer, newStatusError(500, nil)
	})

	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("error = %v, want ErrRetryExhausted", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 500 {
		t.Errorf("exhausted error should wrap the last *APIError, got %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryWithBackoff_ClientErrorNoRetry(t *testing.T) {
	calls := 0
	want := newStatusError(400, nil)
	err := retryWithBackoff(context.Background(), nopLogger, fastRetry(), func(int) (ErrorClass, error) {
		calls++
		return ErrorClassClient, want
	})

	if !errors.Is(err, want) {
		t.Errorf("error = %v, want %v", err, want)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithBackoff_SingleAttemptReturnsCause(t *testing.T) {
	want := newStatusError(502, nil)
	err := retryWithBackoff(context.Background(), nopLogger, NoRetry(), func(int) (ErrorClass, error) {
		return ErrorClassServer, want
	})

	if err != want {
		t.Errorf("error = %v, want the attempt's own error", err)
	}
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	config := fastRetry()
	config.InitialBackoff = time.Second
	config.MaxBackoff = time.Second

	calls := 0
	err := retryWithBackoff(ctx, nopLogger, config, func(int) (ErrorClass, error) {
		calls++
		cancel()
		return ErrorClassServer, newStatusError(500, nil)
	})

	if !errors.Is(err, ErrContextCancelled) {
		t.Errorf("error = %v, want ErrContextCancelled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetryWithBackoff_RetryAfterHint(t *testing.T) {
	config := fastRetry()
	config.MaxBackoff = time.Second

	start := time.Now()
	calls := 0
	err := retryWithBackoff(context.Background(), nopLogger, config, func(attempt int) (ErrorClass, error) {
		calls++
		if attempt == 1 {
			return ErrorClassRateLimit, retryAfterError{error: newStatusError(429, nil), wait: 200 * time.Millisecond}
		}
		return "", nil
	})

	if err != nil {
		t.Fatalf("retryWithBackoff() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("elapsed = %v, want at least the Retry-After hint", elapsed)
	}
}

func TestRetryWithBackoff_MaxBackoffCap(t *testing.T) {
	config := RetryConfig{
		MaxAttempts:       4,
		InitialBackoff:    20 * time.Millisecond,
		MaxBackoff:        25 * time.Millisecond,
		BackoffMultiplier: 10,
	}

	start := time.Now()
	_ = retryWithBackoff(context.Background(), nopLogger, config, func(int) (ErrorClass, error) {
		return ErrorClassServer, newStatusError(500, nil)
	})

	// Three waits, each at most MaxBackoff plus 20% jitter.
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("elapsed = %v, backoff does not appear to be capped", elapsed)
	}
}
