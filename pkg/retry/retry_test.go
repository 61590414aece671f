package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type statusErr struct {
	code int
}

func (e *statusErr) Error() string     { return fmt.Sprintf("HTTP %d", e.code) }
func (e *statusErr) IsRetryable() bool { return e.code >= 500 }

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", cfg.MaxRetries)
	}
	if cfg.InitialDelay != 100*time.Millisecond {
		t.Errorf("expected InitialDelay=100ms, got %v", cfg.InitialDelay)
	}
	if cfg.Backoff != BackoffExponential {
		t.Errorf("expected exponential backoff by default")
	}
}

func TestLinearConfig_Delays(t *testing.T) {
	cfg := LinearConfig(3, time.Second)
	if cfg.MaxRetries != 2 {
		t.Fatalf("expected MaxRetries=2 for 3 attempts, got %d", cfg.MaxRetries)
	}
	if got := cfg.Delay(1); got != time.Second {
		t.Errorf("expected 1s before second attempt, got %v", got)
	}
	if got := cfg.Delay(2); got != 2*time.Second {
		t.Errorf("expected 2s before third attempt, got %v", got)
	}
	if got := cfg.Delay(0); got != 0 {
		t.Errorf("expected no delay for retry 0, got %v", got)
	}
}

func TestConfig_ExponentialDelayCapped(t *testing.T) {
	cfg := &Config{InitialDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond, Multiplier: 2}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for i, w := range want {
		if got := cfg.Delay(i + 1); got != w {
			t.Errorf("retry %d: expected %v, got %v", i+1, w, got)
		}
	}
}

func TestDo_Success(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), LinearConfig(3, time.Millisecond), func() error {
		callCount++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestDo_MaxRetriesExhausted(t *testing.T) {
	expectedErr := errors.New("persistent error")
	callCount := 0
	err := Do(context.Background(), LinearConfig(3, time.Millisecond), func() error {
		callCount++
		return expectedErr
	})

	if err != expectedErr {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestDo_OnRetryReportsLinearDelays(t *testing.T) {
	cfg := LinearConfig(3, 5*time.Millisecond)
	var delays []time.Duration
	cfg.OnRetry = func(retry int, delay time.Duration, err error) {
		delays = append(delays, delay)
	}

	calls := 0
	start := time.Now()
	err := Do(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("expected success on third attempt, got %v", err)
	}
	if len(delays) != 2 || delays[0] != 5*time.Millisecond || delays[1] != 10*time.Millisecond {
		t.Errorf("expected delays [5ms 10ms], got %v", delays)
	}
	if elapsed < 15*time.Millisecond {
		t.Errorf("expected to wait at least 15ms in total, waited %v", elapsed)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := LinearConfig(5, time.Second)

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	callCount := 0
	err := Do(ctx, cfg, func() error {
		callCount++
		return errors.New("error")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", callCount)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("cancellation did not interrupt the wait")
	}
}

func TestDoWithResult_SuccessAfterRetries(t *testing.T) {
	callCount := 0
	result, err := DoWithResult(context.Background(), LinearConfig(3, time.Millisecond), func() (string, error) {
		callCount++
		if callCount < 2 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result != "ok" {
		t.Errorf("expected result ok, got %q", result)
	}
}

func TestDoWithResultIfRetryable_StopsOnClientError(t *testing.T) {
	callCount := 0
	_, err := DoWithResultIfRetryable(context.Background(), LinearConfig(3, time.Millisecond), func() (int, error) {
		callCount++
		return 0, &statusErr{code: 404}
	})

	var se *statusErr
	if !errors.As(err, &se) || se.code != 404 {
		t.Errorf("expected the 404 error back, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected no retries on 4xx, got %d calls", callCount)
	}
}

func TestDoWithResultIfRetryable_RetriesServerErrors(t *testing.T) {
	callCount := 0
	_, err := DoWithResultIfRetryable(context.Background(), LinearConfig(3, time.Millisecond), func() (int, error) {
		callCount++
		return 0, &statusErr{code: 503}
	})

	var se *statusErr
	if !errors.As(err, &se) || se.code != 503 {
		t.Errorf("expected last 503 error, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 attempts, got %d", callCount)
	}
}

func TestDoIfRetryable_EscalatesRepeatedErrors(t *testing.T) {
	cfg := LinearConfig(10, time.Millisecond)
	cfg.MaxSameErrorType = 2

	callCount := 0
	err := DoIfRetryable(context.Background(), cfg, func() error {
		callCount++
		return &statusErr{code: 502}
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if callCount != 2 {
		t.Errorf("expected escalation after 2 calls, got %d", callCount)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"explicit retryable", &statusErr{code: 500}, true},
		{"explicit non-retryable", &statusErr{code: 400}, false},
		{"wrapped explicit", fmt.Errorf("fetch: %w", &statusErr{code: 502}), true},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", fmt.Errorf("get: %w", context.DeadlineExceeded), false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"unknown", errors.New("invalid character"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.expected {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}
