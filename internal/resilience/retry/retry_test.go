package retry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"syscall"
	"testing"
	"time"
)

func fastConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialDelay:   5 * time.Millisecond,
		MaxDelay:       20 * time.Millisecond,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

func TestWithBackoff_SuccessAfterRetry(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		attempts++
		if attempts < 3 {
			return &HTTPError{StatusCode: 503, Message: "overloaded"}
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithBackoff_NonRetryableStopsImmediately(t *testing.T) {
	attempts := 0
	badRequest := &HTTPError{StatusCode: 400, Message: "bad prompt"}
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		attempts++
		return badRequest
	})

	if !errors.Is(err, badRequest) || attempts != 1 {
		t.Fatalf("err=%v attempts=%d", err, attempts)
	}
}

func TestWithBackoff_Exhausted(t *testing.T) {
	attempts := 0
	err := WithBackoff(context.Background(), fastConfig(), func() error {
		attempts++
		return syscall.ECONNRESET
	})

	if attempts != 3 || !errors.Is(err, syscall.ECONNRESET) {
		t.Fatalf("err=%v attempts=%d", err, attempts)
	}
}

func TestWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig()
	cfg.InitialDelay = time.Second

	err := WithBackoff(ctx, cfg, func() error {
		cancel()
		return syscall.ETIMEDOUT
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"cancelled", context.Canceled, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
		{"conn refused", syscall.ECONNREFUSED, true},
		{"truncated body", io.ErrUnexpectedEOF, true},
		{"429", &HTTPError{StatusCode: 429}, true},
		{"502 wrapped", fmt.Errorf("llm: %w", &HTTPError{StatusCode: 502}), true},
		{"401", &HTTPError{StatusCode: 401}, false},
		{"plain", errors.New("empty completion"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWithBackoff_SingleAttempt(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxAttempts = 1
	attempts := 0
	err := WithBackoff(context.Background(), cfg, func() error {
		attempts++
		return &HTTPError{StatusCode: 503}
	})

	if attempts != 1 || err == nil {
		t.Fatalf("err=%v attempts=%d", err, attempts)
	}
}

func TestLLMConfig(t *testing.T) {
	cfg := LLMConfig()
	if cfg.MaxAttempts != 3 || cfg.InitialDelay >= cfg.MaxDelay {
		t.Errorf("unexpected config %+v", cfg)
	}
}
