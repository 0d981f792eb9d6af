package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: FromZap(zaptest.NewLogger(t))}

	calls := 0
	err := r.Do("flaky", func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestRetryGivesUp(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond}
	boom := errors.New("boom")

	calls := 0
	err := r.Do("always failing", func() error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error should wrap the last failure, got %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}

func TestRetryZeroAttemptsRunsOnce(t *testing.T) {
	r := &RetryConfig{}
	calls := 0
	_ = r.Do("once", func() error {
		calls++
		return errors.New("fail")
	})
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestRetryPermanentStopsImmediately(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 5, BaseDelay: time.Millisecond}
	boom := errors.New("rejected")

	calls := 0
	err := r.Do("permanent", func() error {
		calls++
		return Permanent(boom)
	})
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
	if !IsPermanent(err) || !errors.Is(err, boom) {
		t.Errorf("expected the permanent error back, got %v", err)
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := r.DoContext(ctx, "cancelled", func() error { return errors.New("down") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("retry should not wait out the back-off once ctx is done")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		for _, format := range []string{"console", "json"} {
			l := NewLogger(level, format)
			if l == nil || l.Zap() == nil {
				t.Fatalf("NewLogger(%q, %q) returned nil", level, format)
			}
			l.With("component", "test").Debug("level %s", level)
		}
	}
}
