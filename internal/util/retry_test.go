package util

import (
	"context"
	"errors"
	"testing"
)

func TestRetryErrWithContext_SuccessAfterRetries(t *testing.T) {
	calls := 0
	err := RetryErrWithContext(context.Background(), 3, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryErrWithContext_PersistentFailure(t *testing.T) {
	calls := 0
	err := RetryErrWithContext(context.Background(), 3, func(context.Context) error {
		calls++
		return errors.New("persistent")
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "persistent" {
		t.Fatalf("expected persistent error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryErrWithContext_MaxTriesZeroOrNegative(t *testing.T) {
	calls := 0
	err := RetryErrWithContext(context.Background(), 0, func(context.Context) error {
		calls++
		return errors.New("fail")
	})
	if calls != 1 {
		t.Fatalf("expected 1 call for maxTries=0, got %d", calls)
	}
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestRetryErrWithContext_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := RetryErrWithContext(ctx, 3, func(context.Context) error {
		calls++
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected 0 calls after cancel, got %d", calls)
	}
}

func TestRetryErrWithContext_StopsOnDeadline(t *testing.T) {
	calls := 0
	err := RetryErrWithContext(context.Background(), 5, func(context.Context) error {
		calls++
		return context.DeadlineExceeded
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}
