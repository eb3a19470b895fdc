package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"nathanbeddoewebdev/vultrcli/internal/domain"
)

var (
	serverErr  = &domain.Error{Kind: domain.KindServer, StatusCode: 502}
	networkErr = &domain.Error{Kind: domain.KindNetwork, Err: errors.New("connection reset")}
	clientErr  = &domain.Error{Kind: domain.KindClient, StatusCode: 400, Message: "bad"}
)

func TestDo_IdempotentRetriesOnce(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Config{MaxAttempts: 2}, nil, func(int) error {
		attempts++
		return serverErr
	})

	if !errors.Is(err, serverErr) {
		t.Fatalf("expected server error, got %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestDo_NoRetryOnClientError(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Idempotent(), nil, func(int) error {
		attempts++
		return clientErr
	})

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestDo_OnceNeverRetries(t *testing.T) {
	attempts := 0
	_ = Do(context.Background(), Once(), nil, func(int) error {
		attempts++
		return networkErr
	})
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestDo_SucceedsAfterRetry(t *testing.T) {
	var seen []int
	err := Do(context.Background(), Config{MaxAttempts: 3}, nil, func(attempt int) error {
		seen = append(seen, attempt)
		if attempt == 1 {
			return networkErr
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("unexpected attempt numbers %v", seen)
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := Do(ctx, Config{MaxAttempts: 3}, nil, func(int) error {
		attempts++
		return networkErr
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 0 {
		t.Fatalf("expected 0 attempts, got %d", attempts)
	}
}

func TestBackoffDelay_NoBaseDelay(t *testing.T) {
	if delay := backoffDelay(0, time.Second, 1); delay != 0 {
		t.Fatalf("expected zero delay, got %v", delay)
	}
}

func TestBackoffDelay_CappedAtMax(t *testing.T) {
	for range 20 {
		if delay := backoffDelay(time.Second, 2*time.Second, 5); delay > 2*time.Second {
			t.Fatalf("delay %v exceeds max", delay)
		}
	}
}
