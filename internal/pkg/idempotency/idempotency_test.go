package idempotency

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/otpgate/internal/pkg/testkit"
)

func TestStateTracker_Exec(t *testing.T) {
	// Arrange
	tracker := New(testkit.Redis(t))
	ctx := context.Background()
	errWeak := errors.New("weak password")

	// Act & Assert: a failed attempt releases the key
	err := tracker.Exec(ctx, "grant-1", func(context.Context) error { return errWeak })
	if !errors.Is(err, errWeak) {
		t.Fatalf("Exec() error = %v, want %v", err, errWeak)
	}

	calls := 0
	err = tracker.Exec(ctx, "grant-1", func(context.Context) error { calls++; return nil })
	if err != nil || calls != 1 {
		t.Fatalf("Exec() after failure = %v, calls = %d", err, calls)
	}

	// a completed key is final
	err = tracker.Exec(ctx, "grant-1", func(context.Context) error { calls++; return nil })
	if !errors.Is(err, ErrAlreadyCompleted) || calls != 1 {
		t.Fatalf("Exec() after success = %v, calls = %d", err, calls)
	}
}

func TestStateTracker_InProgress(t *testing.T) {
	tracker := New(testkit.Redis(t))
	ctx := context.Background()

	err := tracker.Exec(ctx, "grant-2", func(ctx context.Context) error {
		return tracker.Exec(ctx, "grant-2", func(context.Context) error { return nil })
	})
	if !errors.Is(err, ErrAlreadyInProgress) {
		t.Fatalf("nested Exec() error = %v, want ErrAlreadyInProgress", err)
	}
}
