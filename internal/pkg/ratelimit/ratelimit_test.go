package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/testkit"
)

func TestRedis_Cooldown(t *testing.T) {
	// Arrange
	client := testkit.Redis(t)
	lim := NewRedis(client, Config{Prefix: "t1", Cooldown: time.Minute, Window: time.Hour, MaxPerWindow: 10})
	ctx := context.Background()

	// Act
	first, err := lim.Allow(ctx, "42:password_reset")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	second, err := lim.Allow(ctx, "42:password_reset")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	other, err := lim.Allow(ctx, "43:password_reset")
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}

	// Assert
	if !first.Allowed || !other.Allowed {
		t.Fatalf("first = %+v, other = %+v, want allowed", first, other)
	}
	if second.Allowed {
		t.Fatal("second request inside cooldown was allowed")
	}
	if second.RetryAfter <= 0 || second.RetryAfter > time.Minute {
		t.Fatalf("RetryAfter = %v", second.RetryAfter)
	}
}

func TestRedis_WindowCap(t *testing.T) {
	// Arrange
	client := testkit.Redis(t)
	lim := NewRedis(client, Config{Prefix: "t2", Window: time.Hour, MaxPerWindow: 3})
	ctx := context.Background()

	// Act
	var allowed int
	var last Decision
	for range 5 {
		d, err := lim.Allow(ctx, "7:login")
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if d.Allowed {
			allowed++
		}
		last = d
	}

	// Assert
	if allowed != 3 {
		t.Fatalf("allowed = %d, want 3", allowed)
	}
	if last.Allowed || last.RetryAfter <= 0 {
		t.Fatalf("last = %+v, want denied with retry hint", last)
	}
}
