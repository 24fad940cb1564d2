package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/password"
	"github.com/shandysiswandi/otpgate/internal/pkg/testkit"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newStore(t *testing.T) *OTPStore {
	t.Helper()

	client := testkit.Redis(t)
	return NewOTPStore(client, instrument.NewNoop())
}

func TestOTPStore_UpsertSetsTTL(t *testing.T) {
	// Arrange
	store := newStore(t)
	ctx := context.Background()

	// Act
	err := store.Upsert(ctx, entity.OTPRecord{ID: 1, UserID: 7, Purpose: entity.OTPPurposeLogin, CodeHash: "h", IssuedAt: t0})

	// Assert
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	ttl, err := store.client.TTL(ctx, "otp:7").Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > recordTTL {
		t.Fatalf("ttl = %v, want (0, %v]", ttl, recordTTL)
	}

	var seen entity.OTPRecord
	_ = store.Consume(ctx, 7, func(rec entity.OTPRecord) error {
		seen = rec
		return entity.ErrOTPInvalid
	})
	if seen.Purpose != entity.OTPPurposeLogin || !seen.IssuedAt.Equal(t0) || seen.CodeHash != "h" {
		t.Fatalf("unexpected record %+v", seen)
	}
}

func TestOTPStore_TTLCoversLongestPolicy(t *testing.T) {
	longest, err := password.Load(map[string]any{"otp_expiration_minutes": password.MaxOTPExpirationMinutes})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if recordTTL <= longest.OTPTTL() {
		t.Fatalf("recordTTL = %v, want more than %v", recordTTL, longest.OTPTTL())
	}
}

func TestOTPStore_FailedAttemptsCountAndBurn(t *testing.T) {
	// Arrange
	store := newStore(t)
	ctx := context.Background()
	if err := store.Upsert(ctx, entity.OTPRecord{ID: 1, UserID: 5, CodeHash: "h", IssuedAt: t0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	wrong := func(entity.OTPRecord) error { return entity.ErrOTPInvalid }

	// Act
	for range 3 {
		if err := store.Consume(ctx, 5, wrong); !errors.Is(err, entity.ErrOTPInvalid) {
			t.Fatalf("err = %v, want ErrOTPInvalid", err)
		}
	}
	var seen entity.OTPRecord
	_ = store.Consume(ctx, 5, func(rec entity.OTPRecord) error {
		seen = rec
		return entity.ErrOTPNotIssued
	})
	burnErr := store.Consume(ctx, 5, func(entity.OTPRecord) error { return entity.ErrOTPAttemptsExceeded })

	// Assert
	if seen.FailedAttempts != 3 || seen.CodeHash != "h" {
		t.Fatalf("unexpected record %+v", seen)
	}
	if !errors.Is(burnErr, entity.ErrOTPAttemptsExceeded) {
		t.Fatalf("err = %v, want ErrOTPAttemptsExceeded", burnErr)
	}
	if n := store.client.Exists(ctx, "otp:5").Val(); n != 0 {
		t.Fatalf("burned record still present")
	}
}

func TestOTPStore_FailedAttemptKeepsExpiry(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	if err := store.Upsert(ctx, entity.OTPRecord{ID: 1, UserID: 6, CodeHash: "h", IssuedAt: t0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	_ = store.Consume(ctx, 6, func(entity.OTPRecord) error { return entity.ErrOTPInvalid })

	ttl, err := store.client.TTL(ctx, "otp:6").Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 {
		t.Fatalf("ttl = %v, want the key to keep its expiry", ttl)
	}
}

func TestOTPStore_Consume(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	ok := func(entity.OTPRecord) error { return nil }

	if err := store.Consume(ctx, 1, ok); !errors.Is(err, entity.ErrOTPNotIssued) {
		t.Fatalf("err = %v, want ErrOTPNotIssued", err)
	}

	if err := store.Upsert(ctx, entity.OTPRecord{ID: 1, UserID: 1, CodeHash: "h", IssuedAt: t0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.Consume(ctx, 1, func(entity.OTPRecord) error { return entity.ErrOTPInvalid }); !errors.Is(err, entity.ErrOTPInvalid) {
		t.Fatalf("err = %v, want ErrOTPInvalid", err)
	}
	if err := store.Consume(ctx, 1, ok); err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if err := store.Consume(ctx, 1, ok); !errors.Is(err, entity.ErrOTPNotIssued) {
		t.Fatalf("err = %v, want ErrOTPNotIssued", err)
	}

	if err := store.Upsert(ctx, entity.OTPRecord{ID: 2, UserID: 1, CodeHash: "h", IssuedAt: t0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := store.Consume(ctx, 1, func(entity.OTPRecord) error { return entity.ErrOTPExpired }); !errors.Is(err, entity.ErrOTPExpired) {
		t.Fatalf("err = %v, want ErrOTPExpired", err)
	}
	if n := store.client.Exists(ctx, "otp:1").Val(); n != 0 {
		t.Fatalf("expired record still present")
	}
}

func TestOTPStore_ConcurrentConsume(t *testing.T) {
	// Arrange
	store := newStore(t)
	ctx := context.Background()
	if err := store.Upsert(ctx, entity.OTPRecord{ID: 1, UserID: 3, CodeHash: "h", IssuedAt: t0}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	// Act
	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = map[string]int{}
	)
	for range workers {
		wg.Go(func() {
			err := store.Consume(ctx, 3, func(entity.OTPRecord) error { return nil })

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				results["ok"]++
			case errors.Is(err, entity.ErrOTPNotIssued):
				results["not_issued"]++
			default:
				results[err.Error()]++
			}
		})
	}
	wg.Wait()

	// Assert
	if results["ok"] != 1 || results["not_issued"] != workers-1 {
		t.Fatalf("results = %v", results)
	}
}
