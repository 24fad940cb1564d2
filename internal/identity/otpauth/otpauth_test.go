package otpauth

import (
	"bytes"
	"context"
	cryptorand "crypto/rand"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/atomic"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/password"
)

type fakeUsers map[int64]*entity.User

func (f fakeUsers) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	u, ok := f[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return u, nil
}

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) Generate() int64 { return s.n.Inc() }

// repeatReader yields the same bytes forever.
type repeatReader []byte

func (r repeatReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r[i%len(r)]
	}
	return len(p), nil
}

type fixture struct {
	store     *MemoryStore
	clock     *clock.Fixed
	issuer    *Issuer
	validator *Validator
}

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newFixture(t *testing.T, random []byte) *fixture {
	t.Helper()

	store := NewMemoryStore()
	clk := clock.NewFixed(t0)
	dep := Dependency{
		Store:      store,
		Users:      fakeUsers{7: {ID: 7, Email: "user@example.com", Status: entity.UserStatusActive}},
		Hasher:     hash.NewHMACSHA256("test-secret"),
		Policy:     password.NewProvider(password.Default()),
		Clock:      clk,
		IDs:        &seqIDs{},
		Instrument: instrument.NewNoop(),
	}
	if random != nil {
		dep.Random = repeatReader(random)
	}

	return &fixture{
		store:     store,
		clock:     clk,
		issuer:    NewIssuer(dep),
		validator: NewValidator(dep),
	}
}

func TestIssuer_Issue(t *testing.T) {
	t.Parallel()

	// Arrange
	f := newFixture(t, nil)

	// Act
	issued, err := f.issuer.Issue(context.Background(), 7)

	// Assert
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if len(issued.Code) != 6 {
		t.Fatalf("code length = %d, want 6", len(issued.Code))
	}
	for _, c := range issued.Code {
		if c < '0' || c > '9' {
			t.Fatalf("code %q has non-digit %q", issued.Code, c)
		}
	}
	if !issued.Record.IssuedAt.Equal(t0) {
		t.Fatalf("IssuedAt = %v, want %v", issued.Record.IssuedAt, t0)
	}
	if !issued.ExpiresAt.Equal(t0.Add(5 * time.Minute)) {
		t.Fatalf("ExpiresAt = %v", issued.ExpiresAt)
	}
	if issued.Record.CodeHash == issued.Code || issued.Record.CodeHash == "" {
		t.Fatalf("CodeHash must be a digest, got %q", issued.Record.CodeHash)
	}
	if issued.Record.Purpose != entity.OTPPurposePasswordReset {
		t.Fatalf("Purpose = %v, want password_reset", issued.Record.Purpose)
	}
}

func TestIssuer_UnknownUser(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	_, err := f.issuer.Issue(context.Background(), 404)
	if !errors.Is(err, entity.ErrUserNotFound) {
		t.Fatalf("Issue() error = %v, want ErrUserNotFound", err)
	}
}

func TestValidator_Scenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		submitted func(code string) string
		elapsed   time.Duration
		wantErr   error
		wantAfter error
	}{
		{
			name:      "valid within window then consumed",
			submitted: func(code string) string { return code },
			elapsed:   4 * time.Minute,
			wantErr:   nil,
			wantAfter: entity.ErrOTPNotIssued,
		},
		{
			name:      "exactly at expiry is still valid",
			submitted: func(code string) string { return code },
			elapsed:   5 * time.Minute,
			wantErr:   nil,
			wantAfter: entity.ErrOTPNotIssued,
		},
		{
			name:      "expired and removed",
			submitted: func(code string) string { return code },
			elapsed:   6 * time.Minute,
			wantErr:   entity.ErrOTPExpired,
			wantAfter: entity.ErrOTPNotIssued,
		},
		{
			name:      "wrong code keeps record",
			submitted: func(string) string { return "000000" },
			elapsed:   time.Minute,
			wantErr:   entity.ErrOTPInvalid,
			wantAfter: entity.ErrOTPInvalid,
		},
		{
			name:      "expired wins over wrong code",
			submitted: func(string) string { return "000000" },
			elapsed:   10 * time.Minute,
			wantErr:   entity.ErrOTPExpired,
			wantAfter: entity.ErrOTPNotIssued,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			f := newFixture(t, []byte{1, 2, 3, 4, 5, 6})
			ctx := context.Background()
			issued, err := f.issuer.Issue(ctx, 7)
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}
			if issued.Code != "123456" {
				t.Fatalf("code = %q, want 123456", issued.Code)
			}
			now := t0.Add(tt.elapsed)

			// Act
			err = f.validator.Validate(ctx, 7, tt.submitted(issued.Code), now)
			errAfter := f.validator.Validate(ctx, 7, tt.submitted(issued.Code), now)

			// Assert
			if !errors.Is(err, tt.wantErr) || (tt.wantErr == nil && err != nil) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(errAfter, tt.wantAfter) {
				t.Fatalf("second Validate() error = %v, want %v", errAfter, tt.wantAfter)
			}
		})
	}
}

func TestValidator_NothingIssued(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)

	err := f.validator.Validate(context.Background(), 7, "123456", t0)
	if !errors.Is(err, entity.ErrOTPNotIssued) {
		t.Fatalf("Validate() error = %v, want ErrOTPNotIssued", err)
	}
}

func TestValidator_WrongCodeThenRightCode(t *testing.T) {
	t.Parallel()

	// Arrange
	f := newFixture(t, nil)
	ctx := context.Background()
	issued, err := f.issuer.Issue(ctx, 7)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	wrong := "000000"
	if issued.Code == wrong {
		wrong = "111111"
	}

	// Act
	errWrong := f.validator.Validate(ctx, 7, wrong, t0.Add(time.Minute))
	errRight := f.validator.Validate(ctx, 7, issued.Code, t0.Add(time.Minute))

	// Assert
	if !errors.Is(errWrong, entity.ErrOTPInvalid) {
		t.Fatalf("wrong code error = %v, want ErrOTPInvalid", errWrong)
	}
	if errRight != nil {
		t.Fatalf("right code error = %v, want nil", errRight)
	}
}

func TestValidator_MaxAttemptsBurnsRecord(t *testing.T) {
	t.Parallel()

	// Arrange
	f := newFixture(t, nil)
	f.validator.dep.MaxAttempts = 3
	ctx := context.Background()
	issued, err := f.issuer.Issue(ctx, 7)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	wrong := "000000"
	if issued.Code == wrong {
		wrong = "111111"
	}
	now := t0.Add(time.Minute)

	// Act
	errs := make([]error, 0, 3)
	for range 3 {
		errs = append(errs, f.validator.Validate(ctx, 7, wrong, now))
	}
	errRight := f.validator.Validate(ctx, 7, issued.Code, now)

	// Assert
	for i, err := range errs[:2] {
		if !errors.Is(err, entity.ErrOTPInvalid) || errors.Is(err, entity.ErrOTPAttemptsExceeded) {
			t.Fatalf("guess %d error = %v, want plain ErrOTPInvalid", i+1, err)
		}
	}
	if !errors.Is(errs[2], entity.ErrOTPAttemptsExceeded) {
		t.Fatalf("third guess error = %v, want ErrOTPAttemptsExceeded", errs[2])
	}
	if !errors.Is(errRight, entity.ErrOTPNotIssued) {
		t.Fatalf("right code after burn error = %v, want ErrOTPNotIssued", errRight)
	}
}

func TestValidator_ReissueResetsAttempts(t *testing.T) {
	t.Parallel()

	// Arrange
	f := newFixture(t, nil)
	f.validator.dep.MaxAttempts = 2
	ctx := context.Background()
	if _, err := f.issuer.Issue(ctx, 7); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if err := f.validator.Validate(ctx, 7, "not-it", t0); !errors.Is(err, entity.ErrOTPInvalid) {
		t.Fatalf("first guess error = %v", err)
	}

	// Act
	issued, err := f.issuer.Issue(ctx, 7)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	errWrong := f.validator.Validate(ctx, 7, "not-it", t0)
	errRight := f.validator.Validate(ctx, 7, issued.Code, t0)

	// Assert
	if errors.Is(errWrong, entity.ErrOTPAttemptsExceeded) {
		t.Fatalf("fresh code burned after one guess: %v", errWrong)
	}
	if errRight != nil {
		t.Fatalf("right code error = %v, want nil", errRight)
	}
}

func TestSettlesAndCountsFailure(t *testing.T) {
	tests := []struct {
		err     error
		settles bool
		counts  bool
	}{
		{err: nil, settles: true},
		{err: entity.ErrOTPExpired, settles: true},
		{err: entity.ErrOTPAttemptsExceeded, settles: true},
		{err: entity.ErrOTPInvalid, counts: true},
		{err: entity.ErrOTPNotIssued},
		{err: errors.New("boom")},
	}

	for _, tt := range tests {
		if got := Settles(tt.err); got != tt.settles {
			t.Fatalf("Settles(%v) = %v, want %v", tt.err, got, tt.settles)
		}
		if got := CountsFailure(tt.err); got != tt.counts {
			t.Fatalf("CountsFailure(%v) = %v, want %v", tt.err, got, tt.counts)
		}
	}
}

func TestIssuer_SupersedesPreviousCode(t *testing.T) {
	t.Parallel()

	// Arrange
	f := newFixture(t, nil)
	ctx := context.Background()
	first, err := f.issuer.Issue(ctx, 7)
	if err != nil {
		t.Fatalf("first Issue() error = %v", err)
	}
	f.clock.Advance(time.Minute)
	second, err := f.issuer.Issue(ctx, 7)
	if err != nil {
		t.Fatalf("second Issue() error = %v", err)
	}
	if first.Code == second.Code {
		t.Skip("random codes collided")
	}

	// Act
	errFirst := f.validator.Validate(ctx, 7, first.Code, f.clock.Now())
	errSecond := f.validator.Validate(ctx, 7, second.Code, f.clock.Now())

	// Assert
	if !errors.Is(errFirst, entity.ErrOTPInvalid) {
		t.Fatalf("superseded code error = %v, want ErrOTPInvalid", errFirst)
	}
	if errSecond != nil {
		t.Fatalf("current code error = %v, want nil", errSecond)
	}
}

func TestValidator_ExpiryUsesLatestIssue(t *testing.T) {
	t.Parallel()

	// Arrange
	f := newFixture(t, nil)
	ctx := context.Background()
	if _, err := f.issuer.Issue(ctx, 7); err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	f.clock.Advance(4 * time.Minute)
	latest, err := f.issuer.Issue(ctx, 7)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	// Act
	err = f.validator.Validate(ctx, 7, latest.Code, t0.Add(8*time.Minute))

	// Assert
	if err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestValidator_PurposeMismatch(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ctx := context.Background()
	issued, err := f.issuer.Issue(ctx, 7, WithPurpose(entity.OTPPurposeLogin))
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	err = f.validator.Validate(ctx, 7, issued.Code, t0)
	if !errors.Is(err, entity.ErrOTPInvalid) {
		t.Fatalf("Validate(password_reset) error = %v, want ErrOTPInvalid", err)
	}

	err = f.validator.Validate(ctx, 7, issued.Code, t0, WithPurpose(entity.OTPPurposeLogin))
	if err != nil {
		t.Fatalf("Validate(login) error = %v, want nil", err)
	}
}

func TestValidator_ConcurrentValidationSucceedsOnce(t *testing.T) {
	t.Parallel()

	// Arrange
	f := newFixture(t, nil)
	ctx := context.Background()
	issued, err := f.issuer.Issue(ctx, 7)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	const workers = 32
	var (
		wg        sync.WaitGroup
		successes atomic.Int64
		notIssued atomic.Int64
		start     = make(chan struct{})
	)

	// Act
	for range workers {
		wg.Go(func() {
			<-start
			err := f.validator.Validate(ctx, 7, issued.Code, t0.Add(time.Minute))
			switch {
			case err == nil:
				successes.Inc()
			case errors.Is(err, entity.ErrOTPNotIssued):
				notIssued.Inc()
			}
		})
	}
	close(start)
	wg.Wait()

	// Assert
	if successes.Load() != 1 {
		t.Fatalf("successes = %d, want 1", successes.Load())
	}
	if notIssued.Load() != workers-1 {
		t.Fatalf("not issued = %d, want %d", notIssued.Load(), workers-1)
	}
}

func TestGenerateCode(t *testing.T) {
	t.Parallel()

	t.Run("rejects biased bytes", func(t *testing.T) {
		t.Parallel()

		code, err := generateCode(bytes.NewReader([]byte{250, 255, 7, 0, 0}), 1)
		if err != nil {
			t.Fatalf("generateCode() error = %v", err)
		}
		if code != "7" {
			t.Fatalf("code = %q, want 7", code)
		}
	})

	t.Run("keeps leading zeros", func(t *testing.T) {
		t.Parallel()

		code, err := generateCode(repeatReader{10, 20, 3}, 6)
		if err != nil {
			t.Fatalf("generateCode() error = %v", err)
		}
		if code != "003003" {
			t.Fatalf("code = %q, want 003003", code)
		}
	})

	t.Run("short reader", func(t *testing.T) {
		t.Parallel()

		if _, err := generateCode(bytes.NewReader(nil), 6); err == nil {
			t.Fatal("generateCode() error = nil, want read error")
		}
	})

	t.Run("non positive length", func(t *testing.T) {
		t.Parallel()

		if _, err := generateCode(bytes.NewReader([]byte{1}), 0); err == nil {
			t.Fatal("generateCode() error = nil, want error")
		}
	})

	t.Run("digits are roughly uniform", func(t *testing.T) {
		t.Parallel()

		var counts [10]int
		for range 2000 {
			code, err := generateCode(cryptorand.Reader, 6)
			if err != nil {
				t.Fatalf("generateCode() error = %v", err)
			}
			for _, c := range code {
				counts[c-'0']++
			}
		}
		for d, n := range counts {
			if n < 900 || n > 1500 {
				t.Fatalf("digit %d appeared %d times out of 12000", d, n)
			}
		}
	})
}
