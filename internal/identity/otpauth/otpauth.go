package otpauth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/password"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
)

// PolicySource yields the policy in force; password.Provider implements it.
type PolicySource interface {
	Current() password.Policy
}

// UserFinder resolves a user id. A missing user is goerror.ErrNotFound.
type UserFinder interface {
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
}

// DefaultMaxAttempts is the number of wrong guesses allowed per record when
// Dependency.MaxAttempts is not set.
const DefaultMaxAttempts = 5

// Dependency is shared by Issuer and Validator.
type Dependency struct {
	Store  Store
	Users  UserFinder
	Hasher hash.Hash
	Policy PolicySource
	Clock  clock.Clocker
	IDs    uid.NumberID
	// Random defaults to crypto/rand.Reader.
	Random io.Reader
	// MaxAttempts is the number of wrong guesses after which a record is
	// burned. Zero means DefaultMaxAttempts.
	MaxAttempts int
	Instrument  instrument.Instrumentation
}

// Option narrows an Issue or Validate call.
type Option func(*options)

type options struct {
	purpose entity.OTPPurpose
}

// WithPurpose binds the call to purpose. The default is password_reset.
func WithPurpose(p entity.OTPPurpose) Option {
	return func(o *options) { o.purpose = p }
}

func newOptions(opts []Option) options {
	o := options{purpose: entity.OTPPurposePasswordReset}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func tracer(ins instrument.Instrumentation) trace.Tracer {
	return ins.Tracer("identity.otpauth")
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Issued is the outcome of Issue. Code is the only place the plaintext
// exists and must only be handed to a Notifier.
type Issued struct {
	Record    entity.OTPRecord
	Code      string
	ExpiresAt time.Time
}

// Issuer creates codes.
type Issuer struct {
	dep    Dependency
	issued metric.Int64Counter
}

func NewIssuer(dep Dependency) *Issuer {
	if dep.Random == nil {
		dep.Random = rand.Reader
	}

	counter, err := dep.Instrument.Meter("identity.otpauth").Int64Counter("otp.issued",
		metric.WithDescription("One-time codes issued"))
	if err != nil {
		slog.Error("failed to create otp.issued counter", "error", err)
	}

	return &Issuer{dep: dep, issued: counter}
}

// Issue generates a code of the policy's length for userID and stores its
// digest, replacing any code the user held before.
func (i *Issuer) Issue(ctx context.Context, userID int64, opts ...Option) (Issued, error) {
	ctx, span := tracer(i.dep.Instrument).Start(ctx, "Issue")
	defer span.End()

	o := newOptions(opts)

	if _, err := i.dep.Users.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return Issued{}, entity.ErrUserNotFound
		}
		recordSpanError(span, err)
		return Issued{}, fmt.Errorf("otpauth: find user: %w", err)
	}

	policy := i.dep.Policy.Current()
	code, err := generateCode(i.dep.Random, policy.OTPLength())
	if err != nil {
		recordSpanError(span, err)
		return Issued{}, err
	}

	digest, err := i.dep.Hasher.Hash(code)
	if err != nil {
		recordSpanError(span, err)
		return Issued{}, fmt.Errorf("otpauth: hash code: %w", err)
	}

	rec := entity.OTPRecord{
		ID:       i.dep.IDs.Generate(),
		UserID:   userID,
		Purpose:  o.purpose,
		CodeHash: string(digest),
		IssuedAt: i.dep.Clock.Now(),
	}
	if err := i.dep.Store.Upsert(ctx, rec); err != nil {
		recordSpanError(span, err)
		return Issued{}, fmt.Errorf("otpauth: store code: %w", err)
	}

	if i.issued != nil {
		i.issued.Add(ctx, 1, metric.WithAttributes(attribute.String("purpose", o.purpose.String())))
	}

	return Issued{Record: rec, Code: code, ExpiresAt: rec.IssuedAt.Add(policy.OTPTTL())}, nil
}

// Validator checks submitted codes.
type Validator struct {
	dep       Dependency
	validated metric.Int64Counter
}

func NewValidator(dep Dependency) *Validator {
	if dep.MaxAttempts <= 0 {
		dep.MaxAttempts = DefaultMaxAttempts
	}

	counter, err := dep.Instrument.Meter("identity.otpauth").Int64Counter("otp.validated",
		metric.WithDescription("One-time code validations by result"))
	if err != nil {
		slog.Error("failed to create otp.validated counter", "error", err)
	}

	return &Validator{dep: dep, validated: counter}
}

// Validate checks code against the active record of userID at now. It
// returns entity.ErrOTPNotIssued, entity.ErrOTPExpired or
// entity.ErrOTPInvalid, in that order of precedence. A match consumes the
// record. The wrong guess that reaches MaxAttempts is reported as
// entity.ErrOTPAttemptsExceeded and deletes the record.
func (v *Validator) Validate(ctx context.Context, userID int64, code string, now time.Time, opts ...Option) error {
	ctx, span := tracer(v.dep.Instrument).Start(ctx, "Validate")
	defer span.End()

	o := newOptions(opts)
	policy := v.dep.Policy.Current()

	err := v.dep.Store.Consume(ctx, userID, func(rec entity.OTPRecord) error {
		if policy.IsExpired(rec.IssuedAt, now) {
			return entity.ErrOTPExpired
		}
		match := v.dep.Hasher.Verify(rec.CodeHash, code)
		if match && rec.Purpose == o.purpose {
			return nil
		}
		if rec.FailedAttempts+1 >= v.dep.MaxAttempts {
			return entity.ErrOTPAttemptsExceeded
		}
		return entity.ErrOTPInvalid
	})

	result := validationResult(err)
	if result == "error" {
		recordSpanError(span, err)
	}
	span.SetAttributes(attribute.String("otp.result", result))
	if v.validated != nil {
		v.validated.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}

	return err
}

func validationResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, entity.ErrOTPNotIssued):
		return "not_issued"
	case errors.Is(err, entity.ErrOTPExpired):
		return "expired"
	case errors.Is(err, entity.ErrOTPAttemptsExceeded):
		return "attempts_exceeded"
	case errors.Is(err, entity.ErrOTPInvalid):
		return "invalid"
	default:
		return "error"
	}
}
