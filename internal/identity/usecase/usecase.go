package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/identity/otpauth"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/password"
	"github.com/shandysiswandi/otpgate/internal/pkg/ratelimit"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type repoDB interface {
	GetUserByEmail(ctx context.Context, email string) (*entity.User, error)
	GetUserByID(ctx context.Context, id int64) (*entity.User, error)
	UpdateUserPassword(ctx context.Context, userID int64, hash string, changedAt time.Time) error
}

type otpIssuer interface {
	Issue(ctx context.Context, userID int64, opts ...otpauth.Option) (otpauth.Issued, error)
}

type otpValidator interface {
	Validate(ctx context.Context, userID int64, code string, now time.Time, opts ...otpauth.Option) error
}

type policySource interface {
	Current() password.Policy
}

type Usecase struct {
	repoDB       repoDB
	issuer       otpIssuer
	otpValidator otpValidator
	notifier     otpauth.Notifier
	limiter      ratelimit.Limiter
	idemp        idempotency.Idempotency
	granter      jwt.Granter
	bcrypt       hash.Hash
	policy       policySource
	breach       password.BreachChecker
	validator    validator.Validator
	cfg          config.Config
	clock        clock.Clocker
	ins          instrument.Instrumentation
}

type Dependency struct {
	RepoDB       repoDB
	Issuer       otpIssuer
	OTPValidator otpValidator
	Notifier     otpauth.Notifier
	Limiter      ratelimit.Limiter
	Idempotency  idempotency.Idempotency
	Granter      jwt.Granter
	Bcrypt       hash.Hash
	Policy       policySource
	// Breach may be nil, which skips the breach corpus lookup.
	Breach     password.BreachChecker
	Validator  validator.Validator
	Config     config.Config
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:       dep.RepoDB,
		issuer:       dep.Issuer,
		otpValidator: dep.OTPValidator,
		notifier:     dep.Notifier,
		limiter:      dep.Limiter,
		idemp:        dep.Idempotency,
		granter:      dep.Granter,
		bcrypt:       dep.Bcrypt,
		policy:       dep.Policy,
		breach:       dep.Breach,
		validator:    dep.Validator,
		cfg:          dep.Config,
		clock:        dep.Clock,
		ins:          dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.usecase").Start(ctx, name)
}

func (s *Usecase) ensureUserStatusAllowed(ctx context.Context, userID int64, status entity.UserStatus) error {
	sts := status.Ensure()
	switch sts {
	case entity.UserStatusUnknown:
		slog.WarnContext(ctx, "user account status is unrecognized", "user_id", userID)
		return goerror.NewBusiness("account status is unrecognized", goerror.CodeForbidden)

	case entity.UserStatusBanned:
		slog.WarnContext(ctx, "user account is banned", "user_id", userID)
		return goerror.NewBusiness("account is banned", goerror.CodeForbidden)

	case entity.UserStatusInactive:
		slog.WarnContext(ctx, "user account is deleted", "user_id", userID)
		return goerror.NewBusiness("account is deleted", goerror.CodeForbidden)

	default:
		return nil
	}
}
