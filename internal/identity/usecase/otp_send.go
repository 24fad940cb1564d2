package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/identity/otpauth"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type OTPSendInput struct {
	Email   string `validate:"required,email"`
	Purpose string `validate:"omitempty,oneof=password_reset login"`
	Locale  string
}

// OTPSendOutput is identical whether or not the email belongs to an account.
type OTPSendOutput struct {
	OTPLength         int
	ExpirationMinutes int
}

// OTPSend issues a code for the account behind in.Email and hands it to the
// notifier. Unknown or ineligible accounts get the same answer as eligible
// ones.
func (s *Usecase) OTPSend(ctx context.Context, in OTPSendInput) (*OTPSendOutput, error) {
	ctx, span := s.startSpan(ctx, "OTPSend")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	purpose := entity.ParseOTPPurpose(in.Purpose)
	policy := s.policy.Current()
	out := &OTPSendOutput{
		OTPLength:         policy.OTPLength(),
		ExpirationMinutes: policy.OTPExpirationMinutes(),
	}

	// keyed by email, not user id, so unknown addresses are throttled too
	decision, err := s.limiter.Allow(ctx, purpose.String()+":"+in.Email)
	if err != nil {
		slog.WarnContext(ctx, "failed to check otp send throttle", "purpose", purpose.String(), "error", err)
	}
	if err == nil && !decision.Allowed {
		retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
		return nil, goerror.NewBusiness("too many code requests, try again later", goerror.CodeTooManyRequest,
			"retry_after", strconv.Itoa(max(retryAfter, 1)))
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp requested for unavailable user", "email", in.Email, "purpose", purpose.String())
		return out, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		slog.WarnContext(ctx, "otp requested for ineligible user", "user_id", user.ID, "status", user.Status.String(), "error", err)
		return out, nil
	}

	issued, err := s.issuer.Issue(ctx, user.ID, otpauth.WithPurpose(purpose))
	if errors.Is(err, entity.ErrUserNotFound) {
		slog.WarnContext(ctx, "otp requested for user removed meanwhile", "user_id", user.ID)
		return out, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue otp", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.notifier.Send(ctx, otpauth.Notice{
		UserID:            user.ID,
		Recipient:         user.Email,
		Name:              user.FullName,
		Code:              issued.Code,
		Purpose:           purpose,
		ExpirationMinutes: policy.OTPExpirationMinutes(),
		ExpiresAt:         issued.ExpiresAt,
		Locale:            in.Locale,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to notify issued otp", "user_id", user.ID, "error", err)
	}

	return out, nil
}
