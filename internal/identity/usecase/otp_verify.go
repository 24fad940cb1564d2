package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/identity/otpauth"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

type OTPVerifyInput struct {
	Email   string `validate:"required,email"`
	Code    string `validate:"required,otpcode"`
	Purpose string `validate:"omitempty,oneof=password_reset login"`
}

type OTPVerifyOutput struct {
	GrantToken string
	ExpiresAt  time.Time
	Purpose    string
}

// OTPVerify redeems a code and hands out a short-lived grant bound to the
// code's purpose.
func (s *Usecase) OTPVerify(ctx context.Context, in OTPVerifyInput) (*OTPVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "OTPVerify")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Code = strings.TrimSpace(in.Code)

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	purpose := entity.ParseOTPPurpose(in.Purpose)

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp verify for unavailable user", "email", in.Email)
		return nil, otpError(entity.ErrOTPNotIssued)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, otpError(entity.ErrOTPNotIssued)
	}

	if err := s.otpValidator.Validate(ctx, user.ID, in.Code, s.clock.Now(), otpauth.WithPurpose(purpose)); err != nil {
		if isOTPRejection(err) {
			slog.InfoContext(ctx, "otp rejected", "user_id", user.ID, "purpose", purpose.String(), "error", err)
		} else {
			slog.ErrorContext(ctx, "failed to validate otp", "user_id", user.ID, "error", err)
		}
		return nil, otpError(err)
	}

	grant, err := s.granter.Issue(user.ID, purpose.String())
	if err != nil {
		slog.ErrorContext(ctx, "failed to issue grant", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return &OTPVerifyOutput{
		GrantToken: grant.Token,
		ExpiresAt:  grant.ExpiresAt,
		Purpose:    purpose.String(),
	}, nil
}
