package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/idempotency"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/password"
)

const (
	defaultGrantTTL    = 10 * time.Minute
	violationMaxLength = "max_length"
)

type PasswordResetInput struct {
	GrantToken  string `validate:"required"`
	NewPassword string `validate:"required,max=256"`
	Locale      string
}

type PasswordResetOutput struct {
	PasswordChangedAt time.Time
	PasswordExpiresAt time.Time
}

// PasswordReset sets a new password for the holder of a password_reset grant.
// A grant is redeemed at most once; a failed attempt leaves it usable.
func (s *Usecase) PasswordReset(ctx context.Context, in PasswordResetInput) (*PasswordResetOutput, error) {
	ctx, span := s.startSpan(ctx, "PasswordReset")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	claims, err := s.granter.Verify(in.GrantToken, entity.OTPPurposePasswordReset.String())
	if errors.Is(err, jwt.ErrTokenExpired) || errors.Is(err, jwt.ErrInvalidToken) || errors.Is(err, jwt.ErrPurposeMismatch) {
		slog.WarnContext(ctx, "password reset with unusable grant", "error", err)
		return nil, goerror.NewBusinessWrap(err, "invalid or expired reset grant", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to verify grant", "error", err)
		return nil, goerror.NewServer(err)
	}

	user, err := s.repoDB.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "password reset grant for unavailable user", "user_id", claims.UserID)
		return nil, goerror.NewBusiness("invalid or expired reset grant", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", claims.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	policy := s.policy.Current()
	if err := s.checkPassword(ctx, policy, in.NewPassword, in.Locale); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var resetErr error
	err = s.idemp.Exec(ctx, "password_reset:"+claims.ID, func(ctx context.Context) error {
		newHash, err := s.bcrypt.Hash(in.NewPassword)
		if err != nil {
			slog.ErrorContext(ctx, "failed to hash new password", "user_id", user.ID, "error", err)
			resetErr = err
			return err
		}

		if err := s.repoDB.UpdateUserPassword(ctx, user.ID, string(newHash), now); err != nil {
			slog.ErrorContext(ctx, "failed to update user password", "user_id", user.ID, "error", err)
			resetErr = err
			return err
		}

		return nil
	}, idempotency.WithStateTTL(s.grantTTL()+time.Minute))
	switch {
	case errors.Is(err, idempotency.ErrAlreadyCompleted), errors.Is(err, idempotency.ErrAlreadyInProgress):
		slog.WarnContext(ctx, "password reset grant replayed", "user_id", user.ID, "jti", claims.ID)
		return nil, goerror.NewBusinessWrap(err, "reset grant already used", goerror.CodeConflict)
	case resetErr != nil:
		return nil, goerror.NewServer(resetErr)
	case err != nil:
		slog.ErrorContext(ctx, "failed to redeem reset grant", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	slog.InfoContext(ctx, "password reset", "user_id", user.ID)

	return &PasswordResetOutput{
		PasswordChangedAt: now,
		PasswordExpiresAt: policy.PasswordExpiresAt(now),
	}, nil
}

func (s *Usecase) checkPassword(ctx context.Context, policy password.Policy, candidate, locale string) error {
	if l, ok := s.bcrypt.(hash.Limited); ok && len(candidate) > l.MaxInputBytes() {
		return goerror.NewInvalidInput(nil,
			"new_password", fmt.Sprintf("Password must be at most %d bytes long.", l.MaxInputBytes()),
			"violations", violationMaxLength,
		)
	}

	failed, err := policy.Rule().Check(ctx, candidate, s.breach)
	if err != nil {
		if s.cfg.GetBool("modules.identity.password.breach_fail_closed") {
			slog.ErrorContext(ctx, "breach lookup failed, rejecting", "error", err)
			return goerror.NewBusinessWrap(err, "password check is temporarily unavailable", goerror.CodeUnavailable)
		}
		slog.WarnContext(ctx, "breach lookup failed, accepting on local rules", "error", err)
	}

	if len(failed) == 0 {
		return nil
	}

	return goerror.NewInvalidInput(nil,
		"new_password", policy.HelpText(locale),
		"violations", strings.Join(lo.Map(failed, func(r password.Requirement, _ int) string { return string(r) }), ","),
	)
}

func (s *Usecase) grantTTL() time.Duration {
	if ttl := s.cfg.GetMinute("jwt.grant_ttl_minutes"); ttl > 0 {
		return ttl
	}
	return defaultGrantTTL
}
