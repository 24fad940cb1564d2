package usecase

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/pkg/password"
)

type PasswordPolicyInput struct {
	Locale string
}

type PasswordPolicyOutput struct {
	Rule                  password.RuleSpec
	Requirements          []password.Requirement
	HelpText              string
	HelpClauses           []string
	OTPLength             int
	OTPExpirationMinutes  int
	PasswordExpiresInDays int
}

func (s *Usecase) PasswordPolicy(ctx context.Context, in PasswordPolicyInput) (*PasswordPolicyOutput, error) {
	_, span := s.startSpan(ctx, "PasswordPolicy")
	defer span.End()

	policy := s.policy.Current()
	rule := policy.Rule()

	return &PasswordPolicyOutput{
		Rule:                  rule,
		Requirements:          rule.Enabled(),
		HelpText:              policy.HelpText(in.Locale),
		HelpClauses:           policy.HelpClauses(in.Locale),
		OTPLength:             policy.OTPLength(),
		OTPExpirationMinutes:  policy.OTPExpirationMinutes(),
		PasswordExpiresInDays: policy.ExpiresInDays(),
	}, nil
}
