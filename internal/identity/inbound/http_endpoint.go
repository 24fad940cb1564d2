package inbound

import (
	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

// HTTPEndpoint exposes the one-time code and password reset workflow.
type HTTPEndpoint struct {
	uc uc
}

// PasswordPolicy describes the password rule and code timing in the caller's
// locale (?locale= or Accept-Language).
func (h *HTTPEndpoint) PasswordPolicy(r *router.Request) (any, error) {
	resp, err := h.uc.PasswordPolicy(r.Context(), usecase.PasswordPolicyInput{Locale: r.Locale()})
	if err != nil {
		return nil, err
	}

	return PasswordPolicyResponse{
		Rule:                  resp.Rule,
		Requirements:          resp.Requirements,
		HelpText:              resp.HelpText,
		HelpClauses:           resp.HelpClauses,
		OTPLength:             resp.OTPLength,
		OTPExpirationMinutes:  resp.OTPExpirationMinutes,
		PasswordExpiresInDays: resp.PasswordExpiresInDays,
	}, nil
}

// OTPSend answers the same way for every well-formed email.
func (h *HTTPEndpoint) OTPSend(r *router.Request) (any, error) {
	var req OTPSendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.OTPSend(r.Context(), usecase.OTPSendInput{
		Email:   req.Email,
		Purpose: req.Purpose,
		Locale:  r.Locale(),
	})
	if err != nil {
		return nil, err
	}

	return OTPSendResponse{
		OTPLength:         resp.OTPLength,
		ExpirationMinutes: resp.ExpirationMinutes,
	}, nil
}

func (h *HTTPEndpoint) OTPVerify(r *router.Request) (any, error) {
	var req OTPVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.OTPVerify(r.Context(), usecase.OTPVerifyInput{
		Email:   req.Email,
		Code:    req.Code,
		Purpose: req.Purpose,
	})
	if err != nil {
		return nil, err
	}

	return OTPVerifyResponse{
		GrantToken: resp.GrantToken,
		ExpiresAt:  resp.ExpiresAt,
		Purpose:    resp.Purpose,
	}, nil
}

func (h *HTTPEndpoint) PasswordReset(r *router.Request) (any, error) {
	var req PasswordResetRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.PasswordReset(r.Context(), usecase.PasswordResetInput{
		GrantToken:  req.GrantToken,
		NewPassword: req.NewPassword,
		Locale:      r.Locale(),
	})
	if err != nil {
		return nil, err
	}

	return PasswordResetResponse{
		PasswordChangedAt: resp.PasswordChangedAt,
		PasswordExpiresAt: resp.PasswordExpiresAt,
	}, nil
}
