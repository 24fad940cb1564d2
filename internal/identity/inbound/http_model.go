package inbound

import (
	"time"

	"github.com/shandysiswandi/otpgate/internal/pkg/password"
)

type PasswordPolicyResponse struct {
	Rule                  password.RuleSpec      `json:"rule"`
	Requirements          []password.Requirement `json:"requirements"`
	HelpText              string                 `json:"help_text"`
	HelpClauses           []string               `json:"help_clauses"`
	OTPLength             int                    `json:"otp_length"`
	OTPExpirationMinutes  int                    `json:"otp_expiration_minutes"`
	PasswordExpiresInDays int                    `json:"password_expires_in_days"`
}

type OTPSendRequest struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
}

type OTPSendResponse struct {
	OTPLength         int `json:"otp_length"`
	ExpirationMinutes int `json:"expiration_minutes"`
}

func (OTPSendResponse) Message() string {
	return "If an account with that email exists, we have sent a one-time code."
}

type OTPVerifyRequest struct {
	Email   string `json:"email"`
	Code    string `json:"code"`
	Purpose string `json:"purpose"`
}

type OTPVerifyResponse struct {
	GrantToken string    `json:"grant_token"`
	ExpiresAt  time.Time `json:"expires_at"`
	Purpose    string    `json:"purpose"`
}

func (OTPVerifyResponse) Message() string {
	return "Code verified."
}

type PasswordResetRequest struct {
	GrantToken  string `json:"grant_token"`
	NewPassword string `json:"new_password"`
}

type PasswordResetResponse struct {
	PasswordChangedAt time.Time `json:"password_changed_at"`
	PasswordExpiresAt time.Time `json:"password_expires_at"`
}

func (PasswordResetResponse) Message() string {
	return "Password has been reset."
}
