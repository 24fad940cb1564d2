package inbound

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/identity/usecase"
	"github.com/shandysiswandi/otpgate/internal/pkg/ratelimit"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
)

type uc interface {
	PasswordPolicy(ctx context.Context, in usecase.PasswordPolicyInput) (*usecase.PasswordPolicyOutput, error)
	OTPSend(ctx context.Context, in usecase.OTPSendInput) (*usecase.OTPSendOutput, error)
	OTPVerify(ctx context.Context, in usecase.OTPVerifyInput) (*usecase.OTPVerifyOutput, error)
	PasswordReset(ctx context.Context, in usecase.PasswordResetInput) (*usecase.PasswordResetOutput, error)
}

// RegisterHTTPEndpoint mounts the identity routes. ipLimiter guards the
// routes that send mail or check codes; nil disables it.
func RegisterHTTPEndpoint(r *router.Router, uc uc, ipLimiter ratelimit.Limiter) {
	end := &HTTPEndpoint{uc: uc}
	perIP := router.RateLimitByIP(ipLimiter)

	r.GET("/api/v1/identity/password/policy", end.PasswordPolicy)
	r.POST("/api/v1/identity/password/reset", end.PasswordReset, perIP)

	r.POST("/api/v1/identity/otp/send", end.OTPSend, perIP)
	r.POST("/api/v1/identity/otp/verify", end.OTPVerify, perIP)
}
