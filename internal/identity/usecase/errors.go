package usecase

import (
	"errors"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

const (
	msgOTPNotIssued = "no active code, request a new one"
	msgOTPExpired   = "code expired, request a new one"
	msgOTPInvalid   = "code is invalid"
	msgOTPBurned    = "too many wrong codes, request a new one"
)

// otpError turns a validation outcome into the error shown to the caller.
// The domain sentinel stays in the chain.
func otpError(err error) error {
	switch {
	case errors.Is(err, entity.ErrOTPNotIssued):
		return goerror.NewBusinessWrap(err, msgOTPNotIssued, goerror.CodeInvalidInput)
	case errors.Is(err, entity.ErrOTPExpired):
		return goerror.NewBusinessWrap(err, msgOTPExpired, goerror.CodeInvalidInput)
	case errors.Is(err, entity.ErrOTPAttemptsExceeded):
		return goerror.NewBusinessWrap(err, msgOTPBurned, goerror.CodeInvalidInput)
	case errors.Is(err, entity.ErrOTPInvalid):
		return goerror.NewBusinessWrap(err, msgOTPInvalid, goerror.CodeInvalidInput)
	default:
		return goerror.NewServer(err)
	}
}

func isOTPRejection(err error) bool {
	return errors.Is(err, entity.ErrOTPNotIssued) ||
		errors.Is(err, entity.ErrOTPExpired) ||
		errors.Is(err, entity.ErrOTPInvalid)
}
