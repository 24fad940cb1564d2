package otpauth

import (
	"context"
	"errors"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
)

// CheckFunc inspects the current record of a user during Consume.
type CheckFunc func(rec entity.OTPRecord) error

// Store persists the active code of each user.
type Store interface {
	// Upsert creates or replaces the record of rec.UserID in one atomic step.
	Upsert(ctx context.Context, rec entity.OTPRecord) error

	// Consume loads the record of userID and runs check on it while holding
	// the user exclusively. It returns entity.ErrOTPNotIssued when there is
	// no record. Afterwards the record is deleted when Settles(check's
	// result), or kept with FailedAttempts incremented when
	// CountsFailure(check's result).
	Consume(ctx context.Context, userID int64, check CheckFunc) error
}

// Settles reports whether a check outcome ends the life of the record: a
// match consumes it, an expired code is never usable again and the last
// allowed wrong guess burns it.
func Settles(checkErr error) bool {
	return checkErr == nil ||
		errors.Is(checkErr, entity.ErrOTPExpired) ||
		errors.Is(checkErr, entity.ErrOTPAttemptsExceeded)
}

// CountsFailure reports whether a check outcome is a wrong guess that leaves
// the record in place with one more failed attempt.
func CountsFailure(checkErr error) bool {
	return errors.Is(checkErr, entity.ErrOTPInvalid) && !Settles(checkErr)
}
