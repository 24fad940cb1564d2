package entity

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUserNotFound = errors.New("identity: user not found")

	ErrOTPNotIssued = errors.New("identity: no one-time code issued")
	ErrOTPExpired   = errors.New("identity: one-time code expired")
	ErrOTPInvalid   = errors.New("identity: one-time code invalid")

	// ErrOTPAttemptsExceeded is the wrong guess that used up the last
	// attempt of a record. It is still an ErrOTPInvalid.
	ErrOTPAttemptsExceeded = fmt.Errorf("%w: too many failed attempts", ErrOTPInvalid)
)

// OTPRecord is the single active one-time code of a user. Only the keyed
// digest of the code is stored.
type OTPRecord struct {
	ID       int64
	UserID   int64
	Purpose  OTPPurpose
	CodeHash string
	IssuedAt time.Time
	// FailedAttempts counts wrong guesses against this record.
	FailedAttempts int
}
