package entity

type UserStatus int16

const (
	// UserStatusUnknown is mean status is not known / not set.
	UserStatusUnknown UserStatus = 0

	// UserStatusUnverified mean user exists but has not completed verification.
	UserStatusUnverified UserStatus = 1

	// UserStatusActive mean user is verified and allowed to use the app.
	UserStatusActive UserStatus = 2

	// UserStatusBanned mean user is blocked from using the app.
	UserStatusBanned UserStatus = 3

	// UserStatusInactive mean user is deactivated or closed.
	UserStatusInactive UserStatus = 4
)

func (us UserStatus) String() string {
	switch us {
	case UserStatusActive:
		return "Active"
	case UserStatusBanned:
		return "Banned"
	case UserStatusInactive:
		return "Inactive"
	case UserStatusUnverified:
		return "Unverified"
	default:
		return "Unknown"
	}
}

// Ensure maps unrecognized values to UserStatusUnknown.
func (us UserStatus) Ensure() UserStatus {
	switch us {
	case UserStatusUnverified, UserStatusActive, UserStatusBanned, UserStatusInactive:
		return us
	default:
		return UserStatusUnknown
	}
}

// OTPPurpose is what a one-time code was issued for. A user holds at most
// one active code whatever its purpose.
type OTPPurpose int16

const (
	OTPPurposeUnknown       OTPPurpose = 0
	OTPPurposePasswordReset OTPPurpose = 1
	OTPPurposeLogin         OTPPurpose = 2
)

// ParseOTPPurpose reads the wire name of a purpose. An empty string means
// password_reset.
func ParseOTPPurpose(s string) OTPPurpose {
	switch s {
	case "", "password_reset":
		return OTPPurposePasswordReset
	case "login":
		return OTPPurposeLogin
	default:
		return OTPPurposeUnknown
	}
}

func (p OTPPurpose) String() string {
	switch p {
	case OTPPurposePasswordReset:
		return "password_reset"
	case OTPPurposeLogin:
		return "login"
	default:
		return "unknown"
	}
}
