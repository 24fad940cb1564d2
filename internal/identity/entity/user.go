package entity

import "time"

type User struct {
	ID       int64
	Email    string
	FullName string
	Status   UserStatus
	// PasswordChangedAt is zero when the password was never rotated.
	PasswordChangedAt time.Time
	UpdatedAt         time.Time
}
