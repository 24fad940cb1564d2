package event

import "time"

const OTPIssuedDestination string = "otp_issued"
const OTPIssuedConsumerNotification string = "otp_issued_notification"

// OTPIssuedMessage carries a freshly issued code to the mailer. Code is
// plaintext, so the message must never be logged unmasked.
type OTPIssuedMessage struct {
	UserID            int64     `json:"user_id"`
	Email             string    `json:"email"`
	FullName          string    `json:"full_name"`
	Code              string    `json:"code"`
	Purpose           string    `json:"purpose"`
	ExpirationMinutes int       `json:"expiration_minutes"`
	ExpiresAt         time.Time `json:"expires_at"`
	Locale            string    `json:"locale"`
}
