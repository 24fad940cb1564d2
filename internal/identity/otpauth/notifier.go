package otpauth

import (
	"context"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
)

// Notice is what a recipient needs to use a freshly issued code.
type Notice struct {
	UserID            int64
	Recipient         string
	Name              string
	Code              string
	Purpose           entity.OTPPurpose
	ExpirationMinutes int
	ExpiresAt         time.Time
	Locale            string
}

// Notifier delivers a code to its recipient.
type Notifier interface {
	Send(ctx context.Context, n Notice) error
}
