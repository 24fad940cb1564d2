package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpgate/internal/notification/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
)

type ConsumeOTPIssuedInput struct {
	UserID            int64     `validate:"required,gt=0"`
	Email             string    `validate:"required,email"`
	Name              string    `validate:"max=255"`
	Code              string    `validate:"required,otpcode"`
	Purpose           string    `validate:"required,oneof=password_reset login"`
	ExpirationMinutes int       `validate:"gt=0"`
	ExpiresAt         time.Time `validate:"required"`
	Locale            string
	MessageID         string
}

// ConsumeOTPIssued mails a freshly issued code. Only a failed delivery is
// returned as an error, so the broker redelivers it; payloads that can never
// be delivered are logged and dropped.
func (s *Usecase) ConsumeOTPIssued(ctx context.Context, in ConsumeOTPIssuedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOTPIssued")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "Validation failed", "user_id", in.UserID, "error", err)
		return nil
	}

	delivery := entity.Delivery{
		UserID:    in.UserID,
		Purpose:   in.Purpose,
		Recipient: in.Email,
		MessageID: in.MessageID,
	}

	if s.clock.Now().After(in.ExpiresAt) {
		slog.WarnContext(ctx, "otp expired before delivery", "user_id", in.UserID, "expires_at", in.ExpiresAt)
		delivery.Status = entity.DeliveryStatusSkipped
		s.recordDelivery(ctx, delivery)
		return nil
	}

	email, err := renderOTPEmail(in.Purpose, in.Locale, templateData{
		AppName:           lo.CoalesceOrEmpty(s.cfg.GetString("app.name"), "otpgate"),
		Name:              lo.CoalesceOrEmpty(in.Name, in.Email),
		Code:              in.Code,
		ExpirationMinutes: in.ExpirationMinutes,
		ExpiresAt:         in.ExpiresAt.UTC().Format("15:04 MST, 2 Jan 2006"),
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to render otp email", "user_id", in.UserID, "purpose", in.Purpose, "error", err)
		return nil
	}

	if err := s.repoMail.Send(ctx, mail.Message{
		To:       []string{in.Email},
		Subject:  email.Subject,
		TextBody: email.Text,
		HTMLBody: email.HTML,
		Headers:  mailHeaders(in.MessageID),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send otp email", "user_id", in.UserID, "purpose", in.Purpose, "error", err)
		delivery.Status = entity.DeliveryStatusFailed
		delivery.Error = err.Error()
		s.recordDelivery(ctx, delivery)
		return err
	}

	delivery.Status = entity.DeliveryStatusSent
	s.recordDelivery(ctx, delivery)

	return nil
}

// mailHeaders marks the mail as automated and gives it a unique reference so
// clients do not thread consecutive codes together.
func mailHeaders(messageID string) map[string]string {
	h := map[string]string{"Auto-Submitted": "auto-generated"}
	if messageID != "" {
		h["X-Entity-Ref-ID"] = messageID
	}
	return h
}
