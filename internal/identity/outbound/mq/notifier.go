package mq

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/shandysiswandi/otpgate/internal/identity/otpauth"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

// Notifier hands issued codes to the notification module through the broker.
type Notifier struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewNotifier(client messaging.Publisher, ins instrument.Instrumentation) *Notifier {
	return &Notifier{client: client, ins: ins}
}

func (n *Notifier) Send(ctx context.Context, notice otpauth.Notice) error {
	ctx, span := n.ins.Tracer("identity.outbound.mq").Start(ctx, "PublishOTPIssued")
	defer span.End()

	span.SetAttributes(attribute.String("otp.purpose", notice.Purpose.String()))

	body, err := json.Marshal(event.OTPIssuedMessage{
		UserID:            notice.UserID,
		Email:             notice.Recipient,
		FullName:          notice.Name,
		Code:              notice.Code,
		Purpose:           notice.Purpose.String(),
		ExpirationMinutes: notice.ExpirationMinutes,
		ExpiresAt:         notice.ExpiresAt.UTC(),
		Locale:            notice.Locale,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	res, err := n.client.Publish(ctx, event.OTPIssuedDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(strconv.FormatInt(notice.UserID, 10)),
		Headers: map[string]string{keyOfCorrelationID: cID},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.String("messaging.message_id", res.MessageID))

	return nil
}
