package email

import (
	"context"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Sender delivers rendered notification mails and traces each attempt.
// Recipients are recorded by count only.
type Sender struct {
	client mail.Mail
	ins    instrument.Instrumentation
}

func New(client mail.Mail, ins instrument.Instrumentation) *Sender {
	return &Sender{client: client, ins: ins}
}

func (s *Sender) Send(ctx context.Context, msg mail.Message) error {
	ctx, span := s.ins.Tracer("notification.outbound.email").Start(ctx, "Send")
	defer span.End()

	span.SetAttributes(
		attribute.Int("mail.recipients", len(msg.To)+len(msg.Cc)+len(msg.Bcc)),
		attribute.Bool("mail.multipart", msg.HTMLBody != "" && msg.TextBody != ""),
		attribute.String("mail.ref_id", msg.Headers["X-Entity-Ref-ID"]),
	)

	err := s.client.Send(ctx, msg)
	if err == nil {
		return nil
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	instrument.CaptureError(ctx, err, "component", "notification.email")

	return err
}
