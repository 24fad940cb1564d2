package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/otpgate/internal/identity/entity"
	"github.com/shandysiswandi/otpgate/internal/identity/otpauth"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/shared/event"
)

type fakePublisher struct {
	destination string
	msg         messaging.OutgoingMessage
	err         error
}

func (f *fakePublisher) Publish(_ context.Context, destination string, msg messaging.OutgoingMessage) (messaging.PublishResult, error) {
	f.destination = destination
	f.msg = msg
	return messaging.PublishResult{MessageID: "m-1"}, f.err
}

func TestNotifier_Send(t *testing.T) {
	t.Parallel()

	// Arrange
	pub := &fakePublisher{}
	n := NewNotifier(pub, instrument.NewNoop())
	ctx := instrument.SetCorrelationID(context.Background(), "cid-1")
	expiresAt := time.Date(2026, 1, 2, 3, 9, 5, 0, time.UTC)

	// Act
	err := n.Send(ctx, otpauth.Notice{
		UserID:            7,
		Recipient:         "jane@example.com",
		Name:              "Jane",
		Code:              "012345",
		Purpose:           entity.OTPPurposePasswordReset,
		ExpirationMinutes: 5,
		ExpiresAt:         expiresAt,
		Locale:            "en",
	})

	// Assert
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if pub.destination != event.OTPIssuedDestination {
		t.Fatalf("destination = %q", pub.destination)
	}
	if got := pub.msg.Headers[keyOfCorrelationID]; got != "cid-1" {
		t.Fatalf("cID header = %q", got)
	}
	if string(pub.msg.Key) != "7" {
		t.Fatalf("key = %q", pub.msg.Key)
	}

	var body event.OTPIssuedMessage
	if err := json.Unmarshal(pub.msg.Body, &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Code != "012345" || body.Purpose != "password_reset" || body.ExpirationMinutes != 5 || !body.ExpiresAt.Equal(expiresAt) {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestNotifier_SendPublishError(t *testing.T) {
	t.Parallel()

	errBroker := errors.New("broker down")
	n := NewNotifier(&fakePublisher{err: errBroker}, instrument.NewNoop())

	if err := n.Send(context.Background(), otpauth.Notice{UserID: 1}); !errors.Is(err, errBroker) {
		t.Fatalf("err = %v, want %v", err, errBroker)
	}
}
