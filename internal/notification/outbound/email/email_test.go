package email

import (
	"context"
	"errors"
	"testing"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
)

type fakeMail struct {
	got []mail.Message
	err error
}

func (f *fakeMail) Close() error { return nil }

func (f *fakeMail) Send(_ context.Context, msg mail.Message) error {
	f.got = append(f.got, msg)
	return f.err
}

func TestSender_Send(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "delivered"},
		{name: "provider failure is returned", err: errors.New("421 try later"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Arrange
			client := &fakeMail{err: tt.err}
			s := New(client, instrument.NewNoop())
			msg := mail.Message{To: []string{"jane@example.com"}, Subject: "code", TextBody: "123456"}

			// Act
			err := s.Send(context.Background(), msg)

			// Assert
			if (err != nil) != tt.wantErr {
				t.Fatalf("Send() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(client.got) != 1 || client.got[0].Subject != "code" {
				t.Fatalf("forwarded = %+v", client.got)
			}
		})
	}
}
