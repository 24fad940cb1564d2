package mail

import (
	"context"
	"errors"
	"net/smtp"
	"net/textproto"
	"strings"
	"testing"
	"time"
)

func newTestSMTP(t *testing.T, send sendFunc) *SMTP {
	t.Helper()

	s, err := NewSMTP(SMTPConfig{
		Host:        "mail.test",
		Port:        2525,
		From:        "no-reply@otpgate.test",
		MaxRetries:  2,
		BackoffBase: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewSMTP() error = %v", err)
	}
	s.send = send

	return s
}

func TestSMTP_Send_Multipart(t *testing.T) {
	// Arrange
	var gotAddr, gotFrom string
	var gotTo []string
	var gotRaw string
	s := newTestSMTP(t, func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotRaw = addr, from, to, string(msg)
		return nil
	})

	// Act
	err := s.Send(context.Background(), Message{
		To:       []string{"jane@example.test"},
		Bcc:      []string{"audit@example.test"},
		Subject:  "Kode verifikasi Anda",
		TextBody: "code 123456",
		HTMLBody: "<b>123456</b>",
		Headers:  map[string]string{"Auto-Submitted": "auto-generated", "X-Entity-Ref-ID": "m-1\r\nBcc: evil@example.test"},
	})

	// Assert
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotAddr != "mail.test:2525" || gotFrom != "no-reply@otpgate.test" || len(gotTo) != 2 {
		t.Fatalf("addr=%q from=%q to=%v", gotAddr, gotFrom, gotTo)
	}
	if strings.Contains(gotRaw, "audit@example.test") {
		t.Fatal("Bcc leaked into headers")
	}
	if strings.Contains(gotRaw, "\r\nBcc:") || !strings.Contains(gotRaw, "X-Entity-Ref-ID: m-1Bcc: evil@example.test\r\n") {
		t.Fatalf("header value not flattened:\n%s", gotRaw)
	}
	for _, want := range []string{"Auto-Submitted: auto-generated\r\n", "multipart/alternative", "text/plain; charset=UTF-8", "text/html; charset=UTF-8", "Message-ID: <"} {
		if !strings.Contains(gotRaw, want) {
			t.Fatalf("raw message missing %q:\n%s", want, gotRaw)
		}
	}
}

func TestSMTP_Send_Retries(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{name: "transient then ok", errs: []error{&textproto.Error{Code: 421, Msg: "busy"}, nil}, wantCalls: 2},
		{name: "permanent", errs: []error{&textproto.Error{Code: 550, Msg: "no such user"}}, wantCalls: 1, wantErr: true},
		{
			name:      "transient exhausted",
			errs:      []error{&textproto.Error{Code: 451}, &textproto.Error{Code: 451}, &textproto.Error{Code: 451}},
			wantCalls: 3,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			s := newTestSMTP(t, func(string, smtp.Auth, string, []string, []byte) error {
				err := tt.errs[min(calls, len(tt.errs)-1)]
				calls++
				return err
			})

			err := s.Send(context.Background(), Message{To: []string{"a@b.test"}, TextBody: "x"})

			if (err != nil) != tt.wantErr {
				t.Fatalf("Send() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Fatalf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestSMTP_Send_Validation(t *testing.T) {
	s := newTestSMTP(t, func(string, smtp.Auth, string, []string, []byte) error { return nil })

	if err := s.Send(context.Background(), Message{}); !errors.Is(err, ErrSMTPNoRecipients) {
		t.Fatalf("Send(no recipients) error = %v", err)
	}

	s.defaultFrom = ""
	if err := s.Send(context.Background(), Message{To: []string{"a@b.test"}}); !errors.Is(err, ErrSMTPNoSender) {
		t.Fatalf("Send(no sender) error = %v", err)
	}

	if _, err := NewSMTP(SMTPConfig{}); !errors.Is(err, ErrSMTPHostPortRequired) {
		t.Fatalf("NewSMTP() error = %v", err)
	}
}
