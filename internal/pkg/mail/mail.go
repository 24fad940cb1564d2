package mail

import (
	"context"
	"io"
)

// Message is one outgoing email. At least one of To, Cc or Bcc must be set;
// Bcc recipients never appear in the headers.
type Message struct {
	From    string
	To      []string
	Cc      []string
	Bcc     []string
	Subject string

	// TextBody and HTMLBody are sent as multipart/alternative when both are set.
	TextBody string
	HTMLBody string

	// Headers are extra header lines such as Auto-Submitted. Line breaks in
	// values are dropped.
	Headers map[string]string
}

// Mail sends messages through one provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
