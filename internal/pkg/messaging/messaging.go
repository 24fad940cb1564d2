package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrDestinationRequired is returned when Publish or Consume gets an empty topic.
	ErrDestinationRequired = errors.New("messaging: destination is required")
	// ErrHandlerRequired is returned when Consume is called with a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
)

// Messaging is a broker client that can publish and consume messages.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher publishes messages to a destination (topic or subject).
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer consumes messages from a source and blocks until ctx is done or
// the client is closed.
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to be published.
type OutgoingMessage struct {
	Body []byte
	// Key is used for partitioning by brokers that support it.
	Key []byte
	// Headers are dropped by brokers without header support (NSQ).
	Headers map[string]string
}

// PublishResult carries what the broker reported about an accepted message.
type PublishResult struct {
	MessageID string
	Timestamp time.Time
}

// Message is a received message.
type Message interface {
	Body() []byte
	Headers() map[string]string
	ID() string
	Timestamp() time.Time

	// Ack acknowledges successful processing. Calling it twice is a no-op.
	Ack(ctx context.Context) error
}

// Nackable can request redelivery of a message.
type Nackable interface {
	Nack(ctx context.Context) error
}

// Header returns a single header value of msg, or "" when absent.
func Header(msg Message, key string) string {
	headers := msg.Headers()
	if headers == nil {
		return ""
	}
	return headers[key]
}
