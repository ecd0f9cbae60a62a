package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrUnsupported is returned when the selected broker lacks a feature.
	ErrUnsupported = errors.New("messaging: unsupported operation")
	// ErrDestinationRequired is returned for an empty topic or subject.
	ErrDestinationRequired = errors.New("messaging: destination is required")
	// ErrHandlerRequired is returned when Consume gets a nil handler.
	ErrHandlerRequired = errors.New("messaging: handler is required")
)

// Messaging publishes and consumes messages.
type Messaging interface {
	io.Closer
	Publisher
	Consumer
}

// Publisher sends messages to a topic or subject.
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer receives messages from a topic or subject. Consume blocks until
// ctx is done or the broker stops the subscription.
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a message to publish. Brokers without native headers
// drop Headers.
type OutgoingMessage struct {
	Body    []byte
	Headers map[string]string
	Delay   time.Duration
}

// PublishResult describes an accepted publish.
type PublishResult struct {
	MessageID string
	Topic     string
	Timestamp time.Time
}

// Message is a received message.
type Message interface {
	Body() []byte
	// Header returns the first value of a header, or "".
	Header(key string) string
	ID() string
	Topic() string
	Timestamp() time.Time
	// Ack marks the message processed.
	Ack(ctx context.Context) error
	// Nack asks the broker to redeliver the message.
	Nack(ctx context.Context) error
}
