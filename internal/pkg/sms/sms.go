package sms

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNoRecipient is returned when Message.To is empty.
	ErrNoRecipient = errors.New("sms: no recipient provided")
	// ErrEmptyBody is returned when Message.Body is empty.
	ErrEmptyBody = errors.New("sms: empty body")
	// ErrGatewayRejected is returned when the gateway refuses the message.
	ErrGatewayRejected = errors.New("sms: gateway rejected message")
	// ErrDeliveryUnknown is returned when the connection failed after the
	// request was written, so the gateway may have accepted the message.
	ErrDeliveryUnknown = errors.New("sms: delivery unknown")
	// ErrUnknownDriver is returned by New for an unsupported driver name.
	ErrUnknownDriver = errors.New("sms: unknown driver")
)

// Message is a single text message. To is an E.164 number.
type Message struct {
	To   string
	Body string
}

// SMS abstracts an SMS provider.
type SMS interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

func (m Message) validate() error {
	if m.To == "" {
		return ErrNoRecipient
	}
	if m.Body == "" {
		return ErrEmptyBody
	}
	return nil
}
