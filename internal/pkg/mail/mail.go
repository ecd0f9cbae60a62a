package mail

import (
	"context"
	"io"
)

// Message represents an email payload.
type Message struct {
	// From overrides the configured sender when set.
	From    string
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	// TextBody is the plain-text alternative.
	TextBody string
	// HTMLBody is optional; with TextBody it produces multipart/alternative.
	HTMLBody string
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}
