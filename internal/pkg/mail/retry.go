package mail

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// Retrying wraps a Mail and retries failed sends with exponential backoff.
// Errors caused by the message itself are returned without retrying.
type Retrying struct {
	next     Mail
	attempts uint64
	base     time.Duration
	maxDelay time.Duration
}

// NewRetrying wraps next. attempts counts the retries after the first send.
func NewRetrying(next Mail, attempts uint64, base time.Duration) *Retrying {
	if base <= 0 {
		base = 200 * time.Millisecond
	}

	return &Retrying{next: next, attempts: attempts, base: base, maxDelay: 5 * time.Second}
}

// Send delivers msg through the wrapped Mail.
func (r *Retrying) Send(ctx context.Context, msg Message) error {
	b := retry.NewExponential(r.base)
	b = retry.WithMaxRetries(r.attempts, b)
	b = retry.WithCappedDuration(r.maxDelay, b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := r.next.Send(ctx, msg)
		if err == nil || permanent(err) {
			return err
		}

		slog.WarnContext(ctx, "mail send failed, retrying", "subject", msg.Subject, "error", err)
		return retry.RetryableError(err)
	})
}

// Close closes the wrapped Mail.
func (r *Retrying) Close() error {
	return r.next.Close()
}

func permanent(err error) bool {
	return errors.Is(err, ErrSMTPNoRecipients) ||
		errors.Is(err, ErrSMTPNoSender) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
