package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

type natsMessage struct {
	msg        *nats.Msg
	receivedAt time.Time
	done       atomic.Bool
}

func (m *natsMessage) Body() []byte         { return m.msg.Data }
func (m *natsMessage) ID() string           { return m.msg.Header.Get(nats.MsgIdHdr) }
func (m *natsMessage) Topic() string        { return m.msg.Subject }
func (m *natsMessage) Timestamp() time.Time { return m.receivedAt }
func (m *natsMessage) responded() bool      { return m.done.Load() }

func (m *natsMessage) Header(key string) string {
	if m.msg.Header == nil {
		return ""
	}
	return m.msg.Header.Get(key)
}

func (m *natsMessage) Ack(ctx context.Context) error {
	return m.respond(ctx, m.msg.Ack)
}

func (m *natsMessage) Nack(ctx context.Context) error {
	return m.respond(ctx, m.msg.Nak)
}

func (m *natsMessage) respond(ctx context.Context, fn func(...nats.AckOpt) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.done.Swap(true) {
		return nil
	}

	// Core NATS messages have no ack subject; only JetStream ones do.
	if err := fn(); err != nil && !errors.Is(err, nats.ErrMsgNoReply) && !errors.Is(err, nats.ErrMsgNotBound) {
		return err
	}
	return nil
}
