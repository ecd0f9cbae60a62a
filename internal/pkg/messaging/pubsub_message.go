package messaging

import (
	"context"
	"sync/atomic"
	"time"

	"cloud.google.com/go/pubsub/v2"
)

type pubSubMessage struct {
	topic string
	msg   *pubsub.Message
	done  atomic.Bool
}

func (m *pubSubMessage) Body() []byte             { return m.msg.Data }
func (m *pubSubMessage) Header(key string) string { return m.msg.Attributes[key] }
func (m *pubSubMessage) ID() string               { return m.msg.ID }
func (m *pubSubMessage) Topic() string            { return m.topic }
func (m *pubSubMessage) Timestamp() time.Time     { return m.msg.PublishTime }
func (m *pubSubMessage) responded() bool          { return m.done.Load() }

func (m *pubSubMessage) Ack(ctx context.Context) error {
	return m.respond(ctx, m.msg.Ack)
}

func (m *pubSubMessage) Nack(ctx context.Context) error {
	return m.respond(ctx, m.msg.Nack)
}

func (m *pubSubMessage) respond(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.done.Swap(true) {
		fn()
	}
	return nil
}
