package messaging

import (
	"context"
	"sync/atomic"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

type nsqMessage struct {
	topic string
	msg   *nsq.Message
	done  atomic.Bool
}

func (m *nsqMessage) Body() []byte         { return m.msg.Body }
func (m *nsqMessage) Header(string) string { return "" }
func (m *nsqMessage) ID() string           { return string(m.msg.ID[:]) }
func (m *nsqMessage) Topic() string        { return m.topic }
func (m *nsqMessage) Timestamp() time.Time { return time.Unix(0, m.msg.Timestamp) }
func (m *nsqMessage) responded() bool      { return m.done.Load() }

func (m *nsqMessage) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.done.Swap(true) {
		m.msg.Finish()
	}
	return nil
}

func (m *nsqMessage) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !m.done.Swap(true) {
		m.msg.Requeue(-1)
	}
	return nil
}
