package messaging

import (
	"context"
	"io"
	"maps"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Local is an in-process bus for single-node runs and tests. Every
// consumer of a topic receives each message. There is no redelivery, so
// Nack only marks the message settled.
type Local struct {
	mu     sync.RWMutex
	subs   map[string][]chan *localMessage
	closed bool
	done   chan struct{}
	seq    atomic.Uint64
}

// NewLocal returns an empty bus.
func NewLocal() *Local {
	return &Local{subs: make(map[string][]chan *localMessage), done: make(chan struct{})}
}

// Publish delivers msg to the current consumers of destination.
func (l *Local) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return PublishResult{}, io.ErrClosedPipe
	}

	id := strconv.FormatUint(l.seq.Add(1), 10)
	now := time.Now()
	for _, ch := range l.subs[destination] {
		lm := &localMessage{
			id:      id,
			topic:   destination,
			body:    append([]byte(nil), msg.Body...),
			headers: maps.Clone(msg.Headers),
			at:      now,
		}
		select {
		case ch <- lm:
		case <-ctx.Done():
			return PublishResult{}, ctx.Err()
		}
	}

	return PublishResult{MessageID: id, Topic: destination, Timestamp: now}, nil
}

// Consume handles messages of source until ctx is done or the bus closes.
func (l *Local) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}

	co := newConsumeOptions(opts...)
	ch := make(chan *localMessage, 64)

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return io.ErrClosedPipe
	}
	l.subs[source] = append(l.subs[source], ch)
	l.mu.Unlock()

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for lm := range ch {
				herr := handle(ctx, DriverLocal, handler, lm)
				settle(ctx, lm, herr, co.autoAck)
			}
		})
	}

	select {
	case <-ctx.Done():
		l.unsubscribe(source, ch)
		wg.Wait()
		return ctx.Err()
	case <-l.done:
		wg.Wait()
		return nil
	}
}

func (l *Local) unsubscribe(source string, ch chan *localMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()

	subs := l.subs[source]
	for i, c := range subs {
		if c == ch {
			l.subs[source] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Close stops accepting publishes and ends every Consume loop's feed.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	close(l.done)
	for topic, subs := range l.subs {
		for _, ch := range subs {
			close(ch)
		}
		delete(l.subs, topic)
	}

	return nil
}

type localMessage struct {
	id      string
	topic   string
	body    []byte
	headers map[string]string
	at      time.Time
	done    atomic.Bool
}

func (m *localMessage) Body() []byte             { return m.body }
func (m *localMessage) Header(key string) string { return m.headers[key] }
func (m *localMessage) ID() string               { return m.id }
func (m *localMessage) Topic() string            { return m.topic }
func (m *localMessage) Timestamp() time.Time     { return m.at }
func (m *localMessage) responded() bool          { return m.done.Load() }

func (m *localMessage) Ack(context.Context) error {
	m.done.Store(true)
	return nil
}

func (m *localMessage) Nack(context.Context) error {
	m.done.Store(true)
	return nil
}
