package messaging

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	// ErrKafkaBrokersRequired is returned when no broker is configured.
	ErrKafkaBrokersRequired = errors.New("messaging: kafka brokers are required")
	// ErrKafkaGroupRequired is returned when Consume has no consumer group.
	ErrKafkaGroupRequired = errors.New("messaging: kafka consumer group is required")
)

// KafkaConfig configures the Kafka client.
type KafkaConfig struct {
	Brokers []string
	// MaxBytes caps a fetch. Zero means 10MB.
	MaxBytes int
}

// Kafka is a Messaging backed by kafka-go. One writer serves every topic;
// each Consume opens its own group reader.
type Kafka struct {
	brokers  []string
	maxBytes int
	writer   *kafka.Writer

	mu      sync.Mutex
	readers map[*kafka.Reader]struct{}
	closed  bool
}

// NewKafka builds a client. No connection is made until the first call.
func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, ErrKafkaBrokersRequired
	}

	return &Kafka{
		brokers:  cfg.Brokers,
		maxBytes: cmp.Or(cfg.MaxBytes, 10e6),
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
		readers: make(map[*kafka.Reader]struct{}),
	}, nil
}

// Close stops every reader and flushes the writer.
func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	readers := k.readers
	k.readers = nil
	k.mu.Unlock()

	var errs []error
	for r := range readers {
		errs = append(errs, r.Close())
	}
	errs = append(errs, k.writer.Close())

	return errors.Join(errs...)
}

// Publish writes msg to the destination topic; headers become record headers.
func (k *Kafka) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	rec := kafka.Message{Topic: destination, Value: msg.Body, Time: time.Now()}
	for key, v := range msg.Headers {
		rec.Headers = append(rec.Headers, kafka.Header{Key: key, Value: []byte(v)})
	}

	if err := k.writer.WriteMessages(ctx, rec); err != nil {
		return PublishResult{}, fmt.Errorf("messaging: kafka publish: %w", err)
	}

	return PublishResult{Topic: destination, Timestamp: rec.Time}, nil
}

// Consume reads source as the consumer group set by WithQueueGroup. Offsets
// are committed on Ack; a Nack leaves the offset for redelivery after a
// rebalance.
func (k *Kafka) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
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
	if co.queueGroup == "" {
		return ErrKafkaGroupRequired
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		GroupID:  co.queueGroup,
		Topic:    source,
		MaxBytes: k.maxBytes,
	})
	if err := k.track(reader); err != nil {
		return errors.Join(err, reader.Close())
	}
	defer k.untrack(reader)

	msgCh := make(chan kafka.Message)
	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for m := range msgCh {
				wrapped := &kafkaMessage{reader: reader, msg: m}
				herr := handle(ctx, DriverKafka, handler, wrapped)
				settle(ctx, wrapped, herr, co.autoAck)
			}
		})
	}

	var ferr error
	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			ferr = err
			break
		}
		msgCh <- m
	}
	close(msgCh)
	wg.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(ferr, io.EOF) {
		// reader closed by Close
		return nil
	}
	return fmt.Errorf("messaging: kafka fetch: %w", ferr)
}

func (k *Kafka) track(r *kafka.Reader) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.closed {
		return io.ErrClosedPipe
	}
	k.readers[r] = struct{}{}
	return nil
}

func (k *Kafka) untrack(r *kafka.Reader) {
	k.mu.Lock()
	_, ok := k.readers[r]
	delete(k.readers, r)
	k.mu.Unlock()

	if ok {
		_ = r.Close()
	}
}

