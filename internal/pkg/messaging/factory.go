package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverLocal selects the in-process bus.
	DriverLocal = "local"
	// DriverNSQ selects NSQ.
	DriverNSQ = "nsq"
	// DriverNATS selects NATS.
	DriverNATS = "nats"
	// DriverKafka selects Kafka.
	DriverKafka = "kafka"
	// DriverGooglePubSub selects Google Pub/Sub.
	DriverGooglePubSub = "google-pubsub"
)

// ErrUnknownDriver indicates an unsupported messaging driver.
var ErrUnknownDriver = errors.New("messaging: unknown driver")

// FactoryOptions groups per-driver settings. Only the selected driver's
// settings are read.
type FactoryOptions struct {
	NSQ    NSQConfig
	NATS   NATSConfig
	Kafka  KafkaConfig
	PubSub PubSubConfig
}

// NewFromDriver constructs a Messaging implementation by driver name. An
// empty driver is the local bus.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Messaging, error) {
	switch strings.TrimSpace(driver) {
	case DriverLocal, "":
		return NewLocal(), nil
	case DriverNSQ:
		return NewNSQ(opts.NSQ)
	case DriverNATS:
		return NewNATS(opts.NATS)
	case DriverKafka:
		return NewKafka(opts.Kafka)
	case DriverGooglePubSub:
		return NewPubSub(ctx, opts.PubSub)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
