package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"cloud.google.com/go/pubsub/v2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

// ErrPubSubProjectIDRequired is returned when ProjectID is missing.
var ErrPubSubProjectIDRequired = errors.New("messaging: pubsub project id is required")

const pubSubScope = "https://www.googleapis.com/auth/pubsub"

// PubSubConfig configures the Google Pub/Sub client. Credentials come from
// the environment unless CredentialsJSON holds a service account key.
type PubSubConfig struct {
	ProjectID       string
	CredentialsJSON []byte
	// Endpoint points the client at an emulator or a regional endpoint.
	Endpoint string
}

// PubSub is a Messaging backed by Google Pub/Sub. Topics and subscriptions
// are provisioned outside the service.
type PubSub struct {
	client *pubsub.Client

	mu         sync.Mutex
	publishers map[string]*pubsub.Publisher
	closed     bool
}

// NewPubSub creates the client for cfg.ProjectID.
func NewPubSub(ctx context.Context, cfg PubSubConfig) (*PubSub, error) {
	if cfg.ProjectID == "" {
		return nil, ErrPubSubProjectIDRequired
	}

	var opts []option.ClientOption
	if len(cfg.CredentialsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(ctx, cfg.CredentialsJSON, pubSubScope)
		if err != nil {
			return nil, fmt.Errorf("messaging: pubsub credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("messaging: pubsub client: %w", err)
	}

	return &PubSub{client: client, publishers: make(map[string]*pubsub.Publisher)}, nil
}

// Close flushes pending publishes and closes the client.
func (p *PubSub) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	pubs := p.publishers
	p.publishers = nil
	p.mu.Unlock()

	for _, pub := range pubs {
		pub.Stop()
	}
	return p.client.Close()
}

// Publish sends msg to the destination topic and waits for the server id.
// Headers travel as message attributes.
func (p *PubSub) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := ctx.Err(); err != nil {
		return PublishResult{}, err
	}
	if destination == "" {
		return PublishResult{}, ErrDestinationRequired
	}
	if msg.Delay > 0 {
		return PublishResult{}, ErrUnsupported
	}

	pub, err := p.publisher(destination)
	if err != nil {
		return PublishResult{}, err
	}

	id, err := pub.Publish(ctx, &pubsub.Message{Data: msg.Body, Attributes: msg.Headers}).Get(ctx)
	if err != nil {
		return PublishResult{}, fmt.Errorf("messaging: pubsub publish: %w", err)
	}

	return PublishResult{MessageID: id, Topic: destination}, nil
}

// Consume receives from the subscription named by WithQueueGroup, or from
// a subscription named after source when no group is set.
func (p *PubSub) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if source == "" {
		return ErrDestinationRequired
	}
	if handler == nil {
		return ErrHandlerRequired
	}
	if p.isClosed() {
		return io.ErrClosedPipe
	}

	co := newConsumeOptions(opts...)
	subscription := source
	if co.queueGroup != "" {
		subscription = co.queueGroup
	}

	sub := p.client.Subscriber(subscription)
	sub.ReceiveSettings.NumGoroutines = co.concurrency
	if co.maxInFlight > 0 {
		sub.ReceiveSettings.MaxOutstandingMessages = co.maxInFlight
	}

	return sub.Receive(ctx, func(ctx context.Context, m *pubsub.Message) {
		wrapped := &pubSubMessage{topic: source, msg: m}
		herr := handle(ctx, DriverGooglePubSub, handler, wrapped)
		settle(ctx, wrapped, herr, co.autoAck)
	})
}

func (p *PubSub) publisher(topic string) (*pubsub.Publisher, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, io.ErrClosedPipe
	}
	if pub, ok := p.publishers[topic]; ok {
		return pub, nil
	}

	pub := p.client.Publisher(topic)
	p.publishers[topic] = pub
	return pub, nil
}

func (p *PubSub) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
