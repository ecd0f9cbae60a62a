package inbound

import (
	"context"
	"log/slog"
	"slices"

	"github.com/shandysiswandi/gosignup/internal/pkg/config"
	"github.com/shandysiswandi/gosignup/internal/pkg/goroutine"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/pkg/messaging"
	"github.com/shandysiswandi/gosignup/internal/pkg/uid"
	"github.com/shandysiswandi/gosignup/internal/shared/event"
)

// RegisterMQConsumer starts every consumer listed in
// modules.notification.consumer_names on the goroutine manager.
func RegisterMQConsumer(
	ctx context.Context,
	cfg config.Config,
	routine *goroutine.Manager,
	messenger messaging.Consumer,
	uuid uid.StringID,
	uc uc,
	ins instrument.Instrumentation,
) {
	mqHandler := &MQHandler{uc: uc, uuid: uuid, ins: ins}

	enableConsumerNames := cfg.GetArray("modules.notification.consumer_names")
	concurrency := max(cfg.GetInt("modules.notification.consumer_concurrency"), 1)

	var consumers = []struct {
		name    string
		topic   string // destination where publisher sent message
		group   string // nsq channel, nats queue group
		handler messaging.Handler
	}{
		{
			name:    event.UserRegisteredConsumerWelcome,
			topic:   event.UserRegisteredDestination,
			group:   event.UserRegisteredConsumerWelcome,
			handler: mqHandler.UserRegisteredWelcome,
		},
	}

	for _, consumer := range consumers {
		if !slices.Contains(enableConsumerNames, consumer.name) {
			continue
		}

		started := routine.Go(ctx, func(pCtx context.Context) error {
			slog.InfoContext(pCtx, "Running job for handling consumer", "consumer", consumer.name)
			return messenger.Consume(pCtx,
				consumer.topic,
				consumer.handler,
				messaging.WithChannel(consumer.group),
				messaging.WithQueueGroup(consumer.group),
				messaging.WithAutoAck(true),
				messaging.WithConcurrency(concurrency),
				messaging.WithMaxInFlight(concurrency),
			)
		})
		if !started {
			slog.WarnContext(ctx, "consumer not started", "consumer", consumer.name)
		}
	}
}
