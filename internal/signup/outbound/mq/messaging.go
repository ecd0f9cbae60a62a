package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/gosignup/internal/pkg/clock"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/pkg/messaging"
	"github.com/shandysiswandi/gosignup/internal/shared/event"
	"github.com/shandysiswandi/gosignup/internal/signup/usecase"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	clock  clock.Clocker
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, clk clock.Clocker, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, clock: clk, ins: ins}
}

func (m *Messaging) PublishUserRegistered(ctx context.Context, msg usecase.UserRegisteredEvent) error {
	ctx, span := m.ins.Tracer("signup.outbound.mq").Start(ctx, "PublishUserRegistered")
	defer span.End()

	body, err := json.Marshal(event.UserRegisteredMessage{
		UserID:       msg.UserID,
		Username:     msg.Username,
		Email:        msg.Email,
		RegisteredAt: m.clock.Now(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if _, err := m.client.Publish(ctx, event.UserRegisteredDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: map[string]string{keyOfCorrelationID: instrument.GetCorrelationID(ctx)},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
