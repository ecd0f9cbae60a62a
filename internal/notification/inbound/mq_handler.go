package inbound

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shandysiswandi/gosignup/internal/notification/usecase"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/pkg/messaging"
	"github.com/shandysiswandi/gosignup/internal/pkg/uid"
	"github.com/shandysiswandi/gosignup/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, msg messaging.Message) context.Context {
	if cID := msg.Header(keyOfCorrelationID); cID != "" {
		return instrument.SetCorrelationID(ctx, cID)
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) UserRegisteredWelcome(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg)

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "UserRegisteredWelcome")
	defer span.End()

	body := msg.Body()
	slog.InfoContext(ctx, "consume: user registered welcome", "msg_id", msg.ID())

	var payload event.UserRegisteredMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse message body of user registered", "msg_body", string(body), "error", err)
		return nil
	}

	if err := h.uc.ConsumeUserRegistered(ctx, usecase.ConsumeUserRegisteredInput{
		UserID:   payload.UserID,
		Username: payload.Username,
		Email:    payload.Email,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume user registered", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}
