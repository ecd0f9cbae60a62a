package sms

import (
	"context"

	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/pkg/sms"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type SMS struct {
	client sms.SMS
	ins    instrument.Instrumentation
}

func New(client sms.SMS, ins instrument.Instrumentation) *SMS {
	return &SMS{client: client, ins: ins}
}

func (s *SMS) Send(ctx context.Context, msg sms.Message) error {
	ctx, span := s.ins.Tracer("signup.outbound.sms").Start(ctx, "Send")
	defer span.End()

	span.SetAttributes(attribute.String("sms.to_suffix", suffix(msg.To, 4)))

	if err := s.client.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func suffix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
