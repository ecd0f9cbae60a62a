// Package otpstore keeps issued signup codes. Memory serves a single
// process; Redis is shared between replicas and also expires records on
// its own.
package otpstore

import (
	"context"
	"errors"

	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

var ErrUnknownDriver = errors.New("otpstore: unknown driver")

func startSpan(ctx context.Context, ins instrument.Instrumentation, name string) (context.Context, trace.Span) {
	return ins.Tracer("signup.outbound.otpstore").Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
