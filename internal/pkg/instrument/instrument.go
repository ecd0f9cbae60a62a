// Package instrument wires OpenTelemetry tracing, metrics and logs, and the
// process-wide slog handler with field masking.
package instrument

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Instrumentation hands out tracers and meters to the modules.
type Instrumentation interface {
	Tracer(name string) trace.Tracer
	Meter(name string) metric.Meter
	Shutdown(ctx context.Context) error
}

// Config drives OpenTelemetry initialization.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	// OTLPEndpoint is the gRPC collector address shared by all signals.
	OTLPEndpoint     string
	OTLPSecure       bool
	TraceSampleRatio float64
	MetricsInterval  time.Duration
	// MaskFields lists attribute and JSON keys logged as Masked.
	MaskFields []string
	// LogLevel is one of debug, info, warn, error. Defaults to info.
	LogLevel string
}

// providers is the live OpenTelemetry implementation.
type providers struct {
	traces  *sdktrace.TracerProvider
	metrics *sdkmetric.MeterProvider
	logs    *sdklog.LoggerProvider
}

// New installs the slog handler and, when cfg.Enabled, the OTLP exporters.
// A nil or disabled cfg yields a noop Instrumentation.
func New(ctx context.Context, cfg *Config) (Instrumentation, error) {
	if cfg == nil {
		return NewNoop(), nil
	}
	if !cfg.Enabled {
		initLogging(cfg.ServiceName, cfg.LogLevel, nil, cfg.MaskFields)
		return NewNoop(), nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironment(cfg.Environment),
		attribute.String("env", cfg.Environment),
	))
	if err != nil {
		return nil, err
	}

	p, err := newProviders(ctx, cfg, res)
	if err != nil {
		return nil, err
	}

	initLogging(cfg.ServiceName, cfg.LogLevel, p.logs, cfg.MaskFields)
	return p, nil
}

func newProviders(ctx context.Context, cfg *Config, res *resource.Resource) (*providers, error) {
	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint)}
	logOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.OTLPEndpoint)}
	if !cfg.OTLPSecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		logOpts = append(logOpts, otlploggrpc.WithInsecure())
	}

	spans, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return nil, err
	}
	points, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return nil, errors.Join(err, spans.Shutdown(ctx))
	}
	records, err := otlploggrpc.New(ctx, logOpts...)
	if err != nil {
		return nil, errors.Join(err, spans.Shutdown(ctx), points.Shutdown(ctx))
	}

	interval := cfg.MetricsInterval
	if interval <= 0 {
		interval = time.Minute
	}

	return &providers{
		traces: sdktrace.NewTracerProvider(
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(min(max(cfg.TraceSampleRatio, 0), 1)))),
			sdktrace.WithBatcher(spans),
		),
		metrics: sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(points, sdkmetric.WithInterval(interval))),
		),
		logs: sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(records)),
		),
	}, nil
}

func (p *providers) Tracer(name string) trace.Tracer { return p.traces.Tracer(name) }

func (p *providers) Meter(name string) metric.Meter { return p.metrics.Meter(name) }

// Shutdown flushes all three signals; every provider is stopped even when
// an earlier one fails.
func (p *providers) Shutdown(ctx context.Context) error {
	return errors.Join(
		p.traces.Shutdown(ctx),
		p.metrics.Shutdown(ctx),
		p.logs.Shutdown(ctx),
	)
}

type noop struct {
	traces  trace.TracerProvider
	metrics metric.MeterProvider
}

// NewNoop returns an Instrumentation that records nothing. Tests use it.
func NewNoop() Instrumentation {
	return noop{traces: tracenoop.NewTracerProvider(), metrics: metricnoop.NewMeterProvider()}
}

func (n noop) Tracer(name string) trace.Tracer { return n.traces.Tracer(name) }

func (n noop) Meter(name string) metric.Meter { return n.metrics.Meter(name) }

func (noop) Shutdown(context.Context) error { return nil }
