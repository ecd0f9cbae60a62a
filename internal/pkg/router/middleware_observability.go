package router

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/gosignup/internal/pkg/config"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const maxLoggedBodyBytes = 16 << 10

// responseRecorder captures the status, the size and the first
// maxLoggedBodyBytes of a response.
type responseRecorder struct {
	http.ResponseWriter
	status int
	size   int
	body   bytes.Buffer
	capped bool
	// err is the handler error, set by the router before it renders it.
	err error
}

func (w *responseRecorder) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if room := maxLoggedBodyBytes - w.body.Len(); room > 0 {
		w.body.Write(p[:min(len(p), room)])
		w.capped = w.capped || len(p) > room
	} else if len(p) > 0 {
		w.capped = true
	}

	n, err := w.ResponseWriter.Write(p)
	w.size += n
	return n, err
}

func (w *responseRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *responseRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func matchedRoutePath(r *http.Request) string {
	if pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath(); pattern != "" {
		return pattern
	}
	return r.URL.Path
}

// peekBody reads up to maxLoggedBodyBytes of the request body and puts the
// bytes back so the handler still sees the whole body.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes)) //nolint:errcheck // logging only
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}

	return head
}

func loggableBody(body []byte, capped bool, masker instrument.Masker) any {
	if len(body) == 0 {
		return nil
	}

	if v, ok := masker.JSON(body); ok && !capped {
		return v
	}
	if !utf8.Valid(body) {
		return "<binary body omitted>"
	}
	if capped {
		// a cut JSON document cannot be masked
		return "<body truncated>"
	}
	return string(body)
}

// middlewareObservability opens the server span, records request metrics
// and logs each request and response with sensitive fields masked.
func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	var maskFields []string
	if cfg != nil {
		maskFields = cfg.GetArray("instrument.log_mask_fields")
	}
	masker := instrument.NewMasker(maskFields)

	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requests, err := meter.Int64Counter("http.server.request.count",
		metric.WithDescription("Number of HTTP requests handled"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}

	duration, err := meter.Float64Histogram("http.server.request.duration",
		metric.WithDescription("HTTP request duration"), metric.WithUnit("s"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			start := time.Now()

			ctx, span := tracer.Start(r.Context(), r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
					semconv.UserAgentOriginal(r.UserAgent()),
					semconv.ClientAddress(r.RemoteAddr),
				),
			)
			defer span.End()

			reqBody := peekBody(r)
			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"headers", masker.Header(r.Header),
				"body", loggableBody(reqBody, len(reqBody) >= maxLoggedBodyBytes, masker),
			)

			rec := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusCode()
			elapsed := time.Since(start)
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			span.SetAttributes(
				semconv.HTTPResponseStatusCodeKey.Int(status),
				attribute.Int("http.response.body.size", rec.size),
			)
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}

			record(ctx, requests, duration, elapsed, attrs)

			fields := []any{
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rec.size,
				"latency_ms", elapsed.Milliseconds(),
				"body", loggableBody(rec.body.Bytes(), rec.capped, masker),
			}
			if rec.err != nil {
				span.RecordError(rec.err)
				fields = append(fields, "error", rec.err)
			}
			slog.InfoContext(ctx, "response sent", fields...)
		})
	}
}

func record(ctx context.Context, requests metric.Int64Counter, duration metric.Float64Histogram, elapsed time.Duration, attrs []attribute.KeyValue) {
	opt := metric.WithAttributes(attrs...)
	if requests != nil {
		requests.Add(ctx, 1, opt)
	}
	if duration != nil {
		duration.Record(ctx, elapsed.Seconds(), opt)
	}
}
