package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/shandysiswandi/gosignup/internal/pkg/stacktrace"
)

// handle runs handler and turns a panic into an error.
func handle(ctx context.Context, kind string, handler Handler, msg Message) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", kind, rvr)
		}
	}()

	return handler(ctx, msg)
}

// settle acks or nacks msg after handler ran, unless the handler already did.
func settle(ctx context.Context, msg interface {
	Message
	responded() bool
}, herr error, autoAck bool) {
	if !autoAck || msg.responded() {
		return
	}

	var err error
	if herr == nil {
		err = msg.Ack(ctx)
	} else {
		err = msg.Nack(ctx)
	}
	if err != nil {
		slog.WarnContext(ctx, "failed to settle message", "topic", msg.Topic(), "error", err)
	}
}
