package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
)

type LogoutInput struct {
	SessionID string
}

// Logout unbinds the identity from the session. Logging out an anonymous
// session is a no-op.
func (s *Usecase) Logout(ctx context.Context, in LogoutInput) error {
	ctx, span := s.startSpan(ctx, "Logout")
	defer span.End()

	if in.SessionID == "" {
		return nil
	}

	if err := s.sessions.ClearIdentity(ctx, in.SessionID); err != nil && !errors.Is(err, goerror.ErrNotFound) {
		slog.ErrorContext(ctx, "failed to clear session identity", "session_id", in.SessionID, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}
