package session

import (
	"context"
	"time"
)

// SlotIdentity holds the authenticated Identity of a session.
const SlotIdentity = "auth.identity"

// Store persists session slots. Get returns goerror.ErrNotFound when the
// session or slot is absent or expired. Set refreshes the session lifetime.
type Store interface {
	Get(ctx context.Context, id, slot string) ([]byte, error)
	Set(ctx context.Context, id, slot string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, id, slot string) error
	Destroy(ctx context.Context, id string) error
}

// Identity is the authenticated user bound to a session.
type Identity struct {
	UserID   int64  `json:"user_id,string"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type sessionContextKey struct{}

// WithID returns a context carrying the session id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, id)
}

// IDFromContext returns the session id set by the middleware, or "".
func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionContextKey{}).(string)
	return id
}
