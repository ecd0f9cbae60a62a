// Package uid generates identifiers: snowflake numbers for database keys,
// UUIDv7 strings for correlation and token ids, and 32-byte object ids for
// session identifiers.
package uid

import (
	"errors"
	"os"
	"strings"

	"github.com/google/uuid"
)

// NumberID generates unique int64 identifiers.
type NumberID interface {
	Generate() int64
}

// StringID generates unique string identifiers.
type StringID interface {
	Generate() string
}

// ErrStableNodeIdentityUnavailable indicates no stable node identity is available.
var ErrStableNodeIdentityUnavailable = errors.New("uid: cannot determine stable node identity (machine-id/hostname unavailable)")

// stableNodeIdentity returns /etc/machine-id when present, otherwise the hostname.
func stableNodeIdentity() (string, error) {
	if b, err := os.ReadFile("/etc/machine-id"); err == nil {
		if s := strings.TrimSpace(string(b)); s != "" {
			return s, nil
		}
	}

	if h, err := os.Hostname(); err == nil {
		if h = strings.TrimSpace(h); h != "" {
			return h, nil
		}
	}

	return "", ErrStableNodeIdentityUnavailable
}

// UUID generates time ordered UUIDv7 strings for correlation and token ids.
type UUID struct{}

func NewUUID() *UUID { return &UUID{} }

// Generate falls back to a random v4 when the v7 clock read fails.
func (*UUID) Generate() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
