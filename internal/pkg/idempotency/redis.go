package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateTracker keeps operation state in Redis under "idempotency:<key>".
type StateTracker struct {
	client redis.UniversalClient
	prefix string
}

// New returns a Redis-backed tracker.
func New(client redis.UniversalClient) *StateTracker {
	return &StateTracker{client: client, prefix: "idempotency:"}
}

// Acquire sets the in-progress marker when the key is free and otherwise
// reports the recorded state.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	fk := s.prefix + key

	for range 2 {
		acquired, err := s.client.SetNX(ctx, fk, StateInProgress.String(), lockDuration).Result()
		if err != nil {
			return StateError, err
		}
		if acquired {
			return StateNone, nil
		}

		result, err := s.client.Get(ctx, fk).Result()
		if errors.Is(err, redis.Nil) {
			// Expired between SETNX and GET.
			continue
		}
		if err != nil {
			return StateError, err
		}

		return parseState(result)
	}

	return StateError, ErrInvalidState
}

// MarkCompleted records success for ttl.
func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, StateCompleted.String(), ttl).Err()
}

// MarkFailed records failure for ttl.
func (s *StateTracker) MarkFailed(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+key, StateFailed.String(), ttl).Err()
}

func (s *StateTracker) release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Exec runs fn once per key while its state is recorded.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	return exec(ctx, s, key, fn, opts)
}
