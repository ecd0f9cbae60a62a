package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
)

// Redis stores each session as a hash under "session:<id>" whose expiry is
// refreshed on every Set.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis returns a Redis-backed Store.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client, prefix: "session:"}
}

// Get reads a slot.
func (r *Redis) Get(ctx context.Context, id, slot string) ([]byte, error) {
	v, err := r.client.HGet(ctx, r.prefix+id, slot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return v, nil
}

// Set writes a slot and refreshes the session expiry.
func (r *Redis) Set(ctx context.Context, id, slot string, value []byte, ttl time.Duration) error {
	key := r.prefix + id

	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, slot, value)
		p.PExpire(ctx, key, ttl)
		return nil
	})

	return err
}

// Delete removes a slot.
func (r *Redis) Delete(ctx context.Context, id, slot string) error {
	return r.client.HDel(ctx, r.prefix+id, slot).Err()
}

// Destroy removes the whole session.
func (r *Redis) Destroy(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.prefix+id).Err()
}
