package otpstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/signup/entity"
)

const (
	keyPrefix = "signup:otp:"

	// countRetries bounds optimistic retries when the key changes under WATCH.
	countRetries = 3

	// expiryGrace keeps a record readable briefly past its window so the
	// engine reports it as expired rather than missing.
	expiryGrace = time.Minute
)

// Redis stores each record as JSON under "signup:otp:<key>" and lets Redis
// drop it shortly after issuedAt+window.
type Redis struct {
	client redis.UniversalClient
	window func() time.Duration
	ins    instrument.Instrumentation
}

// NewRedis returns a Redis store. window is read on every Put so config
// reloads apply to new records.
func NewRedis(client redis.UniversalClient, window func() time.Duration, ins instrument.Instrumentation) *Redis {
	return &Redis{client: client, window: window, ins: ins}
}

func (r *Redis) Put(ctx context.Context, key string, rec entity.OTPRecord) (err error) {
	ctx, span := startSpan(ctx, r.ins, "Put")
	defer func() { endSpan(span, err) }()

	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	return r.client.SetArgs(ctx, keyPrefix+key, raw, redis.SetArgs{
		ExpireAt: rec.IssuedAt.Add(r.window() + expiryGrace),
	}).Err()
}

func (r *Redis) Get(ctx context.Context, key string) (_ *entity.OTPRecord, err error) {
	ctx, span := startSpan(ctx, r.ins, "Get")
	defer func() { endSpan(span, err) }()

	raw, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var rec entity.OTPRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

// CountAttempt bumps Attempts under WATCH so a record deleted or reissued
// by a concurrent request is never written back. The key keeps its TTL.
func (r *Redis) CountAttempt(ctx context.Context, key string, issuedAt time.Time) (_ int, err error) {
	ctx, span := startSpan(ctx, r.ins, "CountAttempt")
	defer func() { endSpan(span, err) }()

	k := keyPrefix + key
	var attempts int
	count := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			return goerror.ErrNotFound
		}
		if err != nil {
			return err
		}

		var rec entity.OTPRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return err
		}
		if !rec.IssuedAt.Equal(issuedAt) {
			return goerror.ErrNotFound
		}

		rec.Attempts++
		if raw, err = json.Marshal(rec); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetArgs(ctx, k, raw, redis.SetArgs{KeepTTL: true})
			return nil
		})
		attempts = rec.Attempts
		return err
	}

	for range countRetries {
		err = r.client.Watch(ctx, count, k)
		if !errors.Is(err, redis.TxFailedErr) {
			return attempts, err
		}
	}

	return 0, err
}

func (r *Redis) Delete(ctx context.Context, key string) (err error) {
	ctx, span := startSpan(ctx, r.ins, "Delete")
	defer func() { endSpan(span, err) }()

	return r.client.Del(ctx, keyPrefix+key).Err()
}
