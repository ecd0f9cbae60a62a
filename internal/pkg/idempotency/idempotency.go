// Package idempotency guards an operation identified by a key so that
// concurrent or repeated submissions run it at most once per state TTL.
package idempotency

import (
	"context"
	"errors"
	"time"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyCompleted  = errors.New("operation already completed")
	ErrAlreadyFailed     = errors.New("operation already failed")
	ErrInvalidState      = errors.New("invalid state")
)

// State is the recorded progress of a keyed operation.
type State string

const (
	StateNone       State = "none"        // operation can proceed
	StateInProgress State = "in_progress" // another caller holds the key
	StateCompleted  State = "completed"   // finished successfully within the TTL
	StateFailed     State = "failed"      // finished with an error within the TTL
	StateError      State = "error"       // the tracker itself failed
)

func (s State) String() string {
	return string(s)
}

func parseState(v string) (State, error) {
	switch State(v) {
	case StateInProgress, StateCompleted, StateFailed:
		return State(v), nil
	default:
		return StateError, ErrInvalidState
	}
}

// Idempotency records operation state per key.
type Idempotency interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	MarkFailed(ctx context.Context, key string, ttl time.Duration) error
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

const (
	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute
)

// Option tunes Exec.
type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
	releaseOnErr bool
}

// WithLockDuration bounds how long the in-progress marker lives.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long the completed or failed marker is kept.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

// WithReleaseOnError forgets the key when fn fails instead of recording
// StateFailed, so the operation may be retried immediately.
func WithReleaseOnError() Option {
	return func(o *execOptions) { o.releaseOnErr = true }
}

type tracker interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	MarkFailed(ctx context.Context, key string, ttl time.Duration) error
	release(ctx context.Context, key string) error
}

func exec(ctx context.Context, t tracker, key string, fn func(context.Context) error, opts []Option) error {
	o := &execOptions{lockDuration: defaultLockDuration, stateTTL: defaultStateTTL}
	for _, opt := range opts {
		opt(o)
	}
	if o.lockDuration <= 0 {
		o.lockDuration = defaultLockDuration
	}
	if o.stateTTL <= 0 {
		o.stateTTL = defaultStateTTL
	}

	state, err := t.Acquire(ctx, key, o.lockDuration)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	}

	if err := fn(ctx); err != nil {
		if o.releaseOnErr {
			return errors.Join(err, t.release(ctx, key))
		}
		return errors.Join(err, t.MarkFailed(ctx, key, o.stateTTL))
	}

	return t.MarkCompleted(ctx, key, o.stateTTL)
}
