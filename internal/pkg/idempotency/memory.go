package idempotency

import (
	"context"
	"maps"
	"sync"
	"time"
)

type clocker interface {
	Now() time.Time
}

type memEntry struct {
	state     State
	expiresAt time.Time
}

// sweepInterval is the least time between two scans for expired entries.
const sweepInterval = time.Minute

// Memory is a single-process tracker for deployments without Redis.
// Expired entries are dropped by a scan that runs on writes at most once
// per sweepInterval.
type Memory struct {
	mu        sync.Mutex
	clock     clocker
	entries   map[string]memEntry
	lastSweep time.Time
}

// NewMemory returns an empty in-process tracker.
func NewMemory(clock clocker) *Memory {
	return &Memory{clock: clock, entries: make(map[string]memEntry)}
}

// Acquire sets the in-progress marker when the key is free.
func (m *Memory) Acquire(_ context.Context, key string, lockDuration time.Duration) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.sweep(now)

	if e, ok := m.entries[key]; ok && now.Before(e.expiresAt) {
		return e.state, nil
	}

	m.entries[key] = memEntry{state: StateInProgress, expiresAt: now.Add(lockDuration)}

	return StateNone, nil
}

// MarkCompleted records success for ttl.
func (m *Memory) MarkCompleted(_ context.Context, key string, ttl time.Duration) error {
	m.set(key, StateCompleted, ttl)
	return nil
}

// MarkFailed records failure for ttl.
func (m *Memory) MarkFailed(_ context.Context, key string, ttl time.Duration) error {
	m.set(key, StateFailed, ttl)
	return nil
}

func (m *Memory) set(key string, s State, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.sweep(now)
	m.entries[key] = memEntry{state: s, expiresAt: now.Add(ttl)}
}

func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now

	maps.DeleteFunc(m.entries, func(_ string, e memEntry) bool {
		return !now.Before(e.expiresAt)
	})
}

// Len returns the number of held entries, expired ones not yet swept included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.entries)
}

func (m *Memory) release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// Exec runs fn once per key while its state is recorded.
func (m *Memory) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	return exec(ctx, m, key, fn, opts)
}
