package session

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
)

type clocker interface {
	Now() time.Time
}

type memSession struct {
	slots     map[string][]byte
	expiresAt time.Time
}

// sweepInterval is the least time between two scans for expired sessions.
const sweepInterval = time.Minute

// Memory is an in-process Store. Expired sessions are dropped on read and
// by a scan that runs on writes at most once per sweepInterval.
type Memory struct {
	mu        sync.RWMutex
	clock     clocker
	sessions  map[string]*memSession
	lastSweep time.Time
}

// NewMemory returns an empty Memory store.
func NewMemory(clock clocker) *Memory {
	return &Memory{clock: clock, sessions: make(map[string]*memSession)}
}

// Get returns a copy of the slot value.
func (m *Memory) Get(_ context.Context, id, slot string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if ok && m.clock.Now().After(s.expiresAt) {
		delete(m.sessions, id)
		ok = false
	}
	if !ok {
		return nil, goerror.ErrNotFound
	}

	v, ok := s.slots[slot]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return append([]byte(nil), v...), nil
}

// Set stores value in slot and extends the session to now+ttl.
func (m *Memory) Set(_ context.Context, id, slot string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	m.sweep(now)

	s, ok := m.sessions[id]
	if !ok || now.After(s.expiresAt) {
		s = &memSession{slots: make(map[string][]byte)}
		m.sessions[id] = s
	}

	s.slots[slot] = append([]byte(nil), value...)
	s.expiresAt = now.Add(ttl)

	return nil
}

func (m *Memory) sweep(now time.Time) {
	if now.Sub(m.lastSweep) < sweepInterval {
		return
	}
	m.lastSweep = now

	maps.DeleteFunc(m.sessions, func(_ string, s *memSession) bool {
		return now.After(s.expiresAt)
	})
}

// Delete removes one slot.
func (m *Memory) Delete(_ context.Context, id, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		delete(s.slots, slot)
	}

	return nil
}

// Destroy removes the whole session.
func (m *Memory) Destroy(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)

	return nil
}

// Slots returns a snapshot of the live slots of a session.
func (m *Memory) Slots(id string) map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok || m.clock.Now().After(s.expiresAt) {
		return nil
	}

	return maps.Clone(s.slots)
}

// Len returns the number of held sessions, expired ones not yet swept included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}
