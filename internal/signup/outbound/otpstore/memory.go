package otpstore

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/gosignup/internal/pkg/goerror"
	"github.com/shandysiswandi/gosignup/internal/signup/entity"
)

// Memory is a process-local store. It never sweeps: expired records stay
// until overwritten or deleted.
type Memory struct {
	mu      sync.RWMutex
	records map[string]entity.OTPRecord
}

func NewMemory() *Memory {
	return &Memory{records: make(map[string]entity.OTPRecord)}
}

func (m *Memory) Put(_ context.Context, key string, rec entity.OTPRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[key] = rec
	return nil
}

func (m *Memory) Get(_ context.Context, key string) (*entity.OTPRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[key]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	return &rec, nil
}

// CountAttempt bumps Attempts of the record issued at issuedAt. A record
// that was deleted or reissued meanwhile is left alone and ErrNotFound is
// returned.
func (m *Memory) CountAttempt(_ context.Context, key string, issuedAt time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[key]
	if !ok || !rec.IssuedAt.Equal(issuedAt) {
		return 0, goerror.ErrNotFound
	}

	rec.Attempts++
	m.records[key] = rec
	return rec.Attempts, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, key)
	return nil
}

// Len returns the number of held records, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.records)
}
