package tokenstore

import (
	"context"
	"sync"
)

// Memory keeps the pair in process memory. It does not survive restarts and
// is meant for tests and throwaway sessions.
type Memory struct {
	mu sync.RWMutex
	s  Session
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Read(context.Context) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s, nil
}

func (m *Memory) Write(_ context.Context, s Session) error {
	if err := checkWrite(s); err != nil {
		return err
	}
	m.mu.Lock()
	m.s = s
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	m.s = Session{}
	m.mu.Unlock()
	return nil
}
