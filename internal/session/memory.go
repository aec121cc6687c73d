package session

import (
	"context"
	"sync"
)

type memoryBackend struct {
	mu    sync.Mutex
	token string
}

// NewMemory returns a process-local backend. Nothing survives a restart.
func NewMemory() Backend { return &memoryBackend{} }

func (m *memoryBackend) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *memoryBackend) Save(_ context.Context, token string) error {
	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	return nil
}

func (m *memoryBackend) Delete(context.Context) error {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
	return nil
}

func (m *memoryBackend) Close() error { return nil }
