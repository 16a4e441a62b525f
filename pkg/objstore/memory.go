package objstore

import (
	"context"
	"sync"
)

// Memory keeps objects in process memory. Used for prediction artifacts and tests.
type Memory struct {
	name string

	mu      sync.RWMutex
	objects map[string][]byte
}

func NewMemory(name string) *Memory {
	return &Memory{name: name, objects: make(map[string][]byte)}
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (m *Memory) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) URI(key string) string { return joinURI("mem", m.name, key) }
