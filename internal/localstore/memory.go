package localstore

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process Store.
type Memory struct {
	mu     sync.RWMutex
	scopes map[string]map[Bucket]string
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{scopes: make(map[string]map[Bucket]string)}
}

func (m *Memory) Get(_ context.Context, scope string, bucket Bucket) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.scopes[scope][bucket]
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, scope string, bucket Bucket, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scopes[scope] == nil {
		m.scopes[scope] = make(map[Bucket]string)
	}
	m.scopes[scope][bucket] = value
	return nil
}

func (m *Memory) Remove(_ context.Context, scope string, bucket Bucket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scopes[scope], bucket)
	if len(m.scopes[scope]) == 0 {
		delete(m.scopes, scope)
	}
	return nil
}

func (m *Memory) Clear(_ context.Context, scope string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scopes, scope)
	return nil
}

func (m *Memory) Scopes(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.scopes))
	for scope := range m.scopes {
		out = append(out, scope)
	}
	slices.Sort(out)
	return out, nil
}

func (m *Memory) Close() error { return nil }
