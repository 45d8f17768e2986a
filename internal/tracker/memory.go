package tracker

import (
	"context"
	"strings"
	"sync"
)

// Memory is an in-process tracker. It forgets everything on exit and
// suits single runs and tests.
type Memory struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// NewMemory creates an empty in-memory tracker.
func NewMemory() *Memory {
	return &Memory{keys: make(map[string]struct{})}
}

func (m *Memory) Has(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keys[key]
	return ok, nil
}

func (m *Memory) HasMany(_ context.Context, keys []string) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(keys))
	for _, k := range keys {
		if _, ok := m.keys[k]; ok {
			out[k] = true
		}
	}
	return out, nil
}

func (m *Memory) Mark(ctx context.Context, key string) error {
	return m.MarkMany(ctx, []string{key})
}

func (m *Memory) MarkMany(_ context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		m.keys[k] = struct{}{}
	}
	return nil
}

func (m *Memory) CountByPrefix(_ context.Context, prefix string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for k := range m.keys {
		if strings.HasPrefix(k, prefix) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) ClearByPrefix(_ context.Context, prefix string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.keys {
		if strings.HasPrefix(k, prefix) {
			delete(m.keys, k)
			n++
		}
	}
	return n, nil
}

func (m *Memory) Close() error { return nil }
