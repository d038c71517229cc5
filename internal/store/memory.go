package store

import (
	"context"
	"slices"
	"sync"
)

// Memory is a process-local Backend, used in tests and with -store memory.
type Memory struct {
	mu     sync.Mutex
	values map[string][]byte
	writes int
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{values: map[string][]byte{}}
}

func (m *Memory) Get(_ context.Context, keys []string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = slices.Clone(v)
		}
	}
	return out, nil
}

func (m *Memory) Commit(_ context.Context, version int64, values map[string][]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, err := storedVersion(m.values[KeyVersion])
	if err != nil {
		return err
	}
	if cur != version {
		return ErrConflict
	}
	for k, v := range values {
		m.values[k] = slices.Clone(v)
	}
	m.writes++
	return nil
}

// Writes reports how many commits happened.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Memory) Close() error { return nil }
