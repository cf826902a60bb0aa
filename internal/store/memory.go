package store

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// MemoryStore is an in-process Store. All ranks sharing the same
// MemoryStore instance see the same keys, which makes it suitable for
// tests and single-host simulation.
type MemoryStore struct {
	mu      sync.Mutex
	values  map[string][]byte
	waiters map[string][]chan []byte
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		values:  make(map[string][]byte),
		waiters: make(map[string][]chan []byte),
	}
}

func (m *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(key, value)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	if value, ok := m.values[key]; ok {
		m.mu.Unlock()
		return value, nil
	}

	wait := make(chan []byte, 1)
	m.waiters[key] = append(m.waiters[key], wait)
	m.mu.Unlock()

	select {
	case value := <-wait:
		return value, nil
	case <-ctx.Done():
		m.drop(key, wait)
		return nil, fmt.Errorf("waiting for key %q: %w", key, ctx.Err())
	}
}

func (m *MemoryStore) Add(ctx context.Context, key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	if raw, ok := m.values[key]; ok {
		parsed, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("key %q holds a non-integer value: %w", key, err)
		}
		current = parsed
	}

	current += delta
	m.put(key, []byte(strconv.FormatInt(current, 10)))
	return current, nil
}

// put stores value and wakes every waiter. Caller holds mu.
func (m *MemoryStore) put(key string, value []byte) {
	stored := make([]byte, len(value))
	copy(stored, value)
	m.values[key] = stored

	for _, wait := range m.waiters[key] {
		wait <- stored
	}
	delete(m.waiters, key)
}

// drop removes a cancelled waiter so Set does not hold a reference to it.
func (m *MemoryStore) drop(key string, wait chan []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	waiters := m.waiters[key]
	for i, w := range waiters {
		if w == wait {
			m.waiters[key] = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(m.waiters[key]) == 0 {
		delete(m.waiters, key)
	}
}
