package storage

import (
	"context"
	"fmt"
	"sync"

	"course-portal/internal/domain"
	"course-portal/internal/observability"
)

// MemoryStore keeps entries in process memory. Entries do not survive a
// restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	value, ok := m.entries[key]
	m.mu.RUnlock()

	var err error
	if !ok {
		err = fmt.Errorf("get %s: %w", key, domain.ErrKeyNotFound)
	}
	observability.ObserveStorage(BackendMemory, "get", err)
	return value, err
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	m.entries[key] = value
	m.mu.Unlock()

	observability.ObserveStorage(BackendMemory, "set", nil)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()

	observability.ObserveStorage(BackendMemory, "delete", nil)
	return nil
}

// Len returns the number of stored entries
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
