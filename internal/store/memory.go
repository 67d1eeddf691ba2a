package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory implementation of the KV interface.
// It uses maps guarded by an RWMutex for thread-safe concurrent access.
// Suitable for development, testing, or per-request scratch storage.
type MemoryStore struct {
	mu      sync.RWMutex
	strings map[string]string
	bools   map[string]bool
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		strings: make(map[string]string),
		bools:   make(map[string]bool),
	}
}

// Seed pre-populates string values. Intended for request-scoped stores built
// from evaluation payloads; empty values are skipped so callers can pass
// optional fields straight through.
func (m *MemoryStore) Seed(values map[string]string) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, value := range values {
		if value != "" {
			m.strings[key] = value
		}
	}
	return m
}

// SeedBool pre-populates a boolean value.
func (m *MemoryStore) SeedBool(key string, value bool) *MemoryStore {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bools[key] = value
	return m
}

func (m *MemoryStore) GetString(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.strings[key]
	return value, ok, nil
}

func (m *MemoryStore) SetString(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.strings[key] = value
	return nil
}

func (m *MemoryStore) GetBool(_ context.Context, key string) (bool, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.bools[key]
	return value, ok, nil
}

func (m *MemoryStore) SetBool(_ context.Context, key string, value bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bools[key] = value
	return nil
}

// Close is a no-op for MemoryStore as there are no resources to release.
func (m *MemoryStore) Close() error {
	return nil
}
