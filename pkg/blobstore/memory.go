package blobstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory Store for tests and development.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailPut, when set, is returned from Put. Tests use it to exercise
	// the storage-failure path.
	FailPut error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, key, _ string, data []byte) error {
	if m.FailPut != nil {
		return m.FailPut
	}
	if key == "" {
		return ErrEmptyKey
	}
	if int64(len(data)) > MaxFileSize {
		return ErrFileTooLarge
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[key] = cp
	return nil
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return data, nil
}

func (m *MemoryStore) PublicURL(key string) string {
	return "memory://" + key
}

// Len reports the number of stored objects.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
