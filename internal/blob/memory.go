package blob

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore keeps uploads in a map. Tests only.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

func (m *MemoryStore) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("blob: read upload %s: %w", key, err)
	}

	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()

	return "memory://" + key, nil
}

// Object returns the stored bytes for assertions in tests.
func (m *MemoryStore) Object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[key]
	return data, ok
}
