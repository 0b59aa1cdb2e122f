package store

import "sync"

// MemoryBackend keeps entries in process memory. Nothing survives a
// restart; it backs throwaway sessions and tests.
type MemoryBackend struct {
	mu      sync.Mutex
	entries map[string]string
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[string]string)}
}

func (b *MemoryBackend) Read(key string) (string, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.entries[key]
	return v, ok, nil
}

func (b *MemoryBackend) Write(key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[key] = value
	return nil
}

func (b *MemoryBackend) Remove(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, key)
	return nil
}
