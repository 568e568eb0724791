package persistence

import (
	"context"
	"sync"
)

// MemoryBackend keeps records in process memory
type MemoryBackend struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryBackend creates an empty backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{records: make(map[string]*Record)}
}

func (b *MemoryBackend) Load(_ context.Context, key string) (*Record, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	rec, ok := b.records[key]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}

func (b *MemoryBackend) Save(_ context.Context, key string, rec *Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.records[key] = rec.Clone()
	return nil
}

func (b *MemoryBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.records, key)
	return nil
}

func (b *MemoryBackend) Close() error { return nil }

// Len returns the number of stored records
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}
