package session

import (
	"context"
	"sync"
)

// MemoryBackend is a Backend that keeps slots in process memory. Sessions
// stored in it do not survive a restart.
type MemoryBackend struct {
	mu    sync.Mutex
	slots map[string]string
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{slots: make(map[string]string)}
}

func (b *MemoryBackend) ReadSlots(_ context.Context, keys ...string) (map[string]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := b.slots[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (b *MemoryBackend) WriteSlots(_ context.Context, slots map[string]string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, v := range slots {
		b.slots[k] = v
	}
	return nil
}

func (b *MemoryBackend) DeleteSlots(_ context.Context, keys ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, k := range keys {
		delete(b.slots, k)
	}
	return nil
}
