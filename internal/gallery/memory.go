package gallery

import (
	"context"
	"sync"
)

// MemoryBackend keeps the payload in process memory. Useful for tests and
// throwaway sessions.
type MemoryBackend struct {
	mu   sync.Mutex
	data []byte
	set  bool

	// WriteErr, when set, is returned by every Write.
	WriteErr error
	// Writes counts successful writes.
	Writes int
}

// NewMemoryBackend returns an empty backend, optionally pre-seeded.
func NewMemoryBackend(seed []byte) *MemoryBackend {
	b := &MemoryBackend{}
	if seed != nil {
		b.data = append([]byte(nil), seed...)
		b.set = true
	}
	return b
}

func (b *MemoryBackend) Read(ctx context.Context) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.set {
		return nil, false, nil
	}
	return append([]byte(nil), b.data...), true, nil
}

func (b *MemoryBackend) Write(ctx context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.WriteErr != nil {
		return b.WriteErr
	}
	b.data = append([]byte(nil), data...)
	b.set = true
	b.Writes++
	return nil
}

func (b *MemoryBackend) Name() string { return "memory" }
