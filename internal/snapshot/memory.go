package snapshot

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the snapshot in memory. Its clock is injectable so tests
// can control the write time.
type MemoryStore struct {
	mu      sync.RWMutex
	data    []byte
	modTime time.Time
	exists  bool
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore. A nil now uses time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{now: now}
}

// Stat implements Store.
func (s *MemoryStore) Stat(ctx context.Context) (Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists {
		return Metadata{}, nil
	}
	return Metadata{Exists: true, ModTime: s.modTime, Size: int64(len(s.data))}, nil
}

// Read implements Store.
func (s *MemoryStore) Read(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists {
		return nil, ErrNotFound
	}
	return append([]byte(nil), s.data...), nil
}

// Write implements Store.
func (s *MemoryStore) Write(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append([]byte(nil), data...)
	s.modTime = s.now()
	s.exists = true
	return nil
}
