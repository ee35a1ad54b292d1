package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/local/pdfsplitter/internal/metrics"
)

// MemoryStore holds artifacts in process memory. The default backend.
type MemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]Artifact
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{artifacts: make(map[string]Artifact)}
}

func (s *MemoryStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	handle := uuid.NewString()

	stored := make([]byte, len(data))
	copy(stored, data)

	s.mu.Lock()
	s.artifacts[handle] = Artifact{Name: name, Data: stored}
	s.mu.Unlock()

	metrics.AddArtifactBytes(s.Backend(), len(data))
	return handle, nil
}

func (s *MemoryStore) Get(ctx context.Context, handle string) (Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.artifacts[handle]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) Release(ctx context.Context, handles ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range handles {
		delete(s.artifacts, h)
	}
	return nil
}

func (s *MemoryStore) Backend() string { return "memory" }

// Len reports how many artifacts are held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.artifacts)
}
