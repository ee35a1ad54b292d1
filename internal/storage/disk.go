package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfsplitter/internal/metrics"
)

// DiskStore writes artifacts under a results directory, one file per
// handle. The handle-to-name index lives in memory: handles only need to
// survive as long as the session that produced them.
type DiskStore struct {
	dir   string
	mu    sync.RWMutex
	names map[string]string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		dir = filepath.Join("uploads", "results")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create result dir: %w", err)
	}
	return &DiskStore{dir: dir, names: make(map[string]string)}, nil
}

func (s *DiskStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	handle := uuid.NewString()
	path := filepath.Join(s.dir, handle)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}

	s.mu.Lock()
	s.names[handle] = name
	s.mu.Unlock()

	metrics.AddArtifactBytes(s.Backend(), len(data))
	return handle, nil
}

func (s *DiskStore) Get(ctx context.Context, handle string) (Artifact, error) {
	s.mu.RLock()
	name, ok := s.names[handle]
	s.mu.RUnlock()
	if !ok {
		return Artifact{}, ErrNotFound
	}

	data, err := os.ReadFile(filepath.Join(s.dir, handle))
	if os.IsNotExist(err) {
		return Artifact{}, ErrNotFound
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("read artifact: %w", err)
	}
	return Artifact{Name: name, Data: data}, nil
}

func (s *DiskStore) Release(ctx context.Context, handles ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range handles {
		if err := os.Remove(filepath.Join(s.dir, h)); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("handle", h).Msg("failed to remove artifact file")
		}
		delete(s.names, h)
	}
	return nil
}

func (s *DiskStore) Backend() string { return "disk" }
