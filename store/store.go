// Package store is the object-storage boundary for finished batch output.
// The orchestrator only needs put and get keyed by job id; everything else
// about storage lives outside this repository.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store persists batch artifacts. Put returns an opaque location usable
// with Get. A Put failure is fatal to the batch.
type Store interface {
	Put(ctx context.Context, jobID, name string, data []byte) (location string, err error)
	Get(ctx context.Context, location string) ([]byte, error)
}

// FS stores artifacts under Root/<jobID>/<name>.
type FS struct {
	Root string
}

var _ Store = (*FS)(nil)

func (s *FS) Put(ctx context.Context, jobID, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := filepath.Join(s.Root, jobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("store: mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("store: write %s: %w", path, err)
	}
	return path, nil
}

func (s *FS) Get(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", location, err)
	}
	return data, nil
}

// Memory keeps artifacts in a map. Test double.
type Memory struct {
	mu   sync.Mutex
	blob map[string][]byte
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{blob: map[string][]byte{}}
}

func (s *Memory) Put(ctx context.Context, jobID, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	loc := jobID + "/" + name
	cp := make([]byte, len(data))
	copy(cp, data)
	s.blob[loc] = cp
	return loc, nil
}

func (s *Memory) Get(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blob[location]
	if !ok {
		return nil, fmt.Errorf("store: no object at %s", location)
	}
	return data, nil
}
