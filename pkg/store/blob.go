// Package store persists saved forms as one serialized collection held in a
// key-value blob backend (SQLite, bbolt or memory).
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var (
	ErrNotFound   = errors.New("form not found")
	ErrUnreadable = errors.New("collection unreadable")
)

// DefaultKey is the collection key forms are stored under.
const DefaultKey = "forms"

// Blob is a durable key-value store of opaque documents.
type Blob interface {
	// Get returns the document stored under key. Reports false when absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put replaces the document stored under key.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite"
	DriverBolt   = "bolt"
	DriverMemory = "memory"
)

// Open creates the blob backend for driver. File based drivers create the
// parent directory of path when missing.
func Open(driver, path string) (Blob, error) {
	switch driver {
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite, DriverBolt:
	default:
		return nil, fmt.Errorf("open store: unknown driver %q", driver)
	}

	if path == "" {
		return nil, fmt.Errorf("open store: %s: path is empty", driver)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("open store: create dir: %w", err)
		}
	}

	if driver == DriverBolt {
		return OpenBolt(path)
	}
	return OpenSQLite(path)
}

// Memory is a process-local Blob, used for tests and throwaway sessions.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory blob store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Close() error { return nil }
