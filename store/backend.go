// Package store persists the panel's settings, history, template and prompts
// under fixed keys of a key-value backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Fixed storage keys.
const (
	KeyHistory  = "pw_history_v20"
	KeyState    = "pw_state_v20"
	KeyTemplate = "pw_template_v1"
	KeyPrompts  = "pw_prompts_v2"
)

// Keys lists every key the facade reads and writes.
var Keys = []string{KeyHistory, KeyState, KeyTemplate, KeyPrompts}

var ErrNotFound = errors.New("key not found")

// Backend is a byte-oriented key-value store. Get returns ErrNotFound for a
// key that was never written.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// StorageError reports a failed read or write of one key.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// MemoryBackend keeps values in process memory.
type MemoryBackend struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	cp := make([]byte, len(value))
	copy(cp, value)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = cp
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
