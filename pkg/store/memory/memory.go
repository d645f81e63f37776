// Package memory provides a process-local store backend for tests and
// ephemeral runs. Nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/store"
)

// Backend keeps records in a map.
type Backend struct {
	mu      sync.RWMutex
	records map[store.Key][]byte
	closed  bool
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{records: make(map[store.Key][]byte)}
}

// Load implements store.Backend.
func (b *Backend) Load(_ context.Context, key store.Key) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, errors.New("memory backend closed")
	}
	data, ok := b.records[key]
	if !ok {
		return nil, errors.NewNotFoundError("record", key.String())
	}
	return append([]byte(nil), data...), nil
}

// Save implements store.Backend.
func (b *Backend) Save(_ context.Context, key store.Key, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errors.New("memory backend closed")
	}
	b.records[key] = append([]byte(nil), value...)
	return nil
}

// Ping implements store.Backend.
func (b *Backend) Ping(context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errors.New("memory backend closed")
	}
	return nil
}

// Close implements store.Backend.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

var _ store.Backend = (*Backend)(nil)
