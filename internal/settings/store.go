// Package settings stores a per-user opaque settings document. The server
// never interprets its contents; the dashboard owns the shape.
package settings

import (
	"context"
	"encoding/json"
	"sync"
)

type Store interface {
	// Get returns the stored document, or nil when the user has none.
	Get(ctx context.Context, email string) (json.RawMessage, error)
	Set(ctx context.Context, email string, doc json.RawMessage) error
}

type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[string]json.RawMessage{}}
}

func (s *MemoryStore) Get(ctx context.Context, email string) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows[email], nil
}

func (s *MemoryStore) Set(ctx context.Context, email string, doc json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[email] = doc
	return nil
}
