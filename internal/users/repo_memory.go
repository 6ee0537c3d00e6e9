package users

import (
	"context"
	"strings"
	"sync"
)

type MemoryStore struct {
	mu   sync.Mutex
	rows map[string]User // keyed by lowercased email
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[string]User{}}
}

func (s *MemoryStore) Create(ctx context.Context, u User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := s.rows[key]; ok {
		return User{}, ErrDuplicateEmail
	}
	s.rows[key] = u
	return u, nil
}

func (s *MemoryStore) GetByEmail(ctx context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[strings.ToLower(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}
