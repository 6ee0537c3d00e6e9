package credits

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps balances in a process-local map. Used both as the
// standalone store in memory mode and as the read-path fallback when the
// durable store is unreachable.
type MemoryStore struct {
	mu    sync.Mutex
	rows  map[string]int
	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[string]int{}, clock: time.Now}
}

func (s *MemoryStore) Get(ctx context.Context, email string) (UserCredits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	credits, ok := s.rows[email]
	if !ok {
		return UserCredits{}, ErrNotFound
	}
	return UserCredits{Email: email, Credits: credits, UpdatedAt: s.clock().UTC()}, nil
}

func (s *MemoryStore) Create(ctx context.Context, email string, credits int) (UserCredits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.rows[email]; ok {
		return UserCredits{Email: email, Credits: existing, UpdatedAt: s.clock().UTC()}, nil
	}
	s.rows[email] = credits
	return UserCredits{Email: email, Credits: credits, UpdatedAt: s.clock().UTC()}, nil
}

func (s *MemoryStore) ConsumeIf(ctx context.Context, email string, amount int) (UserCredits, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.rows[email]
	if !ok {
		return UserCredits{}, false, ErrNotFound
	}
	if current < amount {
		return UserCredits{Email: email, Credits: current, UpdatedAt: s.clock().UTC()}, false, nil
	}
	s.rows[email] = current - amount
	return UserCredits{Email: email, Credits: current - amount, UpdatedAt: s.clock().UTC()}, true, nil
}

func (s *MemoryStore) Add(ctx context.Context, email string, amount int) (UserCredits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.rows[email]
	if !ok {
		return UserCredits{}, ErrNotFound
	}
	s.rows[email] = current + amount
	return UserCredits{Email: email, Credits: current + amount, UpdatedAt: s.clock().UTC()}, nil
}
