package campaigns

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore backs campaigns when no database is configured.
type MemoryStore struct {
	mu     sync.Mutex
	rows   map[int64]Campaign
	nextID int64
	clock  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[int64]Campaign{}, nextID: 1, clock: time.Now}
}

func (s *MemoryStore) List(ctx context.Context) ([]Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Campaign, 0, len(s.rows))
	for _, c := range s.rows {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok {
		return Campaign{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) Create(ctx context.Context, n New) (Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := NameKey(n.Name)
	for _, existing := range s.rows {
		if NameKey(existing.Name) == key {
			return Campaign{}, ErrDuplicateName
		}
	}

	now := s.clock()
	c := Campaign{
		ID:              s.nextID,
		Name:            n.Name,
		Industry:        n.Industry,
		Goal:            n.Goal,
		OpeningScript:   n.OpeningScript,
		LocalizeTone:    n.LocalizeTone,
		ComplianceCheck: n.ComplianceCheck,
		Cadence:         n.Cadence,
		Quality:         n.Quality,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.nextID++
	s.rows[c.ID] = c
	return c, nil
}

func (s *MemoryStore) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for _, id := range ids {
		if _, ok := s.rows[id]; ok {
			delete(s.rows, id)
			deleted++
		}
	}
	return deleted, nil
}
