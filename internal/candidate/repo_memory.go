package candidate

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the fallback store used when no database is configured.
// State is process-wide and reset on restart.
type MemoryStore struct {
	mu     sync.Mutex
	rows   map[int64]Candidate
	nextID int64
	clock  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: map[int64]Candidate{}, nextID: 1, clock: time.Now}
}

func (s *MemoryStore) List(ctx context.Context) ([]Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Candidate, 0, len(s.rows))
	for _, c := range s.rows {
		out = append(out, c)
	}
	sortByCreatedDesc(out)
	return out, nil
}

func (s *MemoryStore) ListByStatus(ctx context.Context, status Status) ([]Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Candidate, 0)
	for _, c := range s.rows {
		if c.Status == status {
			out = append(out, c)
		}
	}
	sortByCreatedDesc(out)
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok {
		return Candidate{}, ErrNotFound
	}
	return c, nil
}

func (s *MemoryStore) FindByVapiCallID(ctx context.Context, callID string) (Candidate, error) {
	if callID == "" {
		return Candidate{}, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.rows {
		if c.VapiCallID == callID {
			return c, nil
		}
	}
	return Candidate{}, ErrNotFound
}

func (s *MemoryStore) CreateBatch(ctx context.Context, batch []New) ([]Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock().UTC()
	out := make([]Candidate, 0, len(batch))
	for _, n := range batch {
		added := now
		c := Candidate{
			ID:        s.nextID,
			Name:      n.Name,
			Phone:     n.Phone,
			Email:     n.Email,
			Position:  n.Position,
			Status:    StatusPending,
			AddedAt:   &added,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.rows[c.ID] = c
		s.nextID++
		out = append(out, c)
	}
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, id int64, upd Update) (Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok {
		return Candidate{}, ErrNotFound
	}
	applyUpdate(&c, upd, s.clock().UTC())
	s.rows[id] = c
	return c, nil
}

func (s *MemoryStore) UpdateStatusIf(ctx context.Context, id int64, expected []Status, upd Update) (Candidate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.rows[id]
	if !ok {
		return Candidate{}, false, ErrNotFound
	}
	if !statusIn(c.Status, expected) {
		return c, false, nil
	}
	applyUpdate(&c, upd, s.clock().UTC())
	s.rows[id] = c
	return c, true, nil
}

func (s *MemoryStore) DeleteByStatus(ctx context.Context, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.rows {
		if c.Status == status {
			delete(s.rows, id)
		}
	}
	return nil
}

func (s *MemoryStore) DeleteMany(ctx context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.rows, id)
	}
	return nil
}

func (s *MemoryStore) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = map[int64]Candidate{}
	return nil
}

func statusIn(s Status, set []Status) bool {
	for _, v := range set {
		if s == v {
			return true
		}
	}
	return false
}

func applyUpdate(c *Candidate, upd Update, now time.Time) {
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Phone != nil {
		c.Phone = *upd.Phone
	}
	if upd.Email != nil {
		c.Email = *upd.Email
	}
	if upd.Position != nil {
		c.Position = *upd.Position
	}
	if upd.Status != nil {
		c.Status = *upd.Status
	}
	if upd.VapiCallID != nil {
		c.VapiCallID = *upd.VapiCallID
	}
	if upd.CallResult != nil {
		c.CallResult = *upd.CallResult
	}
	if upd.CallNotes != nil {
		c.CallNotes = *upd.CallNotes
	}
	if upd.CallStartTime != nil {
		t := *upd.CallStartTime
		c.CallStartTime = &t
	}
	if upd.CallEndTime != nil {
		t := *upd.CallEndTime
		c.CallEndTime = &t
	}
	if upd.AssistantName != nil {
		c.AssistantName = *upd.AssistantName
	}
	if upd.AssistantID != nil {
		c.AssistantID = *upd.AssistantID
	}
	if upd.AssistantPhone != nil {
		c.AssistantPhone = *upd.AssistantPhone
	}
	if upd.CallType != nil {
		c.CallType = *upd.CallType
	}
	if upd.EndedReason != nil {
		c.EndedReason = *upd.EndedReason
	}
	if upd.SuccessEvaluation != nil {
		c.SuccessEvaluation = *upd.SuccessEvaluation
	}
	if upd.Score != nil {
		c.Score = *upd.Score
	}
	if upd.CallDuration != nil {
		c.CallDuration = *upd.CallDuration
	}
	if upd.CallCost != nil {
		c.CallCost = *upd.CallCost
	}
	c.UpdatedAt = now
}

func sortByCreatedDesc(rows []Candidate) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ID > rows[j].ID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
}
